package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/routesim/routesim/internal/scenario"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Single-step the session's convergence, one event at a time",
	Long: `Loads the session in manual-simulation mode (every mutation's events are
enqueued but not auto-drained) and lets you pop one event at a time,
printing its target and kind as it is dispatched.

Press any key to step, 'q' to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		built, err := scenario.BuildManual(s)
		if err != nil {
			return err
		}

		step := 0
		for {
			fmt.Printf("[%d] press any key to step, q to quit... ", step)
			if readQuit() {
				fmt.Println()
				break
			}
			event, ok, err := built.Net.SimulateStep()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("\n" + green("queue drained, converged."))
				break
			}
			kind := "ospf"
			if event.BGP != nil {
				kind = "bgp"
			}
			fmt.Printf("\n  dispatch %s event -> %s\n", kind, built.Net.Name(event.Target))
			step++
		}
		return nil
	},
}

// readQuit reads one key from stdin in raw mode (so the user doesn't have
// to press Enter) and reports whether it was 'q' or 'Q'. Falls back to a
// buffered newline-delimited read when stdin isn't a terminal (e.g. piped
// input in tests).
func readQuit() bool {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		return len(line) > 0 && (line[0] == 'q' || line[0] == 'Q')
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return false
	}
	defer term.Restore(fd, oldState)

	buf := make([]byte, 1)
	if _, err := os.Stdin.Read(buf); err != nil {
		return false
	}
	return buf[0] == 'q' || buf[0] == 'Q'
}
