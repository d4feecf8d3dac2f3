// routesim is a noun-group CLI over the in-memory network simulator
// (pkg/sim): build a topology one command at a time, advertise routes,
// apply policy, and inspect the converged forwarding state.
//
// Commands mutating the topology (add-router, add-link, add-external,
// set-session, advertise, route-map, static-route) persist their effect
// to a session file (a YAML scenario, the same format internal/scenario's
// Load reads) so that a sequence of separate invocations
// builds up one running network:
//
//	routesim add-router R1 65000
//	routesim add-router R2 65000
//	routesim add-link R1 R2
//	routesim set-session R1 R2
//	routesim show ospf R1
//
// Each command reloads the session, replays it into a fresh *sim.Network,
// applies the new mutation, and re-saves. The simulator core itself never
// persists anything; only this CLI layer does.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/routesim/routesim/pkg/cli"
	"github.com/routesim/routesim/pkg/simlog"
	"github.com/routesim/routesim/pkg/version"
)

// App holds CLI state shared across all commands.
type App struct {
	sessionPath string
	verbose     bool
	jsonOutput  bool
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "routesim",
	Short:         "BGP/OSPF network simulator",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Long: `routesim builds an in-memory network of BGP/OSPF routers, converges it,
and answers forwarding questions against the result.

Commands that change the topology (add-router, add-link, add-external,
set-session, advertise, route-map, static-route) accumulate into a session
file; query commands (show forwarding, show bgp, show ospf) replay that
session and inspect the converged state.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if app.verbose {
			_ = simlog.SetLevel("debug")
		} else {
			_ = simlog.SetLevel("warn")
		}
		if app.jsonOutput {
			simlog.SetJSONFormat()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&app.sessionPath, "session", "f", "routesim-session.yaml", "Session file (accumulated scenario)")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.PersistentFlags().BoolVar(&app.jsonOutput, "json", false, "JSON log format")

	rootCmd.AddGroup(
		&cobra.Group{ID: "build", Title: "Topology Commands:"},
		&cobra.Group{ID: "query", Title: "Query Commands:"},
	)

	for _, cmd := range []*cobra.Command{
		addRouterCmd, addExternalCmd, addLinkCmd, setSessionCmd,
		advertiseCmd, routeMapCmd, staticRouteCmd, simulateCmd,
	} {
		cmd.GroupID = "build"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{showCmd, interactiveCmd} {
		cmd.GroupID = "query"
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("routesim dev build")
		} else {
			fmt.Printf("routesim %s (%s)\n", version.Version, version.GitCommit)
		}
	},
}

func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
func bold(s string) string   { return cli.Bold(s) }
