package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routesim/routesim/internal/scenario"
)

var (
	simMsgLimit  int
	simQueue     string
	simQueueAddr string
	simQueueDB   int
	simQueueKey  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Rebuild the session's network and report whether it converges",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("msg-limit") {
			limit := simMsgLimit
			s.MsgLimit = &limit
			if err := scenario.Save(app.sessionPath, s); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("queue") {
			s.Queue = &scenario.QueueSpec{Kind: simQueue, Addr: simQueueAddr, DB: simQueueDB, Key: simQueueKey}
			if err := scenario.Save(app.sessionPath, s); err != nil {
				return err
			}
		}
		built, err := scenario.Build(s)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d routers, %d external routers converged.\n",
			green("OK"), len(s.Routers), len(s.ExternalRouters))
		_ = built
		return nil
	},
}

func init() {
	simulateCmd.Flags().IntVar(&simMsgLimit, "msg-limit", 0, "Persist a message cap on the session (0 leaves it unset)")
	simulateCmd.Flags().StringVar(&simQueue, "queue", "fifo", "Pending-event queue realization to persist on the session: fifo or redis")
	simulateCmd.Flags().StringVar(&simQueueAddr, "queue-addr", "localhost:6379", "Redis address, when --queue=redis")
	simulateCmd.Flags().IntVar(&simQueueDB, "queue-db", 0, "Redis DB index, when --queue=redis")
	simulateCmd.Flags().StringVar(&simQueueKey, "queue-key", "routesim:events", "Redis list key, when --queue=redis")
}
