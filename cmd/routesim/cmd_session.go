package main

import (
	"github.com/spf13/cobra"

	"github.com/routesim/routesim/internal/scenario"
)

var clientOfSrc bool

var setSessionCmd = &cobra.Command{
	Use:   "set-session <src> <dst>",
	Short: "Establish a BGP session between two routers",
	Long: `Establish a BGP session between two routers.

eBGP or iBGP is derived automatically from the two routers' ASNs. Pass
--client to mark dst as src's route-reflector client (iBGP only).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *scenario.Scenario) error {
			s.BGPSessions = append(s.BGPSessions, scenario.SessionSpec{
				Src: args[0], Dst: args[1], ClientOfSrc: clientOfSrc,
			})
			return nil
		})
	},
}

func init() {
	setSessionCmd.Flags().BoolVar(&clientOfSrc, "client", false, "dst is src's route-reflector client")
}
