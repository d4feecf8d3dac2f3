package main

import (
	"github.com/spf13/cobra"

	"github.com/routesim/routesim/internal/scenario"
)

var (
	linkWeight int
	linkArea   uint32
)

var addLinkCmd = &cobra.Command{
	Use:   "add-link <a> <b>",
	Short: "Connect two routers with a bidirectional link",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *scenario.Scenario) error {
			spec := scenario.LinkSpec{A: args[0], B: args[1], Weight: linkWeight}
			if cmd.Flags().Changed("area") {
				area := linkArea
				spec.Area = &area
			}
			s.Links = append(s.Links, spec)
			return nil
		})
	},
}

func init() {
	addLinkCmd.Flags().IntVar(&linkWeight, "weight", 0, "Link weight both directions (0 keeps the default of 100)")
	addLinkCmd.Flags().Uint32Var(&linkArea, "area", 0, "OSPF area shared by both directions")
}
