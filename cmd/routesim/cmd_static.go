package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routesim/routesim/internal/scenario"
)

var staticRouteCmd = &cobra.Command{
	Use:   "static-route <router> <prefix> <direct|indirect|drop> [target]",
	Short: "Install a static route on a router",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := args[2]
		var target string
		switch kind {
		case "drop":
			if len(args) == 4 {
				return fmt.Errorf("static-route drop takes no target")
			}
		case "direct", "indirect":
			if len(args) != 4 {
				return fmt.Errorf("static-route %s requires a target router", kind)
			}
			target = args[3]
		default:
			return fmt.Errorf("unknown static route kind %q (want direct, indirect, or drop)", kind)
		}
		return withSession(func(s *scenario.Scenario) error {
			s.StaticRoutes = append(s.StaticRoutes, scenario.StaticRouteSpec{
				Router: args[0], Prefix: args[1], Kind: kind, Target: target,
			})
			return nil
		})
	},
}
