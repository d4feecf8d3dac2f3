package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routesim/routesim/internal/scenario"
)

var (
	rmOrder        int
	rmAction       string
	rmFlow         string
	rmSetLocalPref int
	rmSetMED       int
)

var routeMapCmd = &cobra.Command{
	Use:   "route-map <router> <neighbor> <in|out>",
	Short: "Add an ordered entry to a router's route map for one neighbor/direction",
	Long: `Add an ordered entry to a router's route map for one neighbor/direction.

Entries on the same (router, neighbor, direction) accumulate across repeated
invocations, ordered by --order.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		direction := args[2]
		if direction != "in" && direction != "out" {
			return fmt.Errorf("direction must be in or out, got %q", direction)
		}
		entry := scenario.RouteMapEntrySpec{Order: rmOrder, Action: rmAction, Flow: rmFlow}
		if cmd.Flags().Changed("set-local-pref") {
			v := rmSetLocalPref
			entry.SetLocalPref = &v
		}
		if cmd.Flags().Changed("set-med") {
			v := rmSetMED
			entry.SetMED = &v
		}
		return withSession(func(s *scenario.Scenario) error {
			for i := range s.RouteMaps {
				rm := &s.RouteMaps[i]
				if rm.Router == args[0] && rm.Neighbor == args[1] && rm.Direction == direction {
					rm.Entries = append(rm.Entries, entry)
					return nil
				}
			}
			s.RouteMaps = append(s.RouteMaps, scenario.RouteMapSpec{
				Router: args[0], Neighbor: args[1], Direction: direction,
				Entries: []scenario.RouteMapEntrySpec{entry},
			})
			return nil
		})
	},
}

func init() {
	routeMapCmd.Flags().IntVar(&rmOrder, "order", 10, "Entry order (lower runs first)")
	routeMapCmd.Flags().StringVar(&rmAction, "action", "allow", "allow or deny")
	routeMapCmd.Flags().StringVar(&rmFlow, "flow", "exit", "exit or continue")
	routeMapCmd.Flags().IntVar(&rmSetLocalPref, "set-local-pref", 0, "Set local preference")
	routeMapCmd.Flags().IntVar(&rmSetMED, "set-med", 0, "Set MED")
}
