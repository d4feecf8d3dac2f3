package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routesim/routesim/internal/scenario"
	"github.com/routesim/routesim/pkg/util"
)

var genMeshCmd = &cobra.Command{
	Use:   "gen-mesh <range> <asn>",
	Short: "Add a full iBGP mesh of routers named r<n> for n in range",
	Long: `Add a full iBGP mesh of routers named r<n> for n in range, e.g.:

  routesim gen-mesh 1-4 65000

expands to routers r1..r4, every pair linked and iBGP-peered.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := util.ExpandRange(args[0])
		if err != nil {
			return fmt.Errorf("invalid range %q: %w", args[0], err)
		}
		asn, err := parseASN(args[1])
		if err != nil {
			return err
		}
		return withSession(func(s *scenario.Scenario) error {
			names := make([]string, len(ns))
			for i, n := range ns {
				name := fmt.Sprintf("r%d", n)
				names[i] = name
				if hasRouter(s, name) {
					return fmt.Errorf("router %q already exists", name)
				}
				s.Routers = append(s.Routers, scenario.RouterSpec{Name: name, ASN: asn})
			}
			for i := range names {
				for j := i + 1; j < len(names); j++ {
					s.Links = append(s.Links, scenario.LinkSpec{A: names[i], B: names[j], Weight: 1})
					s.BGPSessions = append(s.BGPSessions, scenario.SessionSpec{Src: names[i], Dst: names[j]})
				}
			}
			return nil
		})
	},
}

func init() {
	genMeshCmd.GroupID = "build"
	rootCmd.AddCommand(genMeshCmd)
}
