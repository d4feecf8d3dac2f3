package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/routesim/routesim/internal/scenario"
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/util"
)

var (
	advASPath string
	advMED    int
)

var advertiseCmd = &cobra.Command{
	Use:   "advertise <external-router> <prefix>",
	Short: "Originate a prefix from an external router",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		asPath, err := parseASPath(advASPath)
		if err != nil {
			return err
		}
		return withSession(func(s *scenario.Scenario) error {
			s.Advertisements = append(s.Advertisements, scenario.AdvertisementSpec{
				Router: args[0], Prefix: args[1], ASPath: asPath, MED: advMED,
			})
			return nil
		})
	},
}

func init() {
	advertiseCmd.Flags().StringVar(&advASPath, "as-path", "", "Comma-separated AS path, e.g. 65001,65002")
	advertiseCmd.Flags().IntVar(&advMED, "med", 0, "Multi-exit discriminator")
}

// parseASPath parses a comma-separated AS path, reusing the CSV-splitting
// helper shared across the CLI's list-valued flags.
func parseASPath(s string) (model.ASPath, error) {
	parts := util.SplitCommaSeparated(s)
	path := make(model.ASPath, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid AS path element %q: %w", p, err)
		}
		path = append(path, model.ASN(n))
	}
	return path, nil
}
