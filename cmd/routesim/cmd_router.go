package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/routesim/routesim/internal/scenario"
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/util"
)

var addRouterCmd = &cobra.Command{
	Use:   "add-router <name> <asn>",
	Short: "Add an internal router to the session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		asn, err := parseASN(args[1])
		if err != nil {
			return err
		}
		name := util.SanitizeName(args[0])
		return withSession(func(s *scenario.Scenario) error {
			if hasRouter(s, name) {
				return fmt.Errorf("router %q already exists", name)
			}
			s.Routers = append(s.Routers, scenario.RouterSpec{Name: name, ASN: asn})
			return nil
		})
	},
}

var addExternalCmd = &cobra.Command{
	Use:   "add-external <name> <asn>",
	Short: "Add an external (peer AS) router to the session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		asn, err := parseASN(args[1])
		if err != nil {
			return err
		}
		name := util.SanitizeName(args[0])
		return withSession(func(s *scenario.Scenario) error {
			if hasRouter(s, name) {
				return fmt.Errorf("router %q already exists", name)
			}
			s.ExternalRouters = append(s.ExternalRouters, scenario.RouterSpec{Name: name, ASN: asn})
			return nil
		})
	},
}

func parseASN(s string) (model.ASN, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid ASN %q: %w", s, err)
	}
	return model.ASN(n), nil
}
