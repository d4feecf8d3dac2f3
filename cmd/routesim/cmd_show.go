package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/routesim/routesim/internal/scenario"
	"github.com/routesim/routesim/pkg/cli"
	"github.com/routesim/routesim/pkg/forwarding"
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/prefix/ipv4"
	"github.com/routesim/routesim/pkg/routemap"
	"github.com/routesim/routesim/pkg/rserrors"
)

var loadBalance bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Inspect the converged session",
}

var showForwardingCmd = &cobra.Command{
	Use:   "forwarding <router> <prefix>",
	Short: "Show the forwarding path(s) for a prefix from a router",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		built, id, err := buildAndResolve(args[0])
		if err != nil {
			return err
		}
		prefixKey, err := ipv4.ParsePrefix(args[1])
		if err != nil {
			return fmt.Errorf("invalid prefix %q: %w", args[1], err)
		}
		fs := forwarding.New(built.Net, loadBalance)
		paths, err := fs.GetPaths(id, prefixKey)
		if err != nil {
			var loop *rserrors.ForwardingLoopError
			var blackHole *rserrors.ForwardingBlackHoleError
			switch {
			case errors.As(err, &loop):
				fmt.Println(red("loop: ") + strings.Join(loop.Path, " -> "))
			case errors.As(err, &blackHole):
				fmt.Println(red("black hole: ") + strings.Join(blackHole.Path, " -> "))
			}
			return err
		}
		for _, path := range paths {
			names := make([]string, len(path))
			for i, hop := range path {
				names[i] = built.Net.Name(hop)
			}
			fmt.Println(strings.Join(names, " -> "))
		}
		return nil
	},
}

var showBGPCmd = &cobra.Command{
	Use:   "bgp <router>",
	Short: "Show a router's BGP Loc-RIB",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		built, id, err := buildAndResolve(args[0])
		if err != nil {
			return err
		}
		rtr, ok := built.Net.Router(id)
		if !ok {
			return fmt.Errorf("%s is not an internal router", args[0])
		}
		t := cli.NewTable("PREFIX", "NEXT-HOP", "AS-PATH", "LOCAL-PREF", "MED", "PEER")
		rtr.BGP.KnownPrefixes().Range(func(p ipv4.Prefix) bool {
			entry, ok := rtr.BGP.LocRIBEntry(p)
			if !ok {
				return true
			}
			t.Row(
				p.String(),
				built.Net.Name(entry.Route.NextHop),
				asPathString(entry.Route.ASPath),
				strconv.Itoa(derefInt(entry.Route.LocalPref, routemap.DefaultLocalPref)),
				strconv.Itoa(derefInt(entry.Route.MED, routemap.DefaultMED)),
				built.Net.Name(entry.Peer),
			)
			return true
		})
		t.Flush()
		return nil
	},
}

var showOSPFCmd = &cobra.Command{
	Use:   "ospf <router>",
	Short: "Show a router's OSPF RIB",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		built, id, err := buildAndResolve(args[0])
		if err != nil {
			return err
		}
		rib := built.Net.OSPF().RIB(id)
		t := cli.NewTable("DESTINATION", "COST", "NEXT-HOPS", "CLASS")
		for dest, entry := range rib {
			hops := make([]string, len(entry.NextHops))
			for i, h := range entry.NextHops {
				hops[i] = built.Net.Name(h)
			}
			t.Row(built.Net.Name(dest), strconv.Itoa(entry.Cost), strings.Join(hops, ","), ribClassString(entry.Class))
		}
		t.Flush()
		return nil
	},
}

func init() {
	showForwardingCmd.Flags().BoolVar(&loadBalance, "load-balance", false, "Return every ECMP next hop instead of collapsing to one")
	showCmd.AddCommand(showForwardingCmd, showBGPCmd, showOSPFCmd)
}

func buildAndResolve(name string) (*scenario.Network, model.RouterId, error) {
	s, err := loadSession()
	if err != nil {
		return nil, 0, err
	}
	built, err := scenario.Build(s)
	if err != nil {
		return nil, 0, err
	}
	id, ok := built.IDs[name]
	if !ok {
		return nil, 0, rserrors.NewDeviceError(rserrors.ErrDeviceNameNotFound, name)
	}
	return built, id, nil
}

func asPathString(path model.ASPath) string {
	parts := make([]string, len(path))
	for i, asn := range path {
		parts[i] = strconv.FormatUint(uint64(asn), 10)
	}
	return strings.Join(parts, " ")
}

func derefInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func ribClassString(c model.RIBClass) string {
	switch c {
	case model.ClassIntraArea:
		return "intra-area"
	case model.ClassInterArea:
		return "inter-area"
	case model.ClassExternal:
		return "external"
	default:
		return "unknown"
	}
}
