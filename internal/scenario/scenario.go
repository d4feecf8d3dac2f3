// Package scenario loads YAML network fixtures and builds them into a
// running *sim.Network: read-file, unmarshal, apply defaults, validate,
// then drive the result through sim.Network's construction calls.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/routesim/routesim/pkg/bgp"
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/ospf/global"
	"github.com/routesim/routesim/pkg/prefix"
	"github.com/routesim/routesim/pkg/prefix/ipv4"
	"github.com/routesim/routesim/pkg/queue"
	"github.com/routesim/routesim/pkg/routemap"
	"github.com/routesim/routesim/pkg/sim"
)

// Scenario is a parsed network fixture: a set of routers, links, BGP
// sessions, static routes, external advertisements, and route maps to
// build into a Network before any forwarding queries run.
type Scenario struct {
	Name            string              `yaml:"name"`
	Description     string              `yaml:"description"`
	Routers         []RouterSpec        `yaml:"routers"`
	ExternalRouters []RouterSpec        `yaml:"external_routers"`
	Links           []LinkSpec          `yaml:"links"`
	BGPSessions     []SessionSpec       `yaml:"bgp_sessions"`
	StaticRoutes    []StaticRouteSpec   `yaml:"static_routes,omitempty"`
	Advertisements  []AdvertisementSpec `yaml:"advertisements,omitempty"`
	RouteMaps       []RouteMapSpec      `yaml:"route_maps,omitempty"`
	MsgLimit        *int                `yaml:"msg_limit,omitempty"`
	Queue           *QueueSpec          `yaml:"queue,omitempty"`
}

// QueueSpec selects the pending-event queue realization a built Network
// uses. Kind is "fifo" (the default, in-process) or "redis" (backed by a
// Redis list, for experiments that want the queue observable outside the
// simulator process); Addr/DB/Key are only meaningful for "redis".
type QueueSpec struct {
	Kind string `yaml:"kind"`
	Addr string `yaml:"addr,omitempty"`
	DB   int    `yaml:"db,omitempty"`
	Key  string `yaml:"key,omitempty"`
}

// RouterSpec names one internal or external router.
type RouterSpec struct {
	Name string    `yaml:"name"`
	ASN  model.ASN `yaml:"asn"`
}

// LinkSpec connects two named routers. Weight 0 keeps AddLink's default
// of 100 in both directions; Area, if set, is applied to both.
type LinkSpec struct {
	A      string  `yaml:"a"`
	B      string  `yaml:"b"`
	Weight int     `yaml:"weight,omitempty"`
	Area   *uint32 `yaml:"area,omitempty"`
}

// SessionSpec configures a BGP session. ClientOfSrc marks Dst as Src's
// route-reflector client.
type SessionSpec struct {
	Src         string `yaml:"src"`
	Dst         string `yaml:"dst"`
	ClientOfSrc bool   `yaml:"client_of_src,omitempty"`
}

// StaticRouteSpec installs a static route on Router for Prefix. Kind is
// one of "direct", "indirect", "drop"; Target is required for the first
// two.
type StaticRouteSpec struct {
	Router string `yaml:"router"`
	Prefix string `yaml:"prefix"`
	Kind   string `yaml:"kind"`
	Target string `yaml:"target,omitempty"`
}

// AdvertisementSpec has an external Router originate Prefix with the
// given AS path.
type AdvertisementSpec struct {
	Router string      `yaml:"router"`
	Prefix string      `yaml:"prefix"`
	ASPath []model.ASN `yaml:"as_path"`
	MED    int         `yaml:"med,omitempty"`
}

// RouteMapSpec installs a route map on Router, applied to traffic
// to/from Neighbor in Direction ("in" or "out").
type RouteMapSpec struct {
	Router    string              `yaml:"router"`
	Neighbor  string              `yaml:"neighbor"`
	Direction string              `yaml:"direction"`
	Entries   []RouteMapEntrySpec `yaml:"entries"`
}

// RouteMapEntrySpec is one ordered route-map rule. Action is "allow" (the
// default) or "deny"; Flow is "exit" (the default) or "continue".
type RouteMapEntrySpec struct {
	Order        int    `yaml:"order"`
	Action       string `yaml:"action,omitempty"`
	Flow         string `yaml:"flow,omitempty"`
	SetLocalPref *int   `yaml:"set_local_pref,omitempty"`
	SetMED       *int   `yaml:"set_med,omitempty"`
}

// Load reads and parses a YAML scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	return &s, nil
}

// Save marshals s to path as YAML, the format cmd/routesim uses to persist
// a session's accumulated topology between invocations.
func Save(path string, s *Scenario) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding scenario %s: %w", s.Name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing scenario %s: %w", path, err)
	}
	return nil
}

// Network is the built form of a Scenario: the running simulator network
// plus the name-to-id table used to translate YAML router names to
// model.RouterId values.
type Network struct {
	Net *sim.Network[ipv4.Prefix]
	IDs map[string]model.RouterId
}

// Build constructs s into a running Network, applying every section in
// the order routers/links/sessions/static-routes/route-maps, then (after
// installing any msg_limit) external advertisements, so a deliberately
// undersized msg_limit caps exactly the convergence triggered by the
// advertisements, not the topology build.
func Build(s *Scenario) (*Network, error) {
	return build(s, false)
}

// BuildManual constructs s the same way Build does, except the network is
// switched into manual-simulation mode before the first mutation: every
// router/link/session/route/advertisement enqueues its events instead of
// auto-draining them. The caller steps the queue with Network.SimulateStep,
// which is what cmd/routesim's interactive command does.
func BuildManual(s *Scenario) (*Network, error) {
	return build(s, true)
}

// buildQueue constructs the pending-event queue a scenario's Network
// runs on. A nil spec (the common case) gets the default in-process FIFO.
func buildQueue(spec *QueueSpec) (queue.Queue[ipv4.Prefix], error) {
	if spec == nil || spec.Kind == "" || spec.Kind == "fifo" {
		return queue.NewFIFO[ipv4.Prefix](), nil
	}
	if spec.Kind != "redis" {
		return nil, fmt.Errorf("scenario: unknown queue kind %q", spec.Kind)
	}
	addr := spec.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	key := spec.Key
	if key == "" {
		key = "routesim:events"
	}
	return queue.NewRedis[ipv4.Prefix](addr, spec.DB, key), nil
}

func build(s *Scenario, manual bool) (*Network, error) {
	q, err := buildQueue(s.Queue)
	if err != nil {
		return nil, err
	}
	net := sim.New[ipv4.Prefix](
		global.New(),
		q,
		func() prefix.Map[ipv4.Prefix, bgp.RIBEntry[ipv4.Prefix]] { return ipv4.NewMap[bgp.RIBEntry[ipv4.Prefix]]() },
		func() prefix.Map[ipv4.Prefix, model.StaticRoute] { return ipv4.NewMap[model.StaticRoute]() },
		ipv4.NewSet,
	)
	if manual {
		net.ManualSimulation()
	}
	ids := make(map[string]model.RouterId, len(s.Routers)+len(s.ExternalRouters))

	for _, r := range s.Routers {
		ids[r.Name] = net.AddRouter(r.Name, r.ASN)
	}
	for _, r := range s.ExternalRouters {
		ids[r.Name] = net.AddExternalRouter(r.Name, r.ASN)
	}

	resolve := func(name string) (model.RouterId, error) {
		id, ok := ids[name]
		if !ok {
			return 0, fmt.Errorf("scenario %s: unknown router %q", s.Name, name)
		}
		return id, nil
	}

	for _, l := range s.Links {
		a, err := resolve(l.A)
		if err != nil {
			return nil, err
		}
		b, err := resolve(l.B)
		if err != nil {
			return nil, err
		}
		if err := net.AddLink(a, b); err != nil {
			return nil, fmt.Errorf("scenario %s: link %s-%s: %w", s.Name, l.A, l.B, err)
		}
		if l.Weight != 0 {
			if err := net.SetLinkWeight(a, b, l.Weight); err != nil {
				return nil, fmt.Errorf("scenario %s: weight %s->%s: %w", s.Name, l.A, l.B, err)
			}
			if err := net.SetLinkWeight(b, a, l.Weight); err != nil {
				return nil, fmt.Errorf("scenario %s: weight %s->%s: %w", s.Name, l.B, l.A, err)
			}
		}
		if l.Area != nil {
			if err := net.SetOSPFArea(a, b, model.AreaId(*l.Area)); err != nil {
				return nil, fmt.Errorf("scenario %s: area %s-%s: %w", s.Name, l.A, l.B, err)
			}
		}
	}

	for _, sess := range s.BGPSessions {
		src, err := resolve(sess.Src)
		if err != nil {
			return nil, err
		}
		dst, err := resolve(sess.Dst)
		if err != nil {
			return nil, err
		}
		if err := net.SetBGPSession(src, dst, true, sess.ClientOfSrc); err != nil {
			return nil, fmt.Errorf("scenario %s: session %s-%s: %w", s.Name, sess.Src, sess.Dst, err)
		}
	}

	for _, sr := range s.StaticRoutes {
		router, err := resolve(sr.Router)
		if err != nil {
			return nil, err
		}
		prefixKey, err := ipv4.ParsePrefix(sr.Prefix)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: static route prefix %q: %w", s.Name, sr.Prefix, err)
		}
		route, err := buildStaticRoute(sr, resolve)
		if err != nil {
			return nil, err
		}
		if err := net.SetStaticRoute(router, prefixKey, route); err != nil {
			return nil, fmt.Errorf("scenario %s: static route on %s: %w", s.Name, sr.Router, err)
		}
	}

	for _, rm := range s.RouteMaps {
		router, err := resolve(rm.Router)
		if err != nil {
			return nil, err
		}
		neighbor, err := resolve(rm.Neighbor)
		if err != nil {
			return nil, err
		}
		built, err := buildRouteMap(rm)
		if err != nil {
			return nil, err
		}
		out := rm.Direction == "out"
		if err := net.SetBGPRouteMap(router, neighbor, out, built); err != nil {
			return nil, fmt.Errorf("scenario %s: route map on %s for %s: %w", s.Name, rm.Router, rm.Neighbor, err)
		}
	}

	if s.MsgLimit != nil {
		limit := *s.MsgLimit
		net.SetMsgLimit(&limit)
	}

	for _, adv := range s.Advertisements {
		router, err := resolve(adv.Router)
		if err != nil {
			return nil, err
		}
		prefixKey, err := ipv4.ParsePrefix(adv.Prefix)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: advertisement prefix %q: %w", s.Name, adv.Prefix, err)
		}
		if err := net.AdvertiseExternalRoute(router, prefixKey, append(model.ASPath{}, adv.ASPath...), adv.MED, nil); err != nil {
			return nil, fmt.Errorf("scenario %s: advertisement on %s: %w", s.Name, adv.Router, err)
		}
	}

	return &Network{Net: net, IDs: ids}, nil
}

func buildStaticRoute(sr StaticRouteSpec, resolve func(string) (model.RouterId, error)) (model.StaticRoute, error) {
	switch sr.Kind {
	case "drop":
		return model.Drop(), nil
	case "direct":
		target, err := resolve(sr.Target)
		if err != nil {
			return model.StaticRoute{}, err
		}
		return model.Direct(target), nil
	case "indirect":
		target, err := resolve(sr.Target)
		if err != nil {
			return model.StaticRoute{}, err
		}
		return model.Indirect(target), nil
	default:
		return model.StaticRoute{}, fmt.Errorf("unknown static route kind %q", sr.Kind)
	}
}

func buildRouteMap(rm RouteMapSpec) (*routemap.RouteMap[ipv4.Prefix], error) {
	built := routemap.New[ipv4.Prefix](rm.Router + "-" + rm.Neighbor + "-" + rm.Direction)
	for _, es := range rm.Entries {
		entry := &routemap.Entry[ipv4.Prefix]{Order: es.Order}
		switch es.Action {
		case "", "allow":
			entry.Action = routemap.Allow
		case "deny":
			entry.Action = routemap.Deny
		default:
			return nil, fmt.Errorf("unknown route map action %q", es.Action)
		}
		if es.SetLocalPref != nil {
			entry.Sets = append(entry.Sets, routemap.SetLocalPref[ipv4.Prefix]{Value: *es.SetLocalPref})
		}
		if es.SetMED != nil {
			entry.Sets = append(entry.Sets, routemap.SetMED[ipv4.Prefix]{Value: *es.SetMED})
		}
		switch es.Flow {
		case "", "exit":
			entry.Flow = routemap.Flow{Kind: routemap.Exit}
		case "continue":
			entry.Flow = routemap.Flow{Kind: routemap.Continue}
		default:
			return nil, fmt.Errorf("unknown route map flow %q", es.Flow)
		}
		if err := built.AddEntry(entry); err != nil {
			return nil, err
		}
	}
	return built, nil
}
