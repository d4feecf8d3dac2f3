package ospf

import (
	"container/heap"

	"github.com/routesim/routesim/pkg/model"
)

// pqItem is one entry in the Dijkstra frontier.
type pqItem struct {
	router model.RouterId
	cost   int
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].cost < pq[j].cost }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// adjacency builds a directed adjacency list for an area from its
// Router-LSAs.
func adjacency(routerLSAs map[model.RouterId]model.LSA) map[model.RouterId][]model.RouterLink {
	out := make(map[model.RouterId][]model.RouterLink, len(routerLSAs))
	for r, lsa := range routerLSAs {
		out[r] = lsa.RouterLinks
	}
	return out
}

// ComputeSPT runs Dijkstra rooted at root over the directed graph implied
// by routerLSAs, returning, per reachable destination, its cost and the
// set of first-hop neighbors achieving that cost (ECMP).
func ComputeSPT(root model.RouterId, routerLSAs map[model.RouterId]model.LSA) map[model.RouterId]model.SPTNode {
	adj := adjacency(routerLSAs)

	cost := map[model.RouterId]int{root: 0}
	firstHops := map[model.RouterId][]model.RouterId{}

	pq := &priorityQueue{{router: root, cost: 0}}
	heap.Init(pq)
	visited := map[model.RouterId]bool{}

	for pq.Len() > 0 {
		item := heap.Pop(pq).(pqItem)
		if visited[item.router] {
			continue
		}
		if item.cost > cost[item.router] {
			continue
		}
		visited[item.router] = true

		for _, link := range adj[item.router] {
			newCost := item.cost + link.Weight
			existing, known := cost[link.Target]
			switch {
			case !known || newCost < existing:
				cost[link.Target] = newCost
				if item.router == root {
					firstHops[link.Target] = []model.RouterId{link.Target}
				} else {
					firstHops[link.Target] = append([]model.RouterId{}, firstHops[item.router]...)
				}
				heap.Push(pq, pqItem{router: link.Target, cost: newCost})
			case newCost == existing:
				var candidateHops []model.RouterId
				if item.router == root {
					candidateHops = []model.RouterId{link.Target}
				} else {
					candidateHops = firstHops[item.router]
				}
				firstHops[link.Target] = unionRouterIds(firstHops[link.Target], candidateHops)
			}
		}
	}

	out := make(map[model.RouterId]model.SPTNode, len(cost))
	for dest, c := range cost {
		hops := firstHops[dest]
		if dest == root {
			hops = nil
		}
		out[dest] = model.SPTNode{Destination: dest, Cost: c, FirstHops: hops}
	}
	return out
}

func unionRouterIds(a, b []model.RouterId) []model.RouterId {
	seen := make(map[model.RouterId]bool, len(a))
	out := append([]model.RouterId{}, a...)
	for _, r := range a {
		seen[r] = true
	}
	for _, r := range b {
		if !seen[r] {
			out = append(out, r)
			seen[r] = true
		}
	}
	return out
}
