package scheduler

import "sort"

// tarjan returns the graph's strongly connected components, each as a
// slice of ActionIDs, in an arbitrary order. A component of size 1 with
// no self-loop is an ordinary acyclic node; components larger than that
// (or with a self-loop) are cycles requiring breakCycle.
func tarjan(g *Graph) [][]ActionID {
	n := len(g.Actions)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []ActionID
	var components [][]ActionID
	counter := 0

	var strongconnect func(v ActionID)
	strongconnect = func(v ActionID) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, eIdx := range g.adj[v] {
			w := g.edges[eIdx].To
			if index[w] == -1 {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var comp []ActionID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			components = append(components, comp)
		}
	}

	for i := 0; i < n; i++ {
		if index[i] == -1 {
			strongconnect(ActionID(i))
		}
	}
	return components
}

// breakCycle drops edges within a strongly connected component until it
// is acyclic, always removing the weakest-class edge(s) first. It
// mutates g.edges/g.adj in place and returns the set of edge classes it
// had to weaken, so the caller can record which dpkg force flags the
// resulting action groups need.
func breakCycle(g *Graph, comp []ActionID) map[edgeClass]bool {
	weakened := make(map[edgeClass]bool)
	if len(comp) < 2 {
		return weakened
	}
	inComp := make(map[ActionID]bool, len(comp))
	for _, id := range comp {
		inComp[id] = true
	}

	for {
		// Find the weakest-class edge whose endpoints are both in comp.
		weakestIdx := -1
		for _, v := range comp {
			for _, eIdx := range g.adj[v] {
				e := g.edges[eIdx]
				if !inComp[e.To] {
					continue
				}
				if weakestIdx == -1 || e.Class < g.edges[weakestIdx].Class {
					weakestIdx = eIdx
				}
			}
		}
		if weakestIdx == -1 {
			break
		}
		weakened[g.edges[weakestIdx].Class] = true
		removeEdge(g, weakestIdx)

		if len(tarjanSubset(g, comp)) == len(comp) {
			// every node is now its own component: acyclic
			break
		}
	}
	return weakened
}

// allConfigure reports whether every action in comp is a Configure step,
// the one shape of cycle dpkg tolerates directly (circular Depends among
// packages being configured together, resolved with --force-depends).
func allConfigure(g *Graph, comp []ActionID) bool {
	for _, id := range comp {
		if g.Actions[id].Type != Configure {
			return false
		}
	}
	return true
}

// removeEdge deletes the edge at index idx from g.edges and rewrites
// g.adj accordingly. This is O(E) per removal, acceptable since cycles
// are expected to be small relative to the whole graph.
func removeEdge(g *Graph, idx int) {
	g.edges = append(g.edges[:idx], g.edges[idx+1:]...)
	for k, v := range g.adj {
		var out []int
		for _, e := range v {
			switch {
			case e < idx:
				out = append(out, e)
			case e > idx:
				out = append(out, e-1)
			}
		}
		g.adj[k] = out
	}
}

// tarjanSubset runs SCC decomposition restricted to the given node set,
// used by breakCycle to check whether removing an edge has made the
// component acyclic yet.
func tarjanSubset(g *Graph, nodes []ActionID) [][]ActionID {
	allowed := make(map[ActionID]bool, len(nodes))
	for _, n := range nodes {
		allowed[n] = true
	}
	sub := NewGraph()
	sub.Actions = g.Actions
	remap := make(map[ActionID]ActionID)
	for _, n := range nodes {
		remap[n] = n
	}
	for v, edges := range g.adj {
		if !allowed[v] {
			continue
		}
		for _, eIdx := range edges {
			e := g.edges[eIdx]
			if allowed[e.To] {
				sub.adj[v] = append(sub.adj[v], len(sub.edges))
				sub.edges = append(sub.edges, e)
			}
		}
	}
	return tarjanOverNodes(sub, nodes)
}

// tarjanOverNodes is tarjan restricted to run only the strongconnect
// visit from the given starting nodes (used by tarjanSubset, where the
// graph's node count may exceed the subset under consideration).
func tarjanOverNodes(g *Graph, nodes []ActionID) [][]ActionID {
	index := make(map[ActionID]int)
	lowlink := make(map[ActionID]int)
	onStack := make(map[ActionID]bool)
	var stack []ActionID
	var components [][]ActionID
	counter := 0

	var strongconnect func(v ActionID)
	strongconnect = func(v ActionID) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, eIdx := range g.adj[v] {
			w := g.edges[eIdx].To
			if _, seen := index[w]; !seen {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var comp []ActionID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			components = append(components, comp)
		}
	}

	for _, n := range nodes {
		if _, seen := index[n]; !seen {
			strongconnect(n)
		}
	}
	return components
}

// TopoSort returns a total order of every action in g respecting all
// edges, breaking any cycles first (weakest edge class dropped first;
// all-Configure cycles, which dpkg tolerates, are broken the same way but
// always reported as weakening classHard), ordering actions that are
// ready at the same time by their own inner-action priority, then by id.
// It also reports which edge classes, if any, had to be
// weakened to reach an acyclic graph, so the caller can set the
// corresponding dpkg force flags.
func TopoSort(g *Graph) ([]ActionID, map[edgeClass]bool) {
	weakened := make(map[edgeClass]bool)
	for {
		comps := tarjan(g)
		brokeAny := false
		for _, c := range comps {
			if len(c) <= 1 {
				continue
			}
			if allConfigure(g, c) {
				// legal: dpkg is told --force-depends and configures the
				// whole group in one call, so any internal edges still
				// need dropping purely to produce a linear order here.
				breakCycle(g, c)
				weakened[classHard] = true
				brokeAny = true
				continue
			}
			for class := range breakCycle(g, c) {
				weakened[class] = true
			}
			brokeAny = true
		}
		if !brokeAny {
			break
		}
	}

	// Kahn's algorithm with a priority tie-break, now that the graph is
	// acyclic.
	inDegree := make(map[ActionID]int)
	for i := range g.Actions {
		inDegree[ActionID(i)] = 0
	}
	for _, e := range g.edges {
		inDegree[e.To]++
	}

	var ready []ActionID
	for id, d := range inDegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}

	var order []ActionID
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			pi, pj := g.Actions[ready[i]].Priority, g.Actions[ready[j]].Priority
			if pi != pj {
				return pi < pj
			}
			return ready[i] < ready[j]
		})
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, eIdx := range g.adj[next] {
			to := g.edges[eIdx].To
			inDegree[to]--
			if inDegree[to] == 0 {
				ready = append(ready, to)
			}
		}
	}
	return order, weakened
}
