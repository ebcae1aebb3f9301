package deps

import (
	"github.com/abatilo/triage/internal/task"
)

// Traversal states for cycle detection.
const (
	unvisited = iota
	visiting
	visited
)

// Graph is the dependency graph of one batch. Nodes are addressed by their
// position in the batch; an edge u -> v means task u depends on task v.
type Graph struct {
	ids     []int
	index   map[int]int
	edges   [][]int
	reverse [][]int
	dropped []DroppedEdge
}

// NewGraph builds a Graph from a batch of tasks. Duplicate dependency ids
// collapse to one edge; ids not present in the batch are dropped and
// reported by Dropped. Task ids are assumed unique.
func NewGraph(tasks []task.Task) *Graph {
	g := &Graph{
		ids:     make([]int, len(tasks)),
		index:   make(map[int]int, len(tasks)),
		edges:   make([][]int, len(tasks)),
		reverse: make([][]int, len(tasks)),
	}
	for i, t := range tasks {
		g.ids[i] = t.ID
		g.index[t.ID] = i
	}

	for i, t := range tasks {
		for _, depID := range t.UniqueDependencies() {
			j, ok := g.index[depID]
			if !ok {
				g.dropped = append(g.dropped, DroppedEdge{TaskID: t.ID, DependencyID: depID})
				continue
			}
			g.edges[i] = append(g.edges[i], j)
			g.reverse[j] = append(g.reverse[j], i)
		}
	}
	return g
}

// Dropped returns the edges that referenced unknown task ids, in batch order.
func (g *Graph) Dropped() []DroppedEdge {
	return g.dropped
}

// Dependencies returns the ids of tasks that id directly depends on.
func (g *Graph) Dependencies(id int) []int {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.toIDs(g.edges[i])
}

// Cycles returns the dependency loops in the graph, each as the ordered ids
// along the loop without repeating the first id. Traversal is an iterative
// depth-first search from every node in batch order. A task is reported in
// at most one cycle: loops that overlap an already reported cycle are skipped.
func (g *Graph) Cycles() [][]int {
	type frame struct {
		node int
		next int // next edge to explore
	}

	state := make([]int, len(g.ids))
	depth := make([]int, len(g.ids)) // stack position while visiting
	reported := make([]bool, len(g.ids))
	cycles := [][]int{}

	for root := range g.ids {
		if state[root] != unvisited {
			continue
		}
		state[root] = visiting
		stack := []frame{{node: root}}

		for len(stack) > 0 {
			top := len(stack) - 1
			u := stack[top].node
			if stack[top].next == len(g.edges[u]) {
				state[u] = visited
				stack = stack[:top]
				continue
			}
			v := g.edges[u][stack[top].next]
			stack[top].next++

			switch state[v] {
			case unvisited:
				state[v] = visiting
				depth[v] = len(stack)
				stack = append(stack, frame{node: v})
			case visiting:
				// Back edge: the loop is the active path from v down to u.
				members := make([]int, 0, len(stack)-depth[v])
				for _, f := range stack[depth[v]:] {
					members = append(members, f.node)
				}
				if overlaps(members, reported) {
					continue
				}
				for _, m := range members {
					reported[m] = true
				}
				cycles = append(cycles, g.toIDs(members))
			}
		}
	}
	return cycles
}

// BlockerCounts returns, for every task id, how many other tasks transitively
// depend on it: the tasks its completion would unblock, directly or
// indirectly. A task never counts itself, even inside a cycle.
func (g *Graph) BlockerCounts() map[int]int {
	counts := make(map[int]int, len(g.ids))
	seen := make([]int, len(g.ids)) // generation marks, reused across nodes
	queue := make([]int, 0, len(g.ids))

	for i := range g.ids {
		gen := i + 1
		seen[i] = gen
		queue = append(queue[:0], g.reverse[i]...)
		count := 0
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if seen[cur] == gen {
				continue
			}
			seen[cur] = gen
			count++
			queue = append(queue, g.reverse[cur]...)
		}
		counts[g.ids[i]] = count
	}
	return counts
}

// MaxBlockerCount returns the largest value in counts, or 0 when empty.
func MaxBlockerCount(counts map[int]int) int {
	m := 0
	for _, c := range counts {
		m = max(m, c)
	}
	return m
}

func (g *Graph) toIDs(nodes []int) []int {
	ids := make([]int, len(nodes))
	for i, n := range nodes {
		ids[i] = g.ids[n]
	}
	return ids
}

func overlaps(members []int, reported []bool) bool {
	for _, m := range members {
		if reported[m] {
			return true
		}
	}
	return false
}
