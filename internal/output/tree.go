package output

import "github.com/abatilo/triage/internal/rank"

// GraphNode represents a node in the dependency tree output. Children are
// the task's prerequisites.
type GraphNode struct {
	Task rank.ScoredTask
	// Repeated marks a task already expanded elsewhere in the forest; its
	// children are omitted.
	Repeated bool
	Children []GraphNode
}

// BuildForest arranges a ranked result as a dependency forest. Roots are
// tasks nothing depends on, in rank order; tasks reachable only through a
// cycle become extra roots afterwards. Each task is expanded once.
func BuildForest(res *rank.Result) []GraphNode {
	byID := make(map[int]rank.ScoredTask, len(res.Tasks))
	for _, t := range res.Tasks {
		byID[t.ID] = t
	}
	expanded := make(map[int]bool, len(res.Tasks))

	var build func(t rank.ScoredTask) GraphNode
	build = func(t rank.ScoredTask) GraphNode {
		if expanded[t.ID] {
			return GraphNode{Task: t, Repeated: true}
		}
		expanded[t.ID] = true
		node := GraphNode{Task: t}
		for _, id := range t.Dependencies {
			if dep, ok := byID[id]; ok {
				node.Children = append(node.Children, build(dep))
			}
		}
		return node
	}

	var roots []GraphNode
	for _, t := range res.Tasks {
		if t.Dependents == 0 && !expanded[t.ID] {
			roots = append(roots, build(t))
		}
	}
	for _, t := range res.Tasks {
		if !expanded[t.ID] {
			roots = append(roots, build(t))
		}
	}
	return roots
}
