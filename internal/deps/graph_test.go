//nolint:testpackage // Tests require internal access for thorough testing
package deps

import (
	"reflect"
	"testing"

	"github.com/abatilo/triage/internal/task"
)

func makeTask(id int, deps ...int) task.Task {
	return task.Task{
		ID:           id,
		Title:        "Task",
		Dependencies: deps,
	}
}

func TestNewGraphDropsUnknownDependencies(t *testing.T) {
	g := NewGraph([]task.Task{
		makeTask(1, 999, 2),
		makeTask(2),
	})

	dropped := g.Dropped()
	if len(dropped) != 1 {
		t.Fatalf("Dropped length = %d, want 1", len(dropped))
	}
	if dropped[0] != (DroppedEdge{TaskID: 1, DependencyID: 999}) {
		t.Errorf("Dropped[0] = %+v, want 1 -> 999", dropped[0])
	}
	want := "Task 1: dependency 999 not found in batch -> edge dropped"
	if got := dropped[0].String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	if got := g.Dependencies(1); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("Dependencies(1) = %v, want [2]", got)
	}
	if got := g.BlockerCounts(); got[2] != 1 || got[1] != 0 {
		t.Errorf("BlockerCounts = %v, want 2:1 1:0", got)
	}
}

func TestNewGraphDeduplicatesEdges(t *testing.T) {
	g := NewGraph([]task.Task{
		makeTask(1, 2, 2, 2),
		makeTask(2),
	})
	if got := g.Dependencies(1); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("Dependencies(1) = %v, want [2]", got)
	}
	if got := g.BlockerCounts(); got[2] != 1 {
		t.Errorf("BlockerCounts()[2] = %d, want 1", got[2])
	}
	if got := g.Dependencies(42); got != nil {
		t.Errorf("Dependencies(42) = %v, want nil", got)
	}
}

func TestCycles(t *testing.T) {
	tests := []struct {
		name  string
		tasks []task.Task
		want  [][]int
	}{
		{
			name:  "acyclic chain",
			tasks: []task.Task{makeTask(1, 2), makeTask(2, 3), makeTask(3)},
			want:  [][]int{},
		},
		{
			name:  "two node loop",
			tasks: []task.Task{makeTask(1, 2), makeTask(2, 1)},
			want:  [][]int{{1, 2}},
		},
		{
			name:  "three node loop with tail",
			tasks: []task.Task{makeTask(4, 1), makeTask(1, 2), makeTask(2, 3), makeTask(3, 1)},
			want:  [][]int{{1, 2, 3}},
		},
		{
			name:  "self dependency",
			tasks: []task.Task{makeTask(5, 5), makeTask(6)},
			want:  [][]int{{5}},
		},
		{
			name:  "disjoint loops",
			tasks: []task.Task{makeTask(1, 2), makeTask(2, 1), makeTask(3, 4), makeTask(4, 3)},
			want:  [][]int{{1, 2}, {3, 4}},
		},
		{
			// 1 -> 2 -> 1 and 1 -> 2 -> 3 -> 1 share nodes; only the first is reported.
			name:  "overlapping loops report each task once",
			tasks: []task.Task{makeTask(1, 2), makeTask(2, 1, 3), makeTask(3, 1)},
			want:  [][]int{{1, 2}},
		},
		{
			name:  "diamond is not a cycle",
			tasks: []task.Task{makeTask(1, 2, 3), makeTask(2, 4), makeTask(3, 4), makeTask(4)},
			want:  [][]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewGraph(tt.tasks).Cycles()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Cycles() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCyclesLongChainIsIterative(t *testing.T) {
	// A recursive DFS would need one stack frame per link.
	const n = 200000
	tasks := make([]task.Task, n)
	for i := range tasks {
		tasks[i] = makeTask(i, i+1)
	}
	tasks[n-1] = makeTask(n-1, 0)

	cycles := NewGraph(tasks).Cycles()
	if len(cycles) != 1 || len(cycles[0]) != n {
		t.Fatalf("expected one cycle of %d tasks, got %d cycles", n, len(cycles))
	}
	if cycles[0][0] != 0 || cycles[0][n-1] != n-1 {
		t.Errorf("cycle endpoints = %d..%d, want 0..%d", cycles[0][0], cycles[0][n-1], n-1)
	}
}

func TestBlockerCounts(t *testing.T) {
	// 2 and 3 depend on 1; 4 depends on 2; 5 is isolated.
	g := NewGraph([]task.Task{
		makeTask(1),
		makeTask(2, 1),
		makeTask(3, 1),
		makeTask(4, 2),
		makeTask(5),
	})

	want := map[int]int{1: 3, 2: 1, 3: 0, 4: 0, 5: 0}
	got := g.BlockerCounts()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BlockerCounts() = %v, want %v", got, want)
	}
	if m := MaxBlockerCount(got); m != 3 {
		t.Errorf("MaxBlockerCount() = %d, want 3", m)
	}
}

func TestBlockerCountsExcludeSelfInCycle(t *testing.T) {
	// 1 <-> 2, and 3 depends on 2.
	g := NewGraph([]task.Task{
		makeTask(1, 2),
		makeTask(2, 1),
		makeTask(3, 2),
	})

	want := map[int]int{1: 2, 2: 2, 3: 0}
	if got := g.BlockerCounts(); !reflect.DeepEqual(got, want) {
		t.Errorf("BlockerCounts() = %v, want %v", got, want)
	}
}

func TestMaxBlockerCountEmpty(t *testing.T) {
	if m := MaxBlockerCount(nil); m != 0 {
		t.Errorf("MaxBlockerCount(nil) = %d, want 0", m)
	}
}
