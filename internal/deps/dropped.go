package deps

import "fmt"

// DroppedEdge records a dependency on an id that is not in the batch.
type DroppedEdge struct {
	TaskID       int
	DependencyID int
}

func (e DroppedEdge) String() string {
	return fmt.Sprintf("Task %d: dependency %d not found in batch -> edge dropped", e.TaskID, e.DependencyID)
}
