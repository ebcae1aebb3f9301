// Package rank runs the full analysis over a batch of tasks: validation,
// normalization, dependency analysis, scoring and ordering.
//
// Analyze is a pure function of its Request. It reads no clock and keeps no
// state, so concurrent calls are independent.
package rank

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/abatilo/triage/internal/calendar"
	"github.com/abatilo/triage/internal/deps"
	triageerrors "github.com/abatilo/triage/internal/errors"
	"github.com/abatilo/triage/internal/normalize"
	"github.com/abatilo/triage/internal/score"
	"github.com/abatilo/triage/internal/strategy"
	"github.com/abatilo/triage/internal/task"
)

// CycleWarning is appended once when any dependency cycle is found.
const CycleWarning = "dependency cycles detected; scores include a 15% penalty"

// Request is the input to Analyze.
type Request struct {
	Tasks    []task.Task
	Strategy string
	Today    time.Time
	Holidays calendar.Holidays
	// FallbackToDefault scores with the default strategy instead of failing
	// on an unknown strategy name. The substitution is reported as a warning
	// and in Result.StrategyUsed.
	FallbackToDefault bool
}

// ScoredTask is a task annotated with its score.
type ScoredTask struct {
	ID             int      `yaml:"id"                        json:"id"`
	Title          string   `yaml:"title"                     json:"title"`
	DueDate        string   `yaml:"due_date,omitempty"        json:"due_date,omitempty"`
	EstimatedHours *float64 `yaml:"estimated_hours,omitempty" json:"estimated_hours,omitempty"`
	// EffectiveHours is the effort the score used after defaulting.
	EffectiveHours float64 `yaml:"effective_hours" json:"effective_hours"`
	// Importance is the effective rating after defaulting and clamping.
	Importance int `yaml:"importance" json:"importance"`
	// Dependencies lists the resolved prerequisites; unknown ids are dropped.
	Dependencies []int `yaml:"dependencies" json:"dependencies"`
	// Dependents counts tasks transitively unblocked by this one.
	Dependents int `yaml:"dependents" json:"dependents"`
	// WorkingDays remaining until the due date; nil without a valid due date.
	WorkingDays *int              `yaml:"working_days,omitempty" json:"working_days,omitempty"`
	Signals     normalize.Signals `yaml:"signals"                json:"signals"`
	InCycle     bool              `yaml:"in_cycle"               json:"in_cycle"`
	Score       float64           `yaml:"score"                  json:"score"`
	Explanation string            `yaml:"explanation"            json:"explanation"`
}

// Result is the ranked output of one analysis.
type Result struct {
	StrategyUsed strategy.Name `yaml:"strategy_used" json:"strategy_used"`
	Tasks        []ScoredTask  `yaml:"tasks"         json:"tasks"`
	Warnings     []string      `yaml:"warnings"      json:"warnings"`
	Cycles       [][]int       `yaml:"cycles"        json:"cycles"`
}

// Validate rejects batches that cannot be scored at all.
func Validate(tasks []task.Task) error {
	if len(tasks) == 0 {
		return triageerrors.EmptyBatchError{}
	}
	seen := make(map[int]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			return triageerrors.DuplicateIDError{ID: t.ID}
		}
		seen[t.ID] = true
		if strings.TrimSpace(t.Title) == "" {
			return triageerrors.MissingTitleError{ID: t.ID}
		}
	}
	return nil
}

// Analyze scores and ranks a batch. Batch-level problems return an error and
// nothing is scored; per-task problems are resolved by defaults and reported
// in Result.Warnings.
func Analyze(req Request) (*Result, error) {
	if err := Validate(req.Tasks); err != nil {
		return nil, err
	}
	if req.Today.IsZero() {
		return nil, triageerrors.InvalidDateError{Value: ""}
	}

	res := &Result{
		Tasks:    make([]ScoredTask, 0, len(req.Tasks)),
		Warnings: []string{},
	}

	name, weights, err := strategy.Lookup(req.Strategy)
	if err != nil {
		if !req.FallbackToDefault {
			return nil, err
		}
		name, weights, _ = strategy.Lookup(string(strategy.Default))
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("unknown strategy %q -> using %s", req.Strategy, name))
	}
	res.StrategyUsed = name

	graph := deps.NewGraph(req.Tasks)
	res.Cycles = graph.Cycles()
	inCycle := make(map[int]bool)
	for _, c := range res.Cycles {
		for _, id := range c {
			inCycle[id] = true
		}
	}
	counts := graph.BlockerCounts()
	maxCount := deps.MaxBlockerCount(counts)

	dropped := make(map[int][]string)
	for _, e := range graph.Dropped() {
		dropped[e.TaskID] = append(dropped[e.TaskID], e.String())
	}

	n := normalize.Normalizer{Today: req.Today, Holidays: req.Holidays}
	for _, t := range req.Tasks {
		norm, warnings := n.Task(t)
		res.Warnings = append(res.Warnings, warnings...)
		res.Warnings = append(res.Warnings, dropped[t.ID]...)

		norm.Signals.Blocker = normalize.Blocker(counts[t.ID], maxCount)
		in := score.Input{
			Signals:    norm.Signals,
			Dependents: counts[t.ID],
			InCycle:    inCycle[t.ID],
		}
		scored := score.Combine(name, weights, in)

		res.Tasks = append(res.Tasks, ScoredTask{
			ID:             t.ID,
			Title:          t.Title,
			DueDate:        t.DueDate,
			EstimatedHours: t.EstimatedHours,
			EffectiveHours: norm.Hours,
			Importance:     norm.Importance,
			Dependencies:   graph.Dependencies(t.ID),
			Dependents:     counts[t.ID],
			WorkingDays:    norm.WorkingDays,
			Signals:        norm.Signals,
			InCycle:        in.InCycle,
			Score:          scored.Score,
			Explanation:    scored.Explanation,
		})
	}

	if len(res.Cycles) > 0 {
		res.Warnings = append(res.Warnings, CycleWarning)
	}

	SortTasks(res.Tasks)
	return res, nil
}

// SortTasks orders tasks by descending score, breaking ties by ascending id.
func SortTasks(tasks []ScoredTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Score != tasks[j].Score {
			return tasks[i].Score > tasks[j].Score
		}
		return tasks[i].ID < tasks[j].ID
	})
}
