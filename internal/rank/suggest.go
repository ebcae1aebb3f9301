package rank

import (
	"fmt"
	"strconv"
	"strings"

	triageerrors "github.com/abatilo/triage/internal/errors"
)

const (
	// DefaultSuggestLimit is how many tasks Suggest returns by default.
	DefaultSuggestLimit = 3
	// MaxSuggestLimit bounds the suggestion limit.
	MaxSuggestLimit = 20
)

// Suggestion is a top-ranked task with a one-line reason.
type Suggestion struct {
	ScoredTask
	Reason string `json:"reason"`
}

// Suggest returns the first limit tasks of a result with reasons.
func Suggest(res *Result, limit int) ([]Suggestion, error) {
	if res == nil || len(res.Tasks) == 0 {
		return nil, triageerrors.NoAnalysisError{}
	}
	if limit < 1 || limit > MaxSuggestLimit {
		return nil, triageerrors.InvalidLimitError{Value: limit, Max: MaxSuggestLimit}
	}

	n := min(limit, len(res.Tasks))
	out := make([]Suggestion, n)
	for i, t := range res.Tasks[:n] {
		out[i] = Suggestion{ScoredTask: t, Reason: Reason(t)}
	}
	return out, nil
}

// Reason explains a scored task in plain language.
func Reason(t ScoredTask) string {
	parts := []string{fmt.Sprintf("Priority %.2f/100", t.Score)}

	if t.WorkingDays != nil {
		if *t.WorkingDays < 0 {
			parts = append(parts, fmt.Sprintf("overdue by %d working day(s)", -*t.WorkingDays))
		} else {
			parts = append(parts, fmt.Sprintf("due in %d working day(s)", *t.WorkingDays))
		}
	}
	parts = append(parts, fmt.Sprintf("importance %d/10", t.Importance))
	// Only supplied estimates are mentioned, but always as the value scored.
	if t.EstimatedHours != nil {
		parts = append(parts, "~"+strconv.FormatFloat(t.EffectiveHours, 'f', -1, 64)+"h effort")
	}
	if t.Dependents > 0 {
		parts = append(parts, fmt.Sprintf("unblocks %d downstream task(s)", t.Dependents))
	}
	if len(t.Dependencies) > 0 {
		parts = append(parts, fmt.Sprintf("needs %d prerequisite task(s)", len(t.Dependencies)))
	}
	if t.Explanation != "" {
		parts = append(parts, "details: "+t.Explanation)
	}
	return strings.Join(parts, "; ")
}
