// Package score combines normalized signals into a 0-100 priority.
package score

import (
	"fmt"
	"math"

	"github.com/abatilo/triage/internal/normalize"
	"github.com/abatilo/triage/internal/strategy"
)

const (
	// CyclePenalty is the fraction removed from the score of a task in a
	// dependency cycle.
	CyclePenalty = 0.15

	maxScore = 100.0
)

// Input is everything the combiner needs for one task.
type Input struct {
	Signals    normalize.Signals
	Dependents int
	InCycle    bool
}

// Result is a task's score and the text explaining it.
type Result struct {
	// Score is clamped to [0,100] and rounded to two decimals.
	Score       float64
	Explanation string
}

// Raw returns the weighted score before the cycle penalty, clamping and rounding.
func Raw(w strategy.Weights, s normalize.Signals) float64 {
	return maxScore * (w.Urgency*s.Urgency +
		w.Importance*s.Importance +
		w.QuickWin*s.QuickWin +
		w.Blocker*s.Blocker)
}

// Combine scores one task under the given strategy.
func Combine(name strategy.Name, w strategy.Weights, in Input) Result {
	s := Raw(w, in.Signals)
	if in.InCycle {
		s *= 1 - CyclePenalty
	}
	s = max(0, min(maxScore, s))

	return Result{
		Score:       Round(s),
		Explanation: Explain(name, in),
	}
}

// Explain renders the signals behind a score as percentages.
func Explain(name strategy.Name, in Input) string {
	sig := in.Signals
	text := fmt.Sprintf("U=%d%%, I=%d%%, QW=%d%%, Block=%d (%d%%), strategy=%s",
		percent(sig.Urgency), percent(sig.Importance), percent(sig.QuickWin),
		in.Dependents, percent(sig.Blocker), name)
	if in.InCycle {
		text += fmt.Sprintf(", cycle penalty -%d%% applied", percent(CyclePenalty))
	}
	return text
}

// Round rounds to two decimal places.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

func percent(v float64) int {
	return int(math.Round(v * 100))
}
