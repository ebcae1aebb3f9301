// Package strategy holds the fixed table of named weightings over the four
// normalized signals.
package strategy

import (
	"strings"

	triageerrors "github.com/abatilo/triage/internal/errors"
)

// Name identifies a weighting strategy.
type Name string

const (
	SmartBalance   Name = "smart_balance"
	DeadlineDriven Name = "deadline_driven"
	HighImpact     Name = "high_impact"
	FastestWins    Name = "fastest_wins"
)

// Default is used when no strategy is named.
const Default = SmartBalance

// Weights is the contribution of each signal to a score. Components sum to 1.
type Weights struct {
	Urgency    float64 `yaml:"urgency"    json:"urgency"`
	Importance float64 `yaml:"importance" json:"importance"`
	QuickWin   float64 `yaml:"quickwin"   json:"quickwin"`
	Blocker    float64 `yaml:"blocker"    json:"blocker"`
}

// Sum returns the total of all four weights.
func (w Weights) Sum() float64 {
	return w.Urgency + w.Importance + w.QuickWin + w.Blocker
}

// Strategy is one row of the strategy table.
type Strategy struct {
	Name        Name    `json:"name"`
	Description string  `json:"description"`
	Weights     Weights `json:"weights"`
}

// All returns every strategy in table order.
func All() []Strategy {
	names := []Name{SmartBalance, DeadlineDriven, HighImpact, FastestWins}
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		w, _ := weightsFor(n)
		out = append(out, Strategy{Name: n, Description: describe(n), Weights: w})
	}
	return out
}

// Names returns the valid strategy names in table order.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = string(s.Name)
	}
	return names
}

// Canonical trims and lower-cases a strategy name. An empty name maps to Default.
func Canonical(name string) Name {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Default
	}
	return Name(n)
}

// Lookup resolves a strategy name to its weights.
func Lookup(name string) (Name, Weights, error) {
	n := Canonical(name)
	w, ok := weightsFor(n)
	if !ok {
		return "", Weights{}, triageerrors.UnknownStrategyError{Name: name, Valid: Names()}
	}
	return n, w, nil
}

// IsValid checks if a strategy name resolves.
func IsValid(name string) bool {
	_, ok := weightsFor(Canonical(name))
	return ok
}

// weightsFor is the strategy table. Adding a strategy means adding a case.
func weightsFor(n Name) (Weights, bool) {
	switch n {
	case SmartBalance:
		return Weights{Urgency: 0.35, Importance: 0.25, QuickWin: 0.18, Blocker: 0.22}, true
	case DeadlineDriven:
		return Weights{Urgency: 0.75, Importance: 0.20, QuickWin: 0.03, Blocker: 0.02}, true
	case HighImpact:
		return Weights{Urgency: 0.15, Importance: 0.65, QuickWin: 0.05, Blocker: 0.15}, true
	case FastestWins:
		return Weights{Urgency: 0.15, Importance: 0.15, QuickWin: 0.60, Blocker: 0.10}, true
	default:
		return Weights{}, false
	}
}

func describe(n Name) string {
	switch n {
	case SmartBalance:
		return "Balanced default: deadlines first, then importance, with credit for unblocking work"
	case DeadlineDriven:
		return "Whatever is due soonest"
	case HighImpact:
		return "Most important work first"
	case FastestWins:
		return "Smallest tasks first"
	default:
		return ""
	}
}
