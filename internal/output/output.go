// Package output renders analysis results for the terminal or as JSON.
package output

import (
	"github.com/abatilo/triage/internal/rank"
	"github.com/abatilo/triage/internal/strategy"
)

// Formatter defines the interface for output formatting.
type Formatter interface {
	FormatResult(res *rank.Result) string
	FormatSuggestions(suggestions []rank.Suggestion) string
	FormatStrategies(strategies []strategy.Strategy) string
	FormatError(err error) string
	FormatMessage(msg string) string
	FormatGraph(nodes []GraphNode) string
}
