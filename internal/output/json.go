package output

import (
	"encoding/json"

	"github.com/abatilo/triage/internal/rank"
	"github.com/abatilo/triage/internal/strategy"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// marshalJSON marshals a value to indented JSON with a trailing newline. A
// value that cannot be encoded yields an error object instead.
func marshalJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		data, _ = json.MarshalIndent(errorJSON{Error: "encode output: " + err.Error()}, "", "  ")
	}
	return string(data) + "\n"
}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// FormatResult formats a ranked result as JSON. Empty lists are emitted as
// [] rather than null.
func (f *JSONFormatter) FormatResult(res *rank.Result) string {
	return marshalJSON(NormalizeResult(res))
}

// NormalizeResult returns a copy of res whose nil slices are empty, so JSON
// encodes them as [].
func NormalizeResult(res *rank.Result) rank.Result {
	out := *res
	if out.Tasks == nil {
		out.Tasks = []rank.ScoredTask{}
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	if out.Cycles == nil {
		out.Cycles = [][]int{}
	}
	tasks := make([]rank.ScoredTask, len(out.Tasks))
	for i, t := range out.Tasks {
		if t.Dependencies == nil {
			t.Dependencies = []int{}
		}
		tasks[i] = t
	}
	out.Tasks = tasks
	return out
}

// suggestionsJSON is the JSON representation of suggestions.
type suggestionsJSON struct {
	Suggestions []rank.Suggestion `json:"suggestions"`
}

// FormatSuggestions formats suggestions as JSON.
func (f *JSONFormatter) FormatSuggestions(suggestions []rank.Suggestion) string {
	if suggestions == nil {
		suggestions = []rank.Suggestion{}
	}
	return marshalJSON(suggestionsJSON{Suggestions: suggestions})
}

// FormatStrategies formats the strategy table as JSON.
func (f *JSONFormatter) FormatStrategies(strategies []strategy.Strategy) string {
	return marshalJSON(strategies)
}

// errorJSON is the JSON representation of an error.
type errorJSON struct {
	Error string `json:"error"`
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(err error) string {
	return marshalJSON(errorJSON{Error: err.Error()})
}

// messageJSON is the JSON representation of a message.
type messageJSON struct {
	Message string `json:"message"`
}

// FormatMessage formats a simple message as JSON.
func (f *JSONFormatter) FormatMessage(msg string) string {
	return marshalJSON(messageJSON{Message: msg})
}

// graphNodeJSON is the JSON representation of a graph node.
type graphNodeJSON struct {
	ID       int             `json:"id"`
	Title    string          `json:"title"`
	Score    float64         `json:"score"`
	Repeated bool            `json:"repeated,omitempty"`
	Children []graphNodeJSON `json:"children,omitempty"`
}

func toGraphNodeJSON(node GraphNode) graphNodeJSON {
	children := make([]graphNodeJSON, len(node.Children))
	for i, c := range node.Children {
		children[i] = toGraphNodeJSON(c)
	}
	return graphNodeJSON{
		ID:       node.Task.ID,
		Title:    node.Task.Title,
		Score:    node.Task.Score,
		Repeated: node.Repeated,
		Children: children,
	}
}

// FormatGraph formats the dependency forest as JSON.
func (f *JSONFormatter) FormatGraph(nodes []GraphNode) string {
	jsonNodes := make([]graphNodeJSON, len(nodes))
	for i, n := range nodes {
		jsonNodes[i] = toGraphNodeJSON(n)
	}
	return marshalJSON(jsonNodes)
}
