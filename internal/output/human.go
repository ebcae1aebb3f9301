package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abatilo/triage/internal/rank"
	"github.com/abatilo/triage/internal/strategy"
)

const titleWidth = 40

// HumanFormatter formats output for human-readable terminal display.
type HumanFormatter struct{}

// NewHumanFormatter creates a new HumanFormatter.
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// FormatResult formats a ranked result as a table followed by cycles and
// warnings.
func (f *HumanFormatter) FormatResult(res *rank.Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Strategy: %s\n\n", res.StrategyUsed)
	if len(res.Tasks) == 0 {
		sb.WriteString("No tasks found.\n")
		return sb.String()
	}

	tbl := newTable(&sb, "RANK", "ID", "SCORE", "TITLE", "DUE", "IMP", "HOURS", "BLOCKS", "DEPENDS ON")
	tbl.setMaxWidth(3, titleWidth)
	for i, t := range res.Tasks {
		title := t.Title
		if t.InCycle {
			title = "(cycle) " + title
		}
		tbl.addRow(
			strconv.Itoa(i+1),
			strconv.Itoa(t.ID),
			fmt.Sprintf("%.2f", t.Score),
			title,
			f.due(t),
			strconv.Itoa(t.Importance),
			f.hours(t),
			strconv.Itoa(t.Dependents),
			f.ids(t.Dependencies),
		)
	}
	//nolint:errcheck // writes to a strings.Builder cannot fail
	tbl.flush()

	if len(res.Cycles) > 0 {
		sb.WriteString("\nCycles:\n")
		for _, c := range res.Cycles {
			fmt.Fprintf(&sb, "  %s -> %d\n", f.path(c), c[0])
		}
	}
	if len(res.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", w)
		}
	}
	return sb.String()
}

// FormatSuggestions formats the top tasks with their reasons.
func (f *HumanFormatter) FormatSuggestions(suggestions []rank.Suggestion) string {
	if len(suggestions) == 0 {
		return "No suggestions.\n"
	}

	var sb strings.Builder
	for i, s := range suggestions {
		fmt.Fprintf(&sb, "%d. [%d] %s\n", i+1, s.ID, s.Title)
		fmt.Fprintf(&sb, "   %s\n", s.Reason)
	}
	return sb.String()
}

// FormatStrategies formats the strategy table.
func (f *HumanFormatter) FormatStrategies(strategies []strategy.Strategy) string {
	var sb strings.Builder
	tbl := newTable(&sb, "NAME", "URGENCY", "IMPORTANCE", "QUICK WIN", "BLOCKER", "DESCRIPTION")
	for _, s := range strategies {
		tbl.addRow(
			string(s.Name),
			f.weight(s.Weights.Urgency),
			f.weight(s.Weights.Importance),
			f.weight(s.Weights.QuickWin),
			f.weight(s.Weights.Blocker),
			s.Description,
		)
	}
	//nolint:errcheck // writes to a strings.Builder cannot fail
	tbl.flush()
	return sb.String()
}

// FormatError formats an error for display.
func (f *HumanFormatter) FormatError(err error) string {
	return fmt.Sprintf("Error: %s\n", err.Error())
}

// FormatMessage formats a simple message.
func (f *HumanFormatter) FormatMessage(msg string) string {
	return msg + "\n"
}

// FormatGraph formats the dependency forest as ASCII art. Children are
// prerequisites of their parent.
func (f *HumanFormatter) FormatGraph(nodes []GraphNode) string {
	if len(nodes) == 0 {
		return "No tasks found.\n"
	}

	var sb strings.Builder
	for _, node := range nodes {
		f.formatGraphNode(&sb, node, "", true, true)
	}
	return sb.String()
}

func (f *HumanFormatter) formatGraphNode(sb *strings.Builder, node GraphNode, prefix string, isLast, isRoot bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}
	if isRoot {
		connector = ""
	}

	suffix := ""
	if node.Repeated {
		suffix = " (see above)"
	}
	fmt.Fprintf(sb, "%s%s[%d] %s (%.2f)%s\n", prefix, connector, node.Task.ID, node.Task.Title, node.Task.Score, suffix)

	childPrefix := prefix
	if !isRoot {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}

	for i, child := range node.Children {
		f.formatGraphNode(sb, child, childPrefix, i == len(node.Children)-1, false)
	}
}

func (f *HumanFormatter) due(t rank.ScoredTask) string {
	if t.DueDate == "" {
		return "-"
	}
	if t.WorkingDays == nil {
		return t.DueDate + " (invalid)"
	}
	return fmt.Sprintf("%s (%+d)", t.DueDate, *t.WorkingDays)
}

func (f *HumanFormatter) hours(t rank.ScoredTask) string {
	if t.EstimatedHours == nil {
		return "-"
	}
	return strconv.FormatFloat(*t.EstimatedHours, 'f', -1, 64)
}

func (f *HumanFormatter) ids(ids []int) string {
	if len(ids) == 0 {
		return "-"
	}
	return f.join(ids, ", ")
}

func (f *HumanFormatter) path(ids []int) string {
	return f.join(ids, " -> ")
}

func (f *HumanFormatter) join(ids []int, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, sep)
}

func (f *HumanFormatter) weight(w float64) string {
	return fmt.Sprintf("%.0f%%", w*100)
}
