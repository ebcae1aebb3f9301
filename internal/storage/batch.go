package storage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	triageerrors "github.com/abatilo/triage/internal/errors"
	"github.com/abatilo/triage/internal/rank"
	"github.com/abatilo/triage/internal/task"
)

// Batch is a decoded analysis request.
type Batch struct {
	Tasks []task.Task
	// Strategy and Today are set when the input is an object carrying them.
	Strategy string
	Today    string
	// Warnings describe values that were ignored while decoding.
	Warnings []string
}

// batchEnvelope is the object form of a batch file.
type batchEnvelope struct {
	Strategy string `yaml:"strategy"`
	Today    string `yaml:"today"`
	Tasks    []any  `yaml:"tasks"`
}

// DecodeBatch decodes a YAML or JSON task batch. The input is either a list
// of task records or an object with a "tasks" list and optional "strategy"
// and "today" keys.
//
// Decoding is tolerant: numeric strings are accepted for numbers, a bad
// "dependencies" value is ignored with a warning, and unusable importance or
// hours values become absent so the scorer applies its defaults. A record
// without an integer id is an error.
func DecodeBatch(data []byte) (*Batch, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "decode task batch")
	}

	var (
		raw   []any
		batch Batch
	)
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	switch doc.Kind {
	case 0:
		// Empty input: an empty batch, rejected later by validation.
	case yaml.SequenceNode:
		if err := doc.Decode(&raw); err != nil {
			return nil, errors.Wrap(err, "decode task list")
		}
	case yaml.MappingNode:
		var env batchEnvelope
		if err := doc.Decode(&env); err != nil {
			return nil, errors.Wrap(err, "decode task batch object")
		}
		raw = env.Tasks
		batch.Strategy = env.Strategy
		batch.Today = env.Today
	default:
		return nil, DecodeError{Index: -1, Msg: "expected a list of tasks or an object with a tasks list"}
	}

	batch.Tasks = make([]task.Task, 0, len(raw))
	for i, item := range raw {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, DecodeError{Index: i, Msg: "expected an object"}
		}
		t, warnings, err := decodeTask(i, fields)
		if err != nil {
			return nil, err
		}
		batch.Tasks = append(batch.Tasks, t)
		batch.Warnings = append(batch.Warnings, warnings...)
	}
	return &batch, nil
}

// RequestOptions resolve the strategy and reference date of a batch.
type RequestOptions struct {
	// Strategy and Today are explicit choices (flags, query parameters)
	// and win over values carried by the batch.
	Strategy string
	Today    string
	// DefaultStrategy applies when neither the caller nor the batch names one.
	DefaultStrategy string
	// Now supplies the reference date when none is given.
	Now time.Time
}

// Request builds the analysis request for the batch. Holidays and fallback
// behaviour are left for the caller to set.
func (b *Batch) Request(opts RequestOptions) (rank.Request, error) {
	name := firstNonEmpty(opts.Strategy, b.Strategy, opts.DefaultStrategy)

	today := task.Day(opts.Now)
	if s := firstNonEmpty(opts.Today, b.Today); s != "" {
		d, err := task.ParseDate(s)
		if err != nil {
			return rank.Request{}, triageerrors.InvalidDateError{Value: s}
		}
		today = d
	}

	return rank.Request{Tasks: b.Tasks, Strategy: name, Today: today}, nil
}

// Annotate puts the batch's decode warnings ahead of the engine's.
func (b *Batch) Annotate(res *rank.Result) {
	if len(b.Warnings) == 0 {
		return
	}
	res.Warnings = append(append([]string(nil), b.Warnings...), res.Warnings...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func decodeTask(index int, fields map[string]any) (task.Task, []string, error) {
	id, ok := toInt(fields["id"])
	if !ok {
		return task.Task{}, nil, triageerrors.MissingIDError{Index: index}
	}

	t := task.Task{ID: id}
	var warnings []string

	if v, ok := fields["title"]; ok && v != nil {
		t.Title = strings.TrimSpace(fmt.Sprint(v))
	}
	switch v := fields["due_date"].(type) {
	case nil:
	case time.Time:
		t.DueDate = v.Format(task.DateLayout)
	default:
		// Invalid dates pass through so the scorer reports them.
		t.DueDate = strings.TrimSpace(fmt.Sprint(v))
	}
	if v, ok := toFloat(fields["estimated_hours"]); ok {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			warnings = append(warnings, fmt.Sprintf("Task %d: estimated_hours %v is not a finite number -> ignored", id, v))
		} else {
			t.EstimatedHours = &v
		}
	}
	if v, ok := toInt(fields["importance"]); ok {
		t.Importance = &v
	}

	switch deps := fields["dependencies"].(type) {
	case nil:
	case []any:
		for _, d := range deps {
			depID, ok := toInt(d)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("Task %d: dependency %v invalid -> ignored", id, d))
				continue
			}
			t.Dependencies = append(t.Dependencies, depID)
		}
	default:
		warnings = append(warnings, fmt.Sprintf("Task %d: dependencies is not a list -> ignored", id))
	}

	return t, warnings, nil
}

// toInt accepts integers, integral floats and numeric strings.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int(n), true
	case float64:
		// Past 2^53 a float64 no longer holds an exact integer.
		if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}

// toFloat accepts any number or numeric string. Infinities and NaN are
// returned as parsed; callers decide whether they are usable.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
