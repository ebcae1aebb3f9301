//nolint:testpackage // Tests require internal access for thorough testing
package rank

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abatilo/triage/internal/calendar"
	triageerrors "github.com/abatilo/triage/internal/errors"
	"github.com/abatilo/triage/internal/normalize"
	"github.com/abatilo/triage/internal/score"
	"github.com/abatilo/triage/internal/strategy"
	"github.com/abatilo/triage/internal/task"
)

//nolint:gochecknoglobals // fixed analysis date shared by tests
var today = time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC) // a Wednesday

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func makeTask(id int, title, due string, importance int, deps ...int) task.Task {
	return task.Task{
		ID:             id,
		Title:          title,
		DueDate:        due,
		EstimatedHours: floatPtr(4),
		Importance:     intPtr(importance),
		Dependencies:   deps,
	}
}

func analyze(t *testing.T, strategyName string, tasks ...task.Task) *Result {
	t.Helper()
	res, err := Analyze(Request{Tasks: tasks, Strategy: strategyName, Today: today})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return res
}

func byID(res *Result) map[int]ScoredTask {
	m := make(map[int]ScoredTask, len(res.Tasks))
	for _, st := range res.Tasks {
		m[st.ID] = st
	}
	return m
}

func position(res *Result, id int) int {
	for i, st := range res.Tasks {
		if st.ID == id {
			return i
		}
	}
	return -1
}

func TestOverduePair(t *testing.T) {
	res := analyze(t, "smart_balance",
		makeTask(2, "Due today", "2025-11-05", 5),
		makeTask(1, "Due yesterday", "2025-11-04", 5),
	)

	if res.Tasks[0].ID != 1 {
		t.Fatalf("expected overdue task first, got order %d, %d", res.Tasks[0].ID, res.Tasks[1].ID)
	}
	tasks := byID(res)
	if tasks[1].Signals.Urgency != 1.0 {
		t.Errorf("overdue urgency = %v, want exactly 1.0", tasks[1].Signals.Urgency)
	}
	if u := tasks[2].Signals.Urgency; u >= 1.0 || u < 0.9 {
		t.Errorf("due-today urgency = %v, want near but below 1.0", u)
	}
}

func TestHiddenBlocker(t *testing.T) {
	const due = "2025-11-20"
	tasks := []task.Task{
		makeTask(1, "Schema migration", due, 2),
		makeTask(2, "Polish landing page", due, 8),
	}
	for id := 3; id <= 7; id++ {
		tasks = append(tasks, makeTask(id, "Blocked work", due, 5, 1))
	}

	res := analyze(t, "smart_balance", tasks...)
	if a, b := position(res, 1), position(res, 2); a > b {
		t.Errorf("blocker task ranked %d, important task ranked %d; want blocker first", a, b)
	}
	got := byID(res)
	if got[1].Dependents != 5 || got[1].Signals.Blocker != 1.0 {
		t.Errorf("blocker task dependents = %d (B=%v), want 5 (1.0)", got[1].Dependents, got[1].Signals.Blocker)
	}
	if got[2].Signals.Blocker != 0 {
		t.Errorf("non-blocking task B = %v, want 0", got[2].Signals.Blocker)
	}
}

func TestUnresolvableReference(t *testing.T) {
	res := analyze(t, "smart_balance",
		makeTask(1, "A", "2025-11-10", 5, 999),
		makeTask(2, "B", "2025-11-10", 5),
	)

	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "Task 1") && strings.Contains(w, "999") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings %v do not name the dropped edge", res.Warnings)
	}
	a := byID(res)[1]
	if len(a.Dependencies) != 0 {
		t.Errorf("Dependencies = %v, want dropped edge removed", a.Dependencies)
	}
	if len(res.Cycles) != 0 {
		t.Errorf("Cycles = %v, want none", res.Cycles)
	}
}

func TestTwoTaskCyclePenalty(t *testing.T) {
	res := analyze(t, "smart_balance",
		makeTask(1, "A", "2025-11-12", 6, 2),
		makeTask(2, "B", "2025-11-14", 4, 1),
		makeTask(3, "C", "2025-11-14", 4),
	)

	if !reflect.DeepEqual(res.Cycles, [][]int{{1, 2}}) {
		t.Fatalf("Cycles = %v, want [[1 2]]", res.Cycles)
	}
	_, w, _ := strategy.Lookup("smart_balance")
	for _, st := range res.Tasks {
		raw := score.Raw(w, st.Signals)
		switch st.ID {
		case 1, 2:
			if !st.InCycle {
				t.Errorf("task %d should be flagged in cycle", st.ID)
			}
			if math.Abs(st.Score-raw*0.85) > 0.01 {
				t.Errorf("task %d score = %v, want 0.85 x %v", st.ID, st.Score, raw)
			}
			if !strings.Contains(st.Explanation, "cycle penalty") {
				t.Errorf("task %d explanation %q does not mention the penalty", st.ID, st.Explanation)
			}
		case 3:
			if st.InCycle || math.Abs(st.Score-raw) > 0.01 {
				t.Errorf("task 3 should be unpenalized: score %v raw %v", st.Score, raw)
			}
		}
	}
	if res.Warnings[len(res.Warnings)-1] != CycleWarning {
		t.Errorf("last warning = %q, want cycle summary", res.Warnings[len(res.Warnings)-1])
	}
}

func TestMissingImportanceDefaults(t *testing.T) {
	tk := makeTask(9, "No rating", "2025-11-10", 0)
	tk.Importance = nil
	res := analyze(t, "high_impact", tk)

	st := res.Tasks[0]
	if st.Importance != normalize.DefaultImportance {
		t.Errorf("Importance = %d, want %d", st.Importance, normalize.DefaultImportance)
	}
	if math.Abs(st.Signals.Importance-4.0/9.0) > 1e-12 {
		t.Errorf("I = %v, want 4/9", st.Signals.Importance)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "Task 9: importance missing") {
		t.Errorf("Warnings = %v, want one importance warning for task 9", res.Warnings)
	}
}

func TestSingleTaskHasNoBlockerSignal(t *testing.T) {
	res := analyze(t, "smart_balance", makeTask(1, "Solo", "2025-11-10", 5))
	if b := res.Tasks[0].Signals.Blocker; b != 0 {
		t.Errorf("B = %v, want 0", b)
	}
}

func TestTiesBreakByAscendingID(t *testing.T) {
	res := analyze(t, "smart_balance",
		makeTask(30, "Same", "2025-11-10", 5),
		makeTask(4, "Same", "2025-11-10", 5),
		makeTask(17, "Same", "2025-11-10", 5),
	)
	var ids []int
	for _, st := range res.Tasks {
		ids = append(ids, st.ID)
	}
	if !reflect.DeepEqual(ids, []int{4, 17, 30}) {
		t.Errorf("order = %v, want [4 17 30]", ids)
	}
}

func TestSignalsAndScoresInRange(t *testing.T) {
	tasks := []task.Task{
		{ID: 1, Title: "bare"},
		{ID: 2, Title: "far", DueDate: "2031-01-01", EstimatedHours: floatPtr(500), Importance: intPtr(1)},
		{ID: 3, Title: "overdue", DueDate: "2020-01-01", EstimatedHours: floatPtr(0), Importance: intPtr(99)},
		{ID: 4, Title: "garbage", DueDate: "someday", EstimatedHours: floatPtr(-3), Importance: intPtr(-1), Dependencies: []int{1, 2, 3, 4}},
		{ID: 5, Title: "loop", Dependencies: []int{4}},
	}
	for _, s := range strategy.All() {
		t.Run(string(s.Name), func(t *testing.T) {
			res := analyze(t, string(s.Name), tasks...)
			for _, st := range res.Tasks {
				for _, v := range []float64{st.Signals.Urgency, st.Signals.Importance, st.Signals.QuickWin, st.Signals.Blocker} {
					if v < 0 || v > 1 {
						t.Errorf("task %d has signal %v out of [0,1]", st.ID, v)
					}
				}
				if st.Score < 0 || st.Score > 100 {
					t.Errorf("task %d score %v out of [0,100]", st.ID, st.Score)
				}
			}
		})
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	tasks := []task.Task{
		makeTask(1, "A", "2025-11-04", 7, 2, 404),
		makeTask(2, "B", "", 3, 1),
		makeTask(3, "C", "2025-12-01", 9, 1),
	}
	req := Request{Tasks: tasks, Strategy: "deadline_driven", Today: today}

	first, err := Analyze(req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Analyze(req)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("repeated analyses differ:\n%s\n%s", a, b)
	}
}

func TestAnalyzeConcurrently(t *testing.T) {
	req := Request{
		Tasks: []task.Task{
			makeTask(1, "A", "2025-11-04", 7, 2),
			makeTask(2, "B", "2025-11-06", 3),
			makeTask(3, "C", "2025-11-07", 5, 1, 2),
		},
		Today: today,
	}
	want, err := Analyze(req)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	results := make([]*Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Analyze(req)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if !reflect.DeepEqual(got, want) {
			t.Errorf("concurrent result %d differs", i)
		}
	}
}

func TestHolidaysRaiseUrgency(t *testing.T) {
	holidays := calendar.NewHolidays(nil, []calendar.MonthDay{{Month: time.October, Day: 2}})

	withHoliday, err := Analyze(Request{
		Tasks:    []task.Task{makeTask(1, "Holiday crunch", "2025-10-03", 5)},
		Today:    time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		Holidays: holidays,
	})
	if err != nil {
		t.Fatal(err)
	}
	normal, err := Analyze(Request{
		Tasks:    []task.Task{makeTask(2, "Normal week", "2025-11-07", 5)},
		Today:    today,
		Holidays: holidays,
	})
	if err != nil {
		t.Fatal(err)
	}
	if withHoliday.Tasks[0].Score <= normal.Tasks[0].Score {
		t.Errorf("holiday task score %v should exceed normal task score %v",
			withHoliday.Tasks[0].Score, normal.Tasks[0].Score)
	}
}

func TestAnalyzeInputErrors(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		check func(error) bool
	}{
		{
			name: "empty batch",
			req:  Request{Today: today},
			check: func(err error) bool {
				var target triageerrors.EmptyBatchError
				return errors.As(err, &target)
			},
		},
		{
			name: "duplicate ids",
			req:  Request{Today: today, Tasks: []task.Task{{ID: 1, Title: "a"}, {ID: 1, Title: "b"}}},
			check: func(err error) bool {
				var target triageerrors.DuplicateIDError
				return errors.As(err, &target) && target.ID == 1
			},
		},
		{
			name: "blank title",
			req:  Request{Today: today, Tasks: []task.Task{{ID: 1, Title: "  "}}},
			check: func(err error) bool {
				var target triageerrors.MissingTitleError
				return errors.As(err, &target)
			},
		},
		{
			name: "unknown strategy",
			req:  Request{Today: today, Strategy: "yolo", Tasks: []task.Task{{ID: 1, Title: "a"}}},
			check: func(err error) bool {
				var target triageerrors.UnknownStrategyError
				return errors.As(err, &target)
			},
		},
		{
			name: "missing date",
			req:  Request{Tasks: []task.Task{{ID: 1, Title: "a"}}},
			check: func(err error) bool {
				var target triageerrors.InvalidDateError
				return errors.As(err, &target)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Analyze(tt.req)
			if res != nil {
				t.Errorf("expected no result, got %+v", res)
			}
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
			if !triageerrors.IsInputError(err) {
				t.Errorf("IsInputError(%v) = false", err)
			}
		})
	}
}

func TestAnalyzeStrategyFallback(t *testing.T) {
	res, err := Analyze(Request{
		Tasks:             []task.Task{makeTask(1, "A", "2025-11-10", 5)},
		Strategy:          "yolo",
		Today:             today,
		FallbackToDefault: true,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if res.StrategyUsed != strategy.SmartBalance {
		t.Errorf("StrategyUsed = %q, want smart_balance", res.StrategyUsed)
	}
	if len(res.Warnings) == 0 || !strings.Contains(res.Warnings[0], `unknown strategy "yolo"`) {
		t.Errorf("Warnings = %v, want fallback notice first", res.Warnings)
	}
}

func TestAnalyzeReportsCanonicalStrategy(t *testing.T) {
	res := analyze(t, " Fastest_Wins ", makeTask(1, "A", "2025-11-10", 5))
	if res.StrategyUsed != strategy.FastestWins {
		t.Errorf("StrategyUsed = %q, want fastest_wins", res.StrategyUsed)
	}
	if !strings.Contains(res.Tasks[0].Explanation, "strategy=fastest_wins") {
		t.Errorf("Explanation = %q", res.Tasks[0].Explanation)
	}
}
