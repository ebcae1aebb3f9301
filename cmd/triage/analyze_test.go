package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abatilo/triage/internal/config"
	triageerrors "github.com/abatilo/triage/internal/errors"
)

var testNow = time.Date(2025, 11, 5, 14, 0, 0, 0, time.UTC)

const batchYAML = `strategy: high_impact
tasks:
  - id: 1
    title: Patch prod
    due_date: 2025-11-04
    importance: 9
  - id: 2
    title: Write docs
    dependencies: None
`

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	if err := os.WriteFile(path, []byte(batchYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	data, err := readInput(path, nil)
	if err != nil || string(data) != batchYAML {
		t.Errorf("readInput(file) = %q, %v", data, err)
	}

	data, err = readInput("-", strings.NewReader("[]"))
	if err != nil || string(data) != "[]" {
		t.Errorf("readInput(stdin) = %q, %v", data, err)
	}

	_, err = readInput(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	var inputErr InputFileError
	if !errors.As(err, &inputErr) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want InputFileError wrapping ErrNotExist", err)
	}
}

func TestAnalyzeInput(t *testing.T) {
	c := config.Default()

	res, req, err := analyzeInput([]byte(batchYAML), c, analyzeOptions{}, testNow)
	if err != nil {
		t.Fatalf("analyzeInput failed: %v", err)
	}
	if res.StrategyUsed != "high_impact" {
		t.Errorf("StrategyUsed = %s, want the batch's high_impact", res.StrategyUsed)
	}
	if got := req.Today.Format(time.DateOnly); got != "2025-11-05" {
		t.Errorf("Today = %s, want 2025-11-05", got)
	}
	if res.Tasks[0].ID != 1 {
		t.Errorf("first task = %d, want 1", res.Tasks[0].ID)
	}
	if len(res.Warnings) == 0 || res.Warnings[0] != "Task 2: dependencies is not a list -> ignored" {
		t.Errorf("decode warning should come first: %v", res.Warnings)
	}
}

func TestAnalyzeInputFlagsWin(t *testing.T) {
	c := config.Default()
	c.Strategy = "fastest_wins"

	res, req, err := analyzeInput([]byte(batchYAML), c,
		analyzeOptions{strategy: "deadline_driven", today: "2025-10-01"}, testNow)
	if err != nil {
		t.Fatalf("analyzeInput failed: %v", err)
	}
	if res.StrategyUsed != "deadline_driven" {
		t.Errorf("StrategyUsed = %s, want deadline_driven", res.StrategyUsed)
	}
	if got := req.Today.Format(time.DateOnly); got != "2025-10-01" {
		t.Errorf("Today = %s, want 2025-10-01", got)
	}
}

func TestAnalyzeInputErrors(t *testing.T) {
	c := config.Default()

	_, _, err := analyzeInput([]byte(batchYAML), c, analyzeOptions{strategy: "random"}, testNow)
	var unknown triageerrors.UnknownStrategyError
	if !errors.As(err, &unknown) {
		t.Errorf("error = %v, want UnknownStrategyError", err)
	}

	res, _, err := analyzeInput([]byte(batchYAML), c, analyzeOptions{strategy: "random", fallback: true}, testNow)
	if err != nil {
		t.Fatalf("fallback analyze failed: %v", err)
	}
	if res.StrategyUsed != "smart_balance" {
		t.Errorf("StrategyUsed = %s, want smart_balance", res.StrategyUsed)
	}

	if _, _, err = analyzeInput([]byte("[]"), c, analyzeOptions{}, testNow); !triageerrors.IsInputError(err) {
		t.Errorf("empty batch error = %v, want input error", err)
	}

	c.Holidays.Recurring = []string{"99-99"}
	if _, _, err = analyzeInput([]byte(batchYAML), c, analyzeOptions{}, testNow); err == nil {
		t.Error("invalid holiday config should fail")
	}
}
