package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abatilo/triage/internal/config"
	"github.com/abatilo/triage/internal/logging"
	"github.com/abatilo/triage/internal/output"
	"github.com/abatilo/triage/internal/rank"
	"github.com/abatilo/triage/internal/storage"
	"github.com/abatilo/triage/internal/task"
)

type analyzeOptions struct {
	strategy string
	today    string
	fallback bool
}

// analyzeCmd implements 'triage analyze'.
func analyzeCmd() *cobra.Command {
	var (
		opts   analyzeOptions
		tree   bool
		noSave bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Score and rank a batch of tasks",
		Long: "Score and rank a batch of tasks read from a YAML or JSON file, or from " +
			"stdin when the file is '-' or omitted. The result is saved for 'triage suggest'.",
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			data, err := readInput(path, cmd.InOrStdin())
			if err != nil {
				printError(err)
			}

			start := time.Now()
			res, req, err := analyzeInput(data, cfg, opts, start)
			if err != nil {
				printError(err)
			}
			metrics.RecordAnalysis(cmd.Context(), string(res.StrategyUsed), len(res.Warnings), time.Since(start))
			logging.Log(cmd.Context(), slog.LevelInfo, "analysis complete",
				"strategy", string(res.StrategyUsed), "tasks", len(res.Tasks),
				"warnings", len(res.Warnings), "cycles", len(res.Cycles))

			if !noSave {
				if err = saveSnapshot(res, req); err != nil {
					printError(err)
				}
			}

			if tree {
				printOutput(formatter.FormatGraph(output.BuildForest(res)))
				return
			}
			printOutput(formatter.FormatResult(res))
		},
	}
	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", "", "Scoring strategy (see 'triage strategies')")
	cmd.Flags().StringVar(&opts.today, "today", "", "Reference date as YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&opts.fallback, "fallback", false, "Use smart_balance for unknown strategy names instead of failing")
	cmd.Flags().BoolVar(&tree, "tree", false, "Show the dependency tree instead of the ranking")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not save the result for 'triage suggest'")
	return cmd
}

// readInput reads the batch from path, or from stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
		path = "stdin"
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, InputFileError{Path: path, Err: err}
	}
	return data, nil
}

// analyzeInput decodes and analyzes one batch. Flags win over values in the
// batch, which win over config.
func analyzeInput(data []byte, c *config.Config, opts analyzeOptions, now time.Time) (*rank.Result, rank.Request, error) {
	batch, err := storage.DecodeBatch(data)
	if err != nil {
		return nil, rank.Request{}, err
	}

	req, err := batch.Request(storage.RequestOptions{
		Strategy:        opts.strategy,
		Today:           opts.today,
		DefaultStrategy: c.Strategy,
		Now:             now,
	})
	if err != nil {
		return nil, rank.Request{}, err
	}
	if req.Holidays, err = c.Calendar(); err != nil {
		return nil, rank.Request{}, err
	}
	req.FallbackToDefault = opts.fallback || c.FallbackEnabled()

	res, err := rank.Analyze(req)
	if err != nil {
		return nil, rank.Request{}, err
	}
	batch.Annotate(res)
	return res, req, nil
}

func saveSnapshot(res *rank.Result, req rank.Request) error {
	store, err := getStore()
	if err != nil {
		return err
	}
	snap := &storage.Snapshot{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Today:       req.Today,
		Fingerprint: task.Fingerprint(req.Tasks, string(res.StrategyUsed), req.Today),
		Result:      *res,
	}
	if err := store.SaveSnapshot(snap); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}
