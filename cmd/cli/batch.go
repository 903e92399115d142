package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kosarica/network-optimizer/internal/optimizer"
	"github.com/kosarica/network-optimizer/internal/scenario"
)

var (
	batchConcurrency int
	batchKind        string
	batchFailFast    bool
)

type batchResult struct {
	name     string
	kind     string
	result   any
	err      error
	duration time.Duration
}

var batchCmd = &cobra.Command{
	Use:   "batch <scenario...>",
	Short: "Run several scenarios concurrently",
	Long: `Run several scenario files concurrently and print a summary.

Files without a "kind" run as --kind.`,
	Example: `  netopt batch scenarios/*.json --concurrency 4
  netopt batch a.json b.json -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 2, "scenarios run at once")
	batchCmd.Flags().StringVar(&batchKind, "kind", "", "kind for files that do not name one (solve, allocate, locate)")
	batchCmd.Flags().BoolVar(&batchFailFast, "fail-fast", false, "stop scheduling scenarios after the first failure")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchConcurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1")
	}

	svc := optimizer.NewService(optimizerConfig())
	results := make([]batchResult, len(args))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(batchConcurrency)
	for i, path := range args {
		g.Go(func() error {
			r := &results[i]
			r.name = path
			if ctx.Err() != nil {
				r.err = ctx.Err()
				return nil
			}

			started := time.Now()
			defer func() { r.duration = time.Since(started) }()

			sc, err := scenario.Load(path)
			if err != nil {
				r.err = err
				return failFast(err)
			}
			r.name = sc.Name
			if r.kind, err = sc.ResolveKind(batchKind); err != nil {
				r.err = err
				return failFast(err)
			}
			r.result, r.err = sc.Run(ctx, svc, r.kind)
			if r.err != nil {
				logger.Error().Err(r.err).Str("scenario", sc.Name).Msg("Scenario failed")
				return failFast(r.err)
			}
			logger.Info().Str("scenario", sc.Name).Str("kind", r.kind).Msg("Scenario finished")
			return nil
		})
	}
	// per-scenario errors are reported in the summary
	_ = g.Wait()

	return printBatch(results)
}

func failFast(err error) error {
	if batchFailFast {
		return err
	}
	return nil
}

func printBatch(results []batchResult) error {
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
		}
	}

	if outputFormat == "json" {
		type entry struct {
			Name       string `json:"name"`
			Kind       string `json:"kind,omitempty"`
			DurationMs int64  `json:"durationMs"`
			Error      string `json:"error,omitempty"`
			Result     any    `json:"result,omitempty"`
		}
		entries := make([]entry, len(results))
		for i, r := range results {
			entries[i] = entry{Name: r.name, Kind: r.kind, DurationMs: r.duration.Milliseconds(), Result: r.result}
			if r.err != nil {
				entries[i].Error = r.err.Error()
			}
		}
		if err := printResult("batch", entries); err != nil {
			return err
		}
	} else {
		w := newTable()
		fmt.Fprintln(w, "SCENARIO\tKIND\tSTATUS\tDURATION\tDETAIL")
		for _, r := range results {
			status, detail := "ok", summarize(r.result)
			if r.err != nil {
				status, detail = "failed", r.err.Error()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.name, r.kind, status, r.duration.Round(time.Millisecond), detail)
		}
		w.Flush()
		if failed > 0 {
			fmt.Fprintln(out, color.RedString("%d of %d scenarios failed", failed, len(results)))
		} else {
			fmt.Fprintln(out, color.GreenString("All %d scenarios succeeded", len(results)))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d scenarios failed", failed)
	}
	return nil
}

func summarize(result any) string {
	switch r := result.(type) {
	case *optimizer.SolveResponse:
		return fmt.Sprintf("%s, objective %.2f, %d flows", r.Status, r.ObjectiveValue, len(r.Flows))
	case *optimizer.AllocateResponse:
		return fmt.Sprintf("cost %.2f, service %.1f%%", r.CostBreakdown.TotalCost, r.KPIs.ServiceLevel)
	case *optimizer.LocateResponse:
		return fmt.Sprintf("%s, %d DCs, cost %.2f", r.Status, len(r.DCs), r.CostBreakdown.TotalCost)
	default:
		return ""
	}
}
