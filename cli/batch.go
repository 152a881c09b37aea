package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/liamtostring/schegen/benchmark"
	"github.com/liamtostring/schegen/generator"
	"github.com/liamtostring/schegen/ioformats"
)

var (
	batchFlags   genFlags
	batchOutput  string
	batchWorkers int
	batchRate    float64

	compareWorkers int
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Generate graphs for every URL in a CSV or NDJSON file",
	Long: `Reads rows with a url column (CSV) or {"url": ...} objects (NDJSON) and writes
one NDJSON result per row. Results stream to stdout as they finish; with
--output they are written to the file in input order once the run ends.
Failed rows are reported and the run continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

var compareCmd = &cobra.Command{
	Use:   "compare <file>",
	Short: "Compare heuristic and AI generation over a URL list",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompare,
}

func init() {
	batchFlags.register(batchCmd)
	f := batchCmd.Flags()
	f.StringVarP(&batchOutput, "output", "o", "", "NDJSON output file (default stdout)")
	f.IntVarP(&batchWorkers, "workers", "w", 0, "Concurrent pages (default WORKERS)")
	f.Float64Var(&batchRate, "rate", 0, "Pages per second, 0 = unlimited")

	compareCmd.Flags().IntVarP(&compareWorkers, "workers", "w", 0, "Concurrent pages (default WORKERS)")

	rootCmd.AddCommand(batchCmd, compareCmd)
}

func workers(n int) int {
	if n > 0 {
		return n
	}
	return state.cfg.Workers
}

func runBatch(cmd *cobra.Command, args []string) error {
	items, err := ioformats.ReadItems(args[0])
	if err != nil {
		return err
	}
	svc, err := state.generator()
	if err != nil {
		return err
	}
	req, err := batchFlags.request("")
	if err != nil {
		return err
	}
	if req.PageType != "" {
		for i := range items {
			if items[i].PageType == "" {
				items[i].PageType = string(req.PageType)
			}
		}
	}

	// Stdout streams results as they finish. A file gets them in row order.
	var onItem func(generator.BatchItem)
	if batchOutput == "" {
		nd := ioformats.NewNDJSONWriter(cmd.OutOrStdout())
		log := state.log.Component("batch")
		onItem = func(item generator.BatchItem) {
			if err := nd.Write(item); err != nil {
				log.Error().Err(err).Str("url", item.URL).Msg("writing result")
			}
		}
	}

	job, err := svc.Batch(cmd.Context(), items, generator.BatchOptions{
		Workers:   workers(batchWorkers),
		RateLimit: batchRate,
		Mode:      req.Mode,
		Options:   req.Options,
		Fallback:  req.Fallback,
		Verify:    req.Verify,
		OnItem:    onItem,
	})
	if job == nil {
		return err
	}
	s := job.Stats
	fmt.Fprintf(cmd.ErrOrStderr(), "job %s %s: %d processed, %d skipped, %d errors in %s\n",
		job.ID, job.Status, s.PagesProcessed, s.PagesSkipped, s.Errors, s.Duration.Round(time.Millisecond))
	if batchOutput != "" {
		if werr := writeItems(batchOutput, job.Items); werr != nil {
			return errors.Join(err, werr)
		}
	}
	return err
}

func writeItems(path string, items []generator.BatchItem) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ioformats.WriteNDJSON(f, items); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runCompare(cmd *cobra.Command, args []string) error {
	items, err := ioformats.ReadItems(args[0])
	if err != nil {
		return err
	}
	svc, err := state.generator()
	if err != nil {
		return err
	}
	_, err = benchmark.RunComparison(cmd.Context(), svc, items, workers(compareWorkers), cmd.OutOrStdout())
	return err
}
