// Package benchmark compares heuristic and AI schema generation over the
// same URL list.
package benchmark

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/liamtostring/schegen/generator"
	"github.com/liamtostring/schegen/ioformats"
	"github.com/liamtostring/schegen/models"
)

// RunStats summarises one batch run.
type RunStats struct {
	Mode        generator.Mode    `json:"mode"`
	Batch       models.BatchStats `json:"batch"`
	ValidGraphs int               `json:"validGraphs"`
	Entities    int               `json:"entities"`
	Issues      int               `json:"issues"`
	TotalSize   int64             `json:"totalSize"`

	types map[string]string
}

// Comparison holds both runs and how often they agree.
type Comparison struct {
	Heuristic *RunStats `json:"heuristic"`
	AI        *RunStats `json:"ai"`
	Compared  int       `json:"compared"`
	Agreeing  int       `json:"agreeing"`
}

// RunComparison runs the batch once per mode and prints the comparison
// table to w.
func RunComparison(ctx context.Context, svc *generator.Service, items []ioformats.Item, workers int, w io.Writer) (*Comparison, error) {
	if !svc.HasAI() {
		return nil, fmt.Errorf("comparison needs a generative model: %w", models.ErrLLMUnavailable)
	}

	fmt.Fprintln(w, "🚀 Starting Schema Generation Benchmark")
	fmt.Fprintln(w, "=======================================")
	fmt.Fprintf(w, "URLs: %d\n", len(items))
	fmt.Fprintf(w, "Workers: %d\n", workers)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📊 Running Heuristic Generator...")
	heuristic, err := runBenchmark(ctx, svc, items, workers, generator.ModeHeuristic)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(w, "🧠 Running AI Generator...")
	aiStats, err := runBenchmark(ctx, svc, items, workers, generator.ModeAI)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{Heuristic: heuristic, AI: aiStats}
	for url, types := range heuristic.types {
		other, ok := aiStats.types[url]
		if !ok {
			continue
		}
		cmp.Compared++
		if types == other {
			cmp.Agreeing++
		}
	}

	displayComparison(w, cmp)
	return cmp, nil
}

func runBenchmark(ctx context.Context, svc *generator.Service, items []ioformats.Item, workers int, mode generator.Mode) (*RunStats, error) {
	stats := &RunStats{Mode: mode, types: make(map[string]string)}
	job, err := svc.Batch(ctx, items, generator.BatchOptions{Workers: workers, Mode: mode})
	if err != nil {
		return nil, err
	}

	stats.Batch = job.Stats
	for _, item := range job.Items {
		if item.Result == nil {
			continue
		}
		if item.Valid {
			stats.ValidGraphs++
		}
		stats.Entities += item.Entities
		stats.Issues += item.Issues
		stats.TotalSize += int64(len(item.Graph))
		stats.types[item.URL] = entityTypes(item.Result)
	}
	return stats, nil
}

// entityTypes is the sorted @type list of a result's graph.
func entityTypes(res *generator.Result) string {
	var types []string
	for _, e := range res.Graph.Entities {
		types = append(types, e.SchemaType())
	}
	sort.Strings(types)
	return strings.Join(types, ",")
}

func displayComparison(w io.Writer, cmp *Comparison) {
	heuristic, ai := cmp.Heuristic, cmp.AI

	fmt.Fprintln(w, "\n📈 Generation Comparison Results")
	fmt.Fprintln(w, "================================")

	fmt.Fprintf(w, "%-20s %-15s %-15s %-15s\n", "Metric", "Heuristic", "AI", "Difference")
	fmt.Fprintln(w, strings.Repeat("-", 65))

	fmt.Fprintf(w, "%-20s %-15d %-15d %-15s\n", "Pages Processed", heuristic.Batch.PagesProcessed, ai.Batch.PagesProcessed,
		calculateImprovement(heuristic.Batch.PagesProcessed, ai.Batch.PagesProcessed))
	fmt.Fprintf(w, "%-20s %-15d %-15d %-15s\n", "Pages Skipped", heuristic.Batch.PagesSkipped, ai.Batch.PagesSkipped, "N/A")
	fmt.Fprintf(w, "%-20s %-15d %-15d %-15s\n", "Errors", heuristic.Batch.Errors, ai.Batch.Errors,
		calculateImprovementReverse(heuristic.Batch.Errors, ai.Batch.Errors))
	fmt.Fprintf(w, "%-20s %-15d %-15d %-15s\n", "Valid Graphs", heuristic.ValidGraphs, ai.ValidGraphs,
		calculateImprovement(heuristic.ValidGraphs, ai.ValidGraphs))
	fmt.Fprintf(w, "%-20s %-15d %-15d %-15s\n", "Entities", heuristic.Entities, ai.Entities,
		calculateImprovement(heuristic.Entities, ai.Entities))
	fmt.Fprintf(w, "%-20s %-15d %-15d %-15s\n", "Issues", heuristic.Issues, ai.Issues,
		calculateImprovementReverse(heuristic.Issues, ai.Issues))
	fmt.Fprintf(w, "%-20s %-15s %-15s %-15s\n", "Duration", heuristic.Batch.Duration.Round(time.Millisecond), ai.Batch.Duration.Round(time.Millisecond),
		calculateDurationImprovement(heuristic.Batch.Duration, ai.Batch.Duration))
	fmt.Fprintf(w, "%-20s %-15s %-15s %-15s\n", "Total Size", formatBytes(heuristic.TotalSize), formatBytes(ai.TotalSize),
		calculateImprovement(int(heuristic.TotalSize), int(ai.TotalSize)))

	fmt.Fprintln(w, "\n🎯 Efficiency Metrics")
	fmt.Fprintln(w, "====================")

	if heuristic.Batch.Duration > 0 && ai.Batch.Duration > 0 {
		heuristicRate := float64(heuristic.Batch.PagesProcessed) / heuristic.Batch.Duration.Seconds()
		aiRate := float64(ai.Batch.PagesProcessed) / ai.Batch.Duration.Seconds()

		fmt.Fprintf(w, "Heuristic Rate: %.2f pages/second\n", heuristicRate)
		fmt.Fprintf(w, "AI Rate: %.2f pages/second\n", aiRate)
	}
	if cmp.Compared > 0 {
		fmt.Fprintf(w, "Entity Type Agreement: %d/%d pages (%.1f%%)\n", cmp.Agreeing, cmp.Compared,
			float64(cmp.Agreeing)/float64(cmp.Compared)*100)
	}
}

func calculateImprovement(heuristic, ai int) string {
	if heuristic == 0 {
		return "N/A"
	}

	improvement := ((float64(ai) - float64(heuristic)) / float64(heuristic)) * 100
	if improvement > 0 {
		return fmt.Sprintf("+%.1f%%", improvement)
	} else if improvement < 0 {
		return fmt.Sprintf("%.1f%%", improvement)
	}
	return "0%"
}

func calculateImprovementReverse(heuristic, ai int) string {
	if heuristic == 0 {
		return "N/A"
	}

	improvement := ((float64(heuristic) - float64(ai)) / float64(heuristic)) * 100
	if improvement > 0 {
		return fmt.Sprintf("+%.1f%%", improvement)
	} else if improvement < 0 {
		return fmt.Sprintf("%.1f%%", improvement)
	}
	return "0%"
}

func calculateDurationImprovement(heuristic, ai time.Duration) string {
	if heuristic == 0 {
		return "N/A"
	}

	improvement := ((heuristic.Seconds() - ai.Seconds()) / heuristic.Seconds()) * 100
	if improvement > 0 {
		return fmt.Sprintf("+%.1f%%", improvement)
	} else if improvement < 0 {
		return fmt.Sprintf("%.1f%%", improvement)
	}
	return "0%"
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
