package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/liamtostring/schegen/crawler"
	"github.com/liamtostring/schegen/ioformats"
	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/utils"
)

const DefaultWorkers = 4

type BatchOptions struct {
	Workers   int
	RateLimit float64 // pages per second, 0 = unlimited
	Mode      Mode
	Options   models.Options
	Fallback  bool
	Verify    bool
	// OnItem is called from a single goroutine as items finish.
	OnItem func(BatchItem)
}

// BatchItem is the outcome for one input row.
type BatchItem struct {
	Index    int             `json:"index"`
	URL      string          `json:"url"`
	Slug     string          `json:"slug,omitempty"`
	PageType models.PageType `json:"pageType,omitempty"`
	Mode     Mode            `json:"mode,omitempty"`
	Entities int             `json:"entities"`
	Valid    bool            `json:"valid"`
	Issues   int             `json:"issues"`
	Skipped  bool            `json:"skipped,omitempty"`
	Error    string          `json:"error,omitempty"`
	Graph    json.RawMessage `json:"graph,omitempty"`
	Result   *Result         `json:"-"`
}

func (b BatchItem) outcome() string {
	switch {
	case b.Skipped:
		return "skipped"
	case b.Error != "":
		return "error"
	}
	return "ok"
}

type batchTask struct {
	index int
	item  ioformats.Item
}

// Batch generates graphs for items with a bounded worker pool. A failing
// item is recorded and the run continues. Repeated URLs and pages whose
// body was already seen are skipped. Progress is saved to the job store
// after every item. The returned error is non-nil only when ctx ends the
// run early.
func (s *Service) Batch(ctx context.Context, items []ioformats.Item, opts BatchOptions) (*Job, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	start := time.Now()
	job := newJob(len(items))
	record := func(item BatchItem) {
		job.Items = append(job.Items, item)
		switch item.outcome() {
		case "skipped":
			job.Stats.PagesSkipped++
		case "error":
			job.Stats.Errors++
			s.log.Warn().Str("url", item.URL).Str("error", item.Error).Msg("batch item failed")
		default:
			job.Stats.PagesProcessed++
		}
		job.Stats.Duration = time.Since(start)
		s.metrics.RecordBatchItem(item.outcome())
		if opts.OnItem != nil {
			opts.OnItem(item)
		}
		if err := s.jobs.Save(ctx, job); err != nil {
			s.log.Warn().Err(err).Str("job", job.ID).Msg("failed to save batch progress")
		}
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, err
	}
	s.log.Info().Str("job", job.ID).Int("items", len(items)).Int("workers", workers).Msg("batch started")

	var tasks []batchTask
	seen := make(map[string]int)
	for i, it := range items {
		key := utils.NormalizeURL(it.URL)
		if first, ok := seen[key]; ok {
			record(BatchItem{Index: i, URL: it.URL, Slug: it.Slug, Skipped: true,
				Error: fmt.Sprintf("duplicate of row %d", first)})
			continue
		}
		seen[key] = i
		tasks = append(tasks, batchTask{index: i, item: it})
	}

	dupes := crawler.NewDuplicateDetector()
	queue := make(chan batchTask)
	results := make(chan BatchItem)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go s.batchWorker(ctx, &wg, limiter, dupes, opts, queue, results)
	}
	go func() {
		defer close(queue)
		for _, t := range tasks {
			select {
			case queue <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	for item := range results {
		record(item)
	}

	sort.Slice(job.Items, func(i, j int) bool { return job.Items[i].Index < job.Items[j].Index })
	job.Status = JobCompleted
	if ctx.Err() != nil {
		job.Status = JobCancelled
	}
	job.FinishedAt = time.Now().UTC()
	job.Stats.Duration = time.Since(start)
	if err := s.jobs.Save(context.WithoutCancel(ctx), job); err != nil {
		s.log.Warn().Err(err).Str("job", job.ID).Msg("failed to save batch result")
	}
	s.log.Info().
		Str("job", job.ID).
		Str("status", string(job.Status)).
		Int("processed", job.Stats.PagesProcessed).
		Int("skipped", job.Stats.PagesSkipped).
		Int("errors", job.Stats.Errors).
		Dur("duration_ms", job.Stats.Duration).
		Msg("batch finished")
	return job, ctx.Err()
}

func (s *Service) batchWorker(ctx context.Context, wg *sync.WaitGroup, limiter *rate.Limiter, dupes *crawler.DuplicateDetector, opts BatchOptions, queue <-chan batchTask, results chan<- BatchItem) {
	defer wg.Done()
	for t := range queue {
		results <- s.batchItem(ctx, limiter, dupes, opts, t)
	}
}

func (s *Service) batchItem(ctx context.Context, limiter *rate.Limiter, dupes *crawler.DuplicateDetector, opts BatchOptions, t batchTask) BatchItem {
	item := BatchItem{Index: t.index, URL: t.item.URL, Slug: t.item.Slug}

	req := Request{URL: t.item.URL, Mode: opts.Mode, Options: opts.Options, Fallback: opts.Fallback, Verify: opts.Verify}
	if t.item.PageType != "" {
		pt, ok := models.ParsePageType(t.item.PageType)
		if !ok {
			item.Error = fmt.Errorf("%w: page type %q", models.ErrUnsupportedType, t.item.PageType).Error()
			return item
		}
		req.PageType = pt
	}

	if err := limiter.Wait(ctx); err != nil {
		item.Error = err.Error()
		return item
	}

	res, err := s.generate(ctx, req, dupes)
	if errors.Is(err, ErrDuplicateContent) {
		item.Skipped = true
		item.Error = err.Error()
		return item
	}
	if err != nil {
		item.Error = err.Error()
		return item
	}

	item.Result = res
	item.PageType = res.PageType
	item.Mode = res.Mode
	item.Entities = len(res.Graph.Entities)
	item.Valid = res.Report.Valid()
	item.Issues = len(res.Report.Issues)
	if data, err := json.Marshal(res.Graph); err == nil {
		item.Graph = data
	}
	return item
}
