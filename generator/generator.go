// Package generator runs the fetch, classify and compose pipeline for one
// URL or a batch of URLs.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/liamtostring/schegen/ai"
	"github.com/liamtostring/schegen/classifier"
	"github.com/liamtostring/schegen/crawler"
	"github.com/liamtostring/schegen/logger"
	"github.com/liamtostring/schegen/metrics"
	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/schema"
	"github.com/liamtostring/schegen/utils"
)

// ErrDuplicateContent marks a batch page whose body was already processed.
var ErrDuplicateContent = errors.New("duplicate content")

type Mode string

const (
	ModeHeuristic Mode = "heuristic"
	ModeAI        Mode = "ai"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeHeuristic:
		return ModeHeuristic, nil
	case ModeAI:
		return ModeAI, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", models.ErrInvalidInput, s)
}

type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*crawler.Page, error)
}

type OrgSource interface {
	Detect(ctx context.Context, pageURL string) (models.OrgInfo, error)
}

// Deps wires a Service. Fetcher is required; the rest have defaults.
type Deps struct {
	Fetcher    PageFetcher
	Extractor  *crawler.Extractor
	Orgs       OrgSource
	Profile    *models.OrgInfo // fixed organization, skips detection
	Classifier *classifier.Classifier
	AI         *ai.SchemaGenerator
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
	Jobs       JobStore
}

type Service struct {
	fetcher    PageFetcher
	extractor  *crawler.Extractor
	orgs       OrgSource
	profile    *models.OrgInfo
	classifier *classifier.Classifier
	ai         *ai.SchemaGenerator
	log        *logger.Logger
	metrics    *metrics.Metrics
	jobs       JobStore
}

func New(d Deps) *Service {
	s := &Service{
		fetcher:    d.Fetcher,
		extractor:  d.Extractor,
		orgs:       d.Orgs,
		profile:    d.Profile,
		classifier: d.Classifier,
		ai:         d.AI,
		log:        d.Logger,
		metrics:    d.Metrics,
		jobs:       d.Jobs,
	}
	if s.extractor == nil {
		s.extractor = crawler.NewExtractor()
	}
	if s.classifier == nil {
		s.classifier = classifier.New()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.log = s.log.Component("generator")
	if s.jobs == nil {
		s.jobs = NewMemoryJobStore()
	}
	return s
}

// HasAI reports whether AI mode is available.
func (s *Service) HasAI() bool { return s.ai != nil }

func (s *Service) Jobs() JobStore { return s.jobs }

type Request struct {
	URL      string
	PageType models.PageType // forces the page type when set
	Mode     Mode
	Options  models.Options
	// Fallback composes heuristically when the AI call fails.
	Fallback bool
	// Verify asks the model to review the final graph.
	Verify bool
}

type Result struct {
	URL      string            `json:"url"`
	PageType models.PageType   `json:"pageType"`
	Scores   classifier.Scores `json:"scores"`
	Reasons  []string          `json:"reasons,omitempty"`
	Graph    *schema.Graph     `json:"graph"`
	Report   schema.Report     `json:"report"`
	Mode     Mode              `json:"mode"`
	Org      models.OrgInfo    `json:"organization"`
	Page     models.PageData   `json:"-"`
	Duration time.Duration     `json:"duration"`
}

// Generate fetches req.URL and builds its graph.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	return s.generate(ctx, req, nil)
}

func (s *Service) generate(ctx context.Context, req Request, dupes *crawler.DuplicateDetector) (res *Result, err error) {
	start := time.Now()
	mode := req.Mode
	if mode == "" {
		mode = ModeHeuristic
	}
	defer func() {
		pageType, entities := "", 0
		if res != nil {
			pageType, mode = string(res.PageType), res.Mode
			if res.Graph != nil {
				entities = len(res.Graph.Entities)
			}
		}
		if errors.Is(err, ErrDuplicateContent) {
			return
		}
		s.log.LogGeneration(req.URL, pageType, string(mode), entities, time.Since(start), err)
		s.metrics.RecordGeneration(pageType, string(mode), time.Since(start), err)
	}()

	if mode == ModeAI && s.ai == nil {
		return nil, models.WithTarget(req.URL, models.ErrLLMUnavailable)
	}
	if s.fetcher == nil {
		return nil, fmt.Errorf("generator: no fetcher configured")
	}

	fetched, err := s.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	if dupes != nil {
		if first, dup := dupes.Seen(req.URL, fetched.Body); dup {
			return nil, models.WithTarget(req.URL, fmt.Errorf("%w: same body as %s", ErrDuplicateContent, first))
		}
	}

	page, err := s.extractor.Extract(req.URL, fetched.Body)
	if err != nil {
		return nil, err
	}

	res = &Result{URL: req.URL, Mode: mode, Page: page}
	cls := s.classifier.Classify(req.URL, page)
	res.PageType, res.Scores, res.Reasons = cls.Type, cls.Scores, cls.Reasons
	if req.PageType != "" {
		res.PageType = req.PageType
	}
	s.metrics.RecordClassification(string(res.PageType))
	s.log.Debug().
		Str("url", req.URL).
		Str("page_type", string(res.PageType)).
		Int("article", cls.Scores.Article).
		Int("service", cls.Scores.Service).
		Int("location", cls.Scores.Location).
		Strs("reasons", cls.Reasons).
		Msg("page classified")

	res.Org = s.organization(ctx, req.URL, page)

	if mode == ModeAI {
		markdown, mdErr := s.extractor.Markdown(fetched.Body)
		if mdErr != nil {
			markdown = page.Content
		}
		graph, report, aiErr := s.ai.Generate(ctx, page, markdown, res.Org, req.Options, res.PageType)
		switch {
		case aiErr == nil:
			res.Graph, res.Report = graph, report
		case req.Fallback:
			s.log.Warn().Err(aiErr).Str("url", req.URL).Msg("AI generation failed, composing heuristically")
			res.Mode = ModeHeuristic
		default:
			return nil, aiErr
		}
	}
	if res.Graph == nil {
		res.Graph, res.Report = schema.Compose(res.PageType, page, res.Org, req.Options)
	}

	if req.Verify && s.ai != nil {
		report, verr := s.ai.Verify(ctx, page, res.Graph)
		if verr != nil {
			s.log.Warn().Err(verr).Str("url", req.URL).Msg("AI verification failed")
		} else {
			res.Report = report
		}
	}

	res.Duration = time.Since(start)
	return res, nil
}

// organization returns the fixed profile, or the detected organization,
// or a minimal one named after the host.
func (s *Service) organization(ctx context.Context, pageURL string, page models.PageData) models.OrgInfo {
	if s.profile != nil {
		return *s.profile
	}
	if s.orgs != nil {
		org, err := s.orgs.Detect(ctx, pageURL)
		if err == nil {
			return org
		}
		s.log.Warn().Err(err).Str("url", pageURL).Msg("organization detection failed")
	}
	origin := utils.Origin(pageURL)
	name := strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://"), "www.")
	return models.OrgInfo{Name: name, URL: origin + "/", Phone: page.Phone}
}
