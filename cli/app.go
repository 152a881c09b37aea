package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/liamtostring/schegen/ai"
	"github.com/liamtostring/schegen/backup"
	"github.com/liamtostring/schegen/cache"
	"github.com/liamtostring/schegen/classifier"
	"github.com/liamtostring/schegen/config"
	"github.com/liamtostring/schegen/crawler"
	"github.com/liamtostring/schegen/database"
	"github.com/liamtostring/schegen/generator"
	"github.com/liamtostring/schegen/logger"
	"github.com/liamtostring/schegen/metrics"
	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/mutation"
	"github.com/liamtostring/schegen/utils"
)

// orgCacheTTL bounds how long a detected organization is reused.
const orgCacheTTL = time.Hour

// state is the wiring for the running command.
var state *app

type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics

	pool    *database.Pool
	durable *backup.SQLiteStore
	backups backup.Store
	profile *config.OrgProfile
	gen     *generator.Service
}

func newApp(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) *app {
	return &app{cfg: cfg, log: log, metrics: m, pool: database.NewPool()}
}

func (a *app) Close() error {
	var errs []error
	if a.pool != nil {
		errs = append(errs, a.pool.Close())
	}
	if a.durable != nil {
		errs = append(errs, a.durable.Close())
	}
	return errors.Join(errs...)
}

func (a *app) orgProfile() (*config.OrgProfile, error) {
	if a.profile != nil || a.cfg.OrgProfile == "" {
		return a.profile, nil
	}
	p, err := config.LoadOrgProfile(a.cfg.OrgProfile)
	if err != nil {
		return nil, err
	}
	a.profile = p
	return p, nil
}

func (a *app) fetcher() *crawler.Fetcher {
	return crawler.NewFetcher(crawler.FetcherConfig{
		Timeout:    a.cfg.RequestTimeout,
		UserAgent:  a.cfg.UserAgent,
		RateLimit:  a.cfg.RateLimit,
		MaxRetries: a.cfg.MaxRetries,
	})
}

// schemaGenerator returns nil when no provider is configured.
func (a *app) schemaGenerator() (*ai.SchemaGenerator, error) {
	key := a.cfg.AnthropicAPIKey
	if strings.EqualFold(a.cfg.AIProvider, ai.ProviderOpenAI) {
		key = a.cfg.OpenAIAPIKey
	}
	model, err := ai.NewModel(ai.ModelConfig{
		Provider: a.cfg.AIProvider,
		APIKey:   key,
		Model:    a.cfg.AIModel,
		Timeout:  a.cfg.AITimeout,
	})
	if errors.Is(err, models.ErrLLMUnavailable) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	client := ai.NewClient(model,
		ai.WithTimeout(a.cfg.AITimeout),
		ai.WithRetry(utils.RetryConfig{MaxRetries: a.cfg.MaxRetries}),
		ai.WithLogger(a.log),
		ai.WithMetrics(a.metrics),
	)
	return ai.NewSchemaGenerator(client), nil
}

func (a *app) generator() (*generator.Service, error) {
	if a.gen != nil {
		return a.gen, nil
	}
	profile, err := a.orgProfile()
	if err != nil {
		return nil, err
	}
	gen, err := a.schemaGenerator()
	if err != nil {
		return nil, err
	}

	fetcher := a.fetcher()
	deps := generator.Deps{
		Fetcher:    fetcher,
		Extractor:  crawler.NewExtractor(),
		Orgs:       crawler.NewOrgDetector(fetcher, cache.NewMemory[models.OrgInfo](orgCacheTTL)),
		Classifier: classifier.New(),
		AI:         gen,
		Logger:     a.log,
		Metrics:    a.metrics,
	}
	if profile != nil {
		deps.Profile = &profile.Organization
	}
	a.gen = generator.New(deps)
	return a.gen, nil
}

// options merges profile defaults under the command's explicit values.
func (a *app) options(explicit models.Options) models.Options {
	p, _ := a.orgProfile()
	if p == nil {
		return explicit
	}
	defaults := p.Options()
	if explicit.AreaServed == "" {
		explicit.AreaServed = defaults.AreaServed
	}
	if explicit.BusinessType == "" {
		explicit.BusinessType = defaults.BusinessType
	}
	if explicit.Phone == "" {
		explicit.Phone = defaults.Phone
	}
	return explicit
}

func (a *app) store(ctx context.Context) (*database.Store, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: no database configured (set DATABASE_URL or --db-url)", models.ErrInvalidInput)
	}
	dialect, err := database.ParseDialect(a.cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	s, err := a.pool.Get(dialect, a.cfg.DatabaseURL, a.cfg.TablePrefix)
	if err != nil {
		return nil, err
	}
	if a.cfg.DBAutoMigrate {
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (a *app) backupStore() (backup.Store, error) {
	if a.backups != nil {
		return a.backups, nil
	}
	durable, err := backup.OpenSQLite(a.cfg.BackupPath(), a.cfg.BackupRetention)
	if err != nil {
		return nil, fmt.Errorf("opening backup index: %w", err)
	}
	a.durable = durable
	a.backups = backup.NewTiered(backup.NewMemoryStore(a.cfg.BackupRetention), durable)
	return a.backups, nil
}

// site labels backups with a stable ID derived from the database target,
// so credentials in the DSN never reach the backup index.
func (a *app) site() string {
	target := a.cfg.DBDriver + "|" + a.cfg.TablePrefix + "|" + a.cfg.DatabaseURL
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(target)).String()
}

func (a *app) mutator(ctx context.Context) (*mutation.Mutator, *database.Store, error) {
	s, err := a.store(ctx)
	if err != nil {
		return nil, nil, err
	}
	backups, err := a.backupStore()
	if err != nil {
		return nil, nil, err
	}
	m := mutation.New(s, backups, a.site(), mutation.WithLogger(a.log), mutation.WithMetrics(a.metrics))
	return m, s, nil
}

// postFlags are shared by the commands that target one post.
type postFlags struct {
	slug   string
	postID int64
}

func (p *postFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.slug, "slug", "", "Target post slug")
	cmd.Flags().Int64Var(&p.postID, "post-id", 0, "Target post ID")
}

func (p *postFlags) resolve(ctx context.Context, s *database.Store) (int64, error) {
	switch {
	case p.postID > 0:
		return p.postID, nil
	case p.slug != "":
		return s.FindPostIDBySlug(ctx, p.slug)
	}
	return 0, fmt.Errorf("%w: --slug or --post-id is required", models.ErrInvalidInput)
}
