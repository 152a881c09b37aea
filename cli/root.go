// Package cli is the schegen command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/liamtostring/schegen/config"
	"github.com/liamtostring/schegen/logger"
	"github.com/liamtostring/schegen/metrics"
)

var version = "dev"

// global flags
var (
	logLevel    string
	logPretty   bool
	metricsAddr string
	dbDriver    string
	dbURL       string
	tablePrefix string
	autoMigrate bool
	backupDir   string
	profilePath string
	aiProvider  string
	aiModel     string
	outputJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "schegen",
	Short: "Generate Rank Math schema for WordPress pages",
	Long: `schegen scrapes pages, classifies them, builds JSON-LD graphs and writes them
into Rank Math post meta. Writes are dry runs unless --execute is passed.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.BoolVar(&logPretty, "log-pretty", false, "Human readable logs")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	pf.StringVar(&dbDriver, "db-driver", "", "WordPress database driver (mysql, postgres, sqlite)")
	pf.StringVar(&dbURL, "db-url", "", "WordPress database DSN")
	pf.StringVar(&tablePrefix, "table-prefix", "", "WordPress table prefix")
	pf.BoolVar(&autoMigrate, "db-auto-migrate", false, "Create the posts and postmeta tables when missing (local databases only)")
	pf.StringVar(&backupDir, "backup-dir", "", "Directory of the durable backup index")
	pf.StringVar(&profilePath, "profile", "", "Organization profile (TOML)")
	pf.StringVar(&aiProvider, "ai-provider", "", "Generative model provider (anthropic, openai)")
	pf.StringVar(&aiModel, "ai-model", "", "Generative model name")
	pf.BoolVar(&outputJSON, "json", false, "Print JSON output")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails.
	if cerr := teardown(rootCmd, nil); err == nil {
		err = cerr
	}
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	flags := cmd.Flags()
	override := func(name string, dst *string, val string) {
		if flags.Changed(name) {
			*dst = val
		}
	}
	override("log-level", &cfg.LogLevel, logLevel)
	override("metrics-addr", &cfg.MetricsAddr, metricsAddr)
	override("db-driver", &cfg.DBDriver, dbDriver)
	override("db-url", &cfg.DatabaseURL, dbURL)
	override("table-prefix", &cfg.TablePrefix, tablePrefix)
	override("backup-dir", &cfg.BackupDir, backupDir)
	override("profile", &cfg.OrgProfile, profilePath)
	override("ai-provider", &cfg.AIProvider, aiProvider)
	override("ai-model", &cfg.AIModel, aiModel)
	if flags.Changed("log-pretty") {
		cfg.LogPretty = logPretty
	}
	if flags.Changed("db-auto-migrate") {
		cfg.DBAutoMigrate = autoMigrate
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: cmd.ErrOrStderr(),
	})
	m := metrics.New()
	state = newApp(cfg, log, m)

	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(cmd.Context(), cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server stopped")
			}
		}()
	}
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if state == nil {
		return nil
	}
	err := state.Close()
	state = nil
	return err
}
