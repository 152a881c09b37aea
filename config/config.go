package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/liamtostring/schegen/models"
)

type Config struct {
	// target WordPress database
	DBDriver      string
	DatabaseURL   string
	TablePrefix   string
	DBAutoMigrate bool

	BackupDir       string
	BackupRetention int

	// fetching
	UserAgent      string
	RequestTimeout time.Duration
	RateLimit      float64 // requests per second
	MaxRetries     int
	Workers        int

	// generative model
	AIProvider      string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	AIModel         string
	AITimeout       time.Duration

	LogLevel    string
	LogPretty   bool
	MetricsAddr string

	OrgProfile string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		DBDriver:        getEnv("DB_DRIVER", "mysql"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		TablePrefix:     getEnv("WP_TABLE_PREFIX", "wp_"),
		DBAutoMigrate:   getEnvBool("DB_AUTO_MIGRATE", false),
		BackupDir:       getEnv("BACKUP_DIR", defaultBackupDir()),
		BackupRetention: getEnvInt("BACKUP_RETENTION", 10),
		UserAgent:       getEnv("USER_AGENT", "schegen/1.0 (+https://github.com/liamtostring/schegen)"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		RateLimit:       getEnvFloat("RATE_LIMIT", 2),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		Workers:         getEnvInt("WORKERS", 4),
		AIProvider:      getEnv("AI_PROVIDER", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AIModel:         getEnv("AI_MODEL", ""),
		AITimeout:       getEnvDuration("AI_TIMEOUT", 90*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogPretty:       getEnvBool("LOG_PRETTY", false),
		MetricsAddr:     getEnv("METRICS_ADDR", ""),
		OrgProfile:      getEnv("ORG_PROFILE", ""),
	}
}

// BackupPath is the durable backup database file.
func (c *Config) BackupPath() string {
	return c.BackupDir + string(os.PathSeparator) + "backups.db"
}

func defaultBackupDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "schegen"
	}
	return ".schegen"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return n
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil {
		return f
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return b
	}
	return defaultVal
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}

// OrgProfile is the TOML file describing the business a site belongs to,
// plus the generation defaults applied to its pages.
type OrgProfile struct {
	Organization models.OrgInfo  `toml:"organization"`
	Defaults     ProfileDefaults `toml:"defaults"`
}

type ProfileDefaults struct {
	AreaServed   string              `toml:"area_served"`
	BusinessType models.BusinessType `toml:"business_type"`
	Phone        string              `toml:"phone"`
}

// Options returns the defaults as generation options.
func (p OrgProfile) Options() models.Options {
	return models.Options{
		AreaServed:   p.Defaults.AreaServed,
		BusinessType: p.Defaults.BusinessType,
		Phone:        p.Defaults.Phone,
	}
}

// LoadOrgProfile reads an organization profile. The organization needs at
// least a name and url.
func LoadOrgProfile(path string) (*OrgProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading org profile: %w", err)
	}
	var p OrgProfile
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: parsing org profile %s: %w", models.ErrInvalidInput, path, err)
	}
	if strings.TrimSpace(p.Organization.Name) == "" || strings.TrimSpace(p.Organization.URL) == "" {
		return nil, fmt.Errorf("%w: org profile %s needs organization.name and organization.url", models.ErrInvalidInput, path)
	}
	for _, bt := range []*models.BusinessType{&p.Organization.BusinessType, &p.Defaults.BusinessType} {
		if *bt == "" {
			continue
		}
		parsed, ok := models.ParseBusinessType(string(*bt))
		if !ok {
			return nil, fmt.Errorf("%w: unknown business type %q", models.ErrInvalidInput, *bt)
		}
		*bt = parsed
	}
	return &p, nil
}
