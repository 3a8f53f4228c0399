package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	TelegramToken string `env:"TELEGRAM_TOKEN,required"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`

	APIBaseURL string        `env:"API_BASE_URL,required"`
	APIKey     string        `env:"API_KEY"`
	APITimeout time.Duration `env:"API_TIMEOUT" envDefault:"30s"`

	AdminChatIDs []int64 `env:"ADMIN_CHAT_IDS" envSeparator:","`

	SessionMaxAge        time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1h"`

	MaxFileSizeMB         int64  `env:"MAX_FILE_SIZE_MB" envDefault:"50"`
	AllowedFileExtensions string `env:"ALLOWED_FILE_EXTENSIONS" envDefault:".stl,.obj,.3mf"`

	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`

	DBHost            string        `env:"DB_HOST"`
	DBPort            int           `env:"DB_PORT" envDefault:"5432"`
	DBUser            string        `env:"DB_USER"`
	DBPassword        string        `env:"DB_PASSWORD"`
	DBName            string        `env:"DB_NAME"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	DBConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"2m"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// MaxFileSize returns the upload limit in bytes.
func (c *Config) MaxFileSize() int64 {
	return c.MaxFileSizeMB * 1024 * 1024
}

// AllowedExtensions splits the configured extension list, lowercased.
func (c *Config) AllowedExtensions() []string {
	parts := strings.Split(c.AllowedFileExtensions, ",")
	exts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			exts = append(exts, p)
		}
	}
	return exts
}

// RedisEnabled reports whether a catalog cache is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// ArchiveEnabled reports whether the local order archive is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.DBHost != ""
}
