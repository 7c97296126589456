package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/set-night/primeminister/internal/domain"
)

type Config struct {
	// Provider
	APIKey         string        `env:"PRIMEMINISTER_API_KEY"`
	APIURL         string        `env:"PRIMEMINISTER_API_URL"`
	RequestTimeout time.Duration `env:"PRIMEMINISTER_REQUEST_TIMEOUT" envDefault:"90s"`
	MaxParallel    int           `env:"PRIMEMINISTER_MAX_PARALLEL" envDefault:"0"`

	// Council
	CouncilPath string `env:"PRIMEMINISTER_CONFIG"`
	Mode        string `env:"PRIMEMINISTER_MODE"`

	// Logging
	LogDir   string `env:"PRIMEMINISTER_LOG_DIR"`
	LogLevel string `env:"PRIMEMINISTER_LOG_LEVEL" envDefault:"info"`

	// Audit log
	AuditBackend string `env:"PRIMEMINISTER_AUDIT_BACKEND" envDefault:"file"`
	DatabaseURL  string `env:"DATABASE_URL"`
	SQLitePath   string `env:"PRIMEMINISTER_SQLITE_PATH"`

	// Telegram bot
	BotToken           string  `env:"BOT_TOKEN"`
	AllowedChatIDs     []int64 `env:"BOT_ALLOWED_CHAT_IDS" envSeparator:","`
	RateLimitPerMinute int     `env:"BOT_RATE_LIMIT" envDefault:"4"`
	DropPendingUpdates bool    `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`

	// Telegram ops logging
	LogTelegramChatID int64 `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError     int   `env:"LOG_TOPIC_ERROR"`
	LogTopicSession   int   `env:"LOG_TOPIC_SESSION"`
}

const (
	AuditBackendFile     = "file"
	AuditBackendSQLite   = "sqlite"
	AuditBackendPostgres = "postgres"
)

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: parse environment: %w", domain.ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.AuditBackend {
	case AuditBackendFile, AuditBackendSQLite:
	case AuditBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the %s audit backend", domain.ErrConfiguration, AuditBackendPostgres)
		}
	default:
		return fmt.Errorf("%w: unknown audit backend %q", domain.ErrConfiguration, c.AuditBackend)
	}
	if c.MaxParallel < 0 {
		return fmt.Errorf("%w: PRIMEMINISTER_MAX_PARALLEL must not be negative", domain.ErrConfiguration)
	}
	return nil
}

// IsChatAllowed reports whether the bot may answer in the chat. An empty
// allow list admits every chat.
func (c *Config) IsChatAllowed(chatID int64) bool {
	if len(c.AllowedChatIDs) == 0 {
		return true
	}
	return slices.Contains(c.AllowedChatIDs, chatID)
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
