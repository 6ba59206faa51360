package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	// 接続文字列（設定されていれば DB_* より優先）
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// MariaDB接続設定
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"3306"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME"`

	// サーバー設定
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`
	Env        string `envconfig:"ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat  string `envconfig:"LOG_FORMAT" default:"text"`

	// CORS設定
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`

	// Messenger behaviour
	CurrentUserID      int64         `envconfig:"CURRENT_USER_ID" default:"1"`
	TypingWindow       time.Duration `envconfig:"TYPING_WINDOW" default:"5s"`
	RemovedPlaceholder string        `envconfig:"REMOVED_PLACEHOLDER" default:"Message deleted"`
	MaxUnread          int           `envconfig:"MAX_UNREAD" default:"3"`

	// 0 (default) disables the limiter. Buckets are keyed on the peer address,
	// so behind a reverse proxy all clients share one bucket.
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"0"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"40"`
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	for i := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(cfg.AllowedOrigins[i])
	}

	if cfg.CurrentUserID <= 0 {
		return Config{}, fmt.Errorf("CURRENT_USER_ID must be positive, got %d", cfg.CurrentUserID)
	}
	if cfg.TypingWindow <= 0 {
		return Config{}, fmt.Errorf("TYPING_WINDOW must be positive, got %s", cfg.TypingWindow)
	}
	if cfg.MaxUnread <= 0 {
		return Config{}, fmt.Errorf("MAX_UNREAD must be positive, got %d", cfg.MaxUnread)
	}
	if _, err := cfg.mysqlConfig(); err != nil {
		return Config{}, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	return cfg, nil
}

// DSN returns the MySQL data source name. DATABASE_URL wins over the DB_* parts.
// parseTime and UTC are always forced so DATETIME columns scan into time.Time.
func (c Config) DSN() string {
	mc, err := c.mysqlConfig()
	if err != nil {
		// Load で検証済み
		return c.DatabaseURL
	}
	return mc.FormatDSN()
}

func (c Config) mysqlConfig() (*mysql.Config, error) {
	var mc *mysql.Config
	if c.DatabaseURL != "" {
		parsed, err := mysql.ParseDSN(c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		mc = parsed
	} else {
		mc = mysql.NewConfig()
		mc.User = c.DBUser
		mc.Passwd = c.DBPassword
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.DBHost, c.DBPort)
		mc.DBName = c.DBName
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc, nil
}

// AllowOrigin is the value of Access-Control-Allow-Origin sent in every envelope.
// The header carries a single origin, so only the first configured one is used
// unless a wildcard is present.
func (c Config) AllowOrigin() string {
	if len(c.AllowedOrigins) == 0 {
		return "*"
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return "*"
		}
	}
	return c.AllowedOrigins[0]
}
