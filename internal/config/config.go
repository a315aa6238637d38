// Package config defines the top-level configuration for the sealbet daemon
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by SEALBET_* environment variables.
type Config struct {
	Protocol ProtocolConfig `toml:"protocol"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Archive  ArchiveConfig  `toml:"archive"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ProtocolConfig holds the economic and timing parameters of the settlement
// protocol. Defaults mirror the reference deployment.
type ProtocolConfig struct {
	Authority string `toml:"authority"`
	Treasury  string `toml:"treasury"`

	// Commit-reveal windows for bets.
	BetCommitWindow duration `toml:"bet_commit_window"`
	BetRevealWindow duration `toml:"bet_reveal_window"`

	// Commit-reveal windows for oracle resolutions, the dispute window
	// after a reveal, and the timeout after which an unresolved market
	// cancels.
	ResolutionCommitWindow duration `toml:"resolution_commit_window"`
	ResolutionRevealWindow duration `toml:"resolution_reveal_window"`
	DisputeWindow          duration `toml:"dispute_window"`
	ResolutionTimeout      duration `toml:"resolution_timeout"`

	// Market creation horizon: the resolution deadline must be at least
	// this far in the future.
	MinHorizon duration `toml:"min_horizon"`

	BondAmount   uint64 `toml:"bond_amount"`
	SlashPercent uint64 `toml:"slash_percent"`
	FeeBps       uint64 `toml:"fee_bps"`
	MinBet       uint64 `toml:"min_bet"`
	MaxBet       uint64 `toml:"max_bet"`

	// HashScheme selects the commitment digest: "sha256" or "keccak256".
	HashScheme string `toml:"hash_scheme"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the settlement
// archive.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds the HTTP API parameters.
type ServerConfig struct {
	Enabled      bool     `toml:"enabled"`
	Port         int      `toml:"port"`
	CORSOrigins  []string `toml:"cors_origins"`
	AuthorityKey string   `toml:"authority_key"`
	RateLimit    int      `toml:"rate_limit"`
	RateWindow   duration `toml:"rate_window"`
}

// ArchiveConfig holds the settlement archiver parameters.
type ArchiveConfig struct {
	Enabled   bool     `toml:"enabled"`
	Interval  duration `toml:"interval"`
	Retention duration `toml:"retention"`
	BatchSize int      `toml:"batch_size"`
}

// NotifyConfig holds operator alert delivery settings. Events lists the
// event types to forward; empty forwards everything.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration wraps time.Duration so the TOML decoder can parse strings like
// "5m" or "30s".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the reference-deployment defaults.
func Defaults() Config {
	return Config{
		Protocol: ProtocolConfig{
			BetCommitWindow:        duration{5 * time.Minute},
			BetRevealWindow:        duration{1 * time.Hour},
			ResolutionCommitWindow: duration{5 * time.Minute},
			ResolutionRevealWindow: duration{1 * time.Hour},
			DisputeWindow:          duration{1 * time.Hour},
			ResolutionTimeout:      duration{168 * time.Hour},
			MinHorizon:             duration{25 * time.Hour},
			BondAmount:             1_000_000_000,
			SlashPercent:           50,
			FeeBps:                 300,
			MinBet:                 1_000,
			MaxBet:                 1_000_000_000_000,
			HashScheme:             "sha256",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "sealbet",
			User:          "sealbet",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   10,
			MaxRetries: 3,
		},
		S3: S3Config{
			Region: "us-east-1",
			Bucket: "sealbet-archive",
			UseSSL: true,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   120,
			RateWindow:  duration{1 * time.Minute},
		},
		Archive: ArchiveConfig{
			Enabled:   false,
			Interval:  duration{1 * time.Hour},
			Retention: duration{24 * time.Hour},
			BatchSize: 100,
		},
		Notify: NotifyConfig{
			Events: []string{"resolution_disputed"},
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true,
	"dev":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validHashSchemes enumerates the accepted commitment digest schemes.
var validHashSchemes = map[string]bool{
	"sha256":    true,
	"keccak256": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, dev)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Protocol
	if c.Protocol.Authority == "" {
		errs = append(errs, "protocol: authority must not be empty")
	}
	if c.Protocol.Treasury == "" {
		errs = append(errs, "protocol: treasury must not be empty")
	}
	if c.Protocol.BetCommitWindow.Duration <= 0 {
		errs = append(errs, "protocol: bet_commit_window must be > 0")
	}
	if c.Protocol.BetRevealWindow.Duration <= 0 {
		errs = append(errs, "protocol: bet_reveal_window must be > 0")
	}
	if c.Protocol.ResolutionCommitWindow.Duration <= 0 {
		errs = append(errs, "protocol: resolution_commit_window must be > 0")
	}
	if c.Protocol.ResolutionRevealWindow.Duration <= 0 {
		errs = append(errs, "protocol: resolution_reveal_window must be > 0")
	}
	if c.Protocol.DisputeWindow.Duration <= 0 {
		errs = append(errs, "protocol: dispute_window must be > 0")
	}
	if c.Protocol.ResolutionTimeout.Duration <= c.Protocol.ResolutionCommitWindow.Duration+c.Protocol.ResolutionRevealWindow.Duration {
		errs = append(errs, "protocol: resolution_timeout must exceed resolution_commit_window + resolution_reveal_window")
	}
	if c.Protocol.MinHorizon.Duration <= 0 {
		errs = append(errs, "protocol: min_horizon must be > 0")
	}
	if c.Protocol.BondAmount == 0 {
		errs = append(errs, "protocol: bond_amount must be > 0")
	}
	if c.Protocol.SlashPercent == 0 || c.Protocol.SlashPercent > 100 {
		errs = append(errs, fmt.Sprintf("protocol: slash_percent must be 1-100, got %d", c.Protocol.SlashPercent))
	}
	if c.Protocol.FeeBps > 10_000 {
		errs = append(errs, fmt.Sprintf("protocol: fee_bps must be <= 10000, got %d", c.Protocol.FeeBps))
	}
	if c.Protocol.MaxBet > 0 && c.Protocol.MinBet > c.Protocol.MaxBet {
		errs = append(errs, "protocol: min_bet must not exceed max_bet")
	}
	if !validHashSchemes[strings.ToLower(c.Protocol.HashScheme)] {
		errs = append(errs, fmt.Sprintf("protocol: unknown hash_scheme %q (valid: sha256, keccak256)", c.Protocol.HashScheme))
	}

	// Postgres checks apply only in server mode; dev mode runs in memory.
	if strings.ToLower(c.Mode) == "server" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}

		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3 is needed only when archiving is on.
	if c.Archive.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archive is enabled")
		}
		if c.Archive.Interval.Duration <= 0 {
			errs = append(errs, "archive: interval must be > 0")
		}
		if c.Archive.BatchSize < 1 {
			errs = append(errs, "archive: batch_size must be >= 1")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
