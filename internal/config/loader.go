package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SEALBET_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SEALBET_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Protocol ──
	setStr(&cfg.Protocol.Authority, "SEALBET_PROTOCOL_AUTHORITY")
	setStr(&cfg.Protocol.Treasury, "SEALBET_PROTOCOL_TREASURY")
	setDuration(&cfg.Protocol.BetCommitWindow, "SEALBET_PROTOCOL_BET_COMMIT_WINDOW")
	setDuration(&cfg.Protocol.BetRevealWindow, "SEALBET_PROTOCOL_BET_REVEAL_WINDOW")
	setDuration(&cfg.Protocol.ResolutionCommitWindow, "SEALBET_PROTOCOL_RESOLUTION_COMMIT_WINDOW")
	setDuration(&cfg.Protocol.ResolutionRevealWindow, "SEALBET_PROTOCOL_RESOLUTION_REVEAL_WINDOW")
	setDuration(&cfg.Protocol.DisputeWindow, "SEALBET_PROTOCOL_DISPUTE_WINDOW")
	setDuration(&cfg.Protocol.ResolutionTimeout, "SEALBET_PROTOCOL_RESOLUTION_TIMEOUT")
	setDuration(&cfg.Protocol.MinHorizon, "SEALBET_PROTOCOL_MIN_HORIZON")
	setUint64(&cfg.Protocol.BondAmount, "SEALBET_PROTOCOL_BOND_AMOUNT")
	setUint64(&cfg.Protocol.SlashPercent, "SEALBET_PROTOCOL_SLASH_PERCENT")
	setUint64(&cfg.Protocol.FeeBps, "SEALBET_PROTOCOL_FEE_BPS")
	setUint64(&cfg.Protocol.MinBet, "SEALBET_PROTOCOL_MIN_BET")
	setUint64(&cfg.Protocol.MaxBet, "SEALBET_PROTOCOL_MAX_BET")
	setStr(&cfg.Protocol.HashScheme, "SEALBET_PROTOCOL_HASH_SCHEME")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "SEALBET_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SEALBET_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SEALBET_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SEALBET_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SEALBET_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SEALBET_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SEALBET_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SEALBET_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SEALBET_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SEALBET_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "SEALBET_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SEALBET_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SEALBET_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SEALBET_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SEALBET_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SEALBET_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "SEALBET_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SEALBET_S3_REGION")
	setStr(&cfg.S3.Bucket, "SEALBET_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SEALBET_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SEALBET_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SEALBET_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SEALBET_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "SEALBET_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "SEALBET_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SEALBET_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.AuthorityKey, "SEALBET_SERVER_AUTHORITY_KEY")
	setInt(&cfg.Server.RateLimit, "SEALBET_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "SEALBET_SERVER_RATE_WINDOW")

	setStr(&cfg.Notify.TelegramToken, "SEALBET_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SEALBET_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SEALBET_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SEALBET_NOTIFY_EVENTS")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "SEALBET_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Interval, "SEALBET_ARCHIVE_INTERVAL")
	setDuration(&cfg.Archive.Retention, "SEALBET_ARCHIVE_RETENTION")
	setInt(&cfg.Archive.BatchSize, "SEALBET_ARCHIVE_BATCH_SIZE")

	// ── Top-level ──
	setStr(&cfg.Mode, "SEALBET_MODE")
	setStr(&cfg.LogLevel, "SEALBET_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
