package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Protocol.Authority = "0x1111111111111111111111111111111111111111"
	cfg.Protocol.Treasury = "0x2222222222222222222222222222222222222222"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Mode != "server" {
		t.Errorf("Mode = %q, want server", cfg.Mode)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if got := cfg.Protocol.BetCommitWindow.Duration; got != 5*time.Minute {
		t.Errorf("BetCommitWindow = %s, want 5m", got)
	}
	if got := cfg.Protocol.ResolutionTimeout.Duration; got != 168*time.Hour {
		t.Errorf("ResolutionTimeout = %s, want 168h", got)
	}
	if cfg.Protocol.HashScheme != "sha256" {
		t.Errorf("HashScheme = %q, want sha256", cfg.Protocol.HashScheme)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Archive.Enabled {
		t.Error("Archive.Enabled = true, want false by default")
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "bogus"
	cfg.LogLevel = "loud"
	cfg.Protocol.Authority = ""
	cfg.Protocol.SlashPercent = 150

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, frag := range []string{"unknown mode", "unknown log_level", "authority", "slash_percent"} {
		if !strings.Contains(err.Error(), frag) {
			t.Errorf("error missing %q:\n%v", frag, err)
		}
	}
}

func TestValidate_TimeoutCoversWindows(t *testing.T) {
	cfg := validConfig()
	cfg.Protocol.ResolutionTimeout = duration{30 * time.Minute}

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "resolution_timeout") {
		t.Fatalf("Validate() = %v, want resolution_timeout error", err)
	}
}

func TestValidate_PostgresOnlyInServerMode(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres.Host = ""
	cfg.Postgres.Database = ""
	cfg.Redis.Addr = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("server mode with no postgres/redis should fail validation")
	}

	cfg.Mode = "dev"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dev mode should not require postgres/redis: %v", err)
	}
}

func TestValidate_PostgresDSNSkipsHostChecks(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres.Host = ""
	cfg.Postgres.Database = ""
	cfg.Postgres.DSN = "postgres://sealbet:secret@db:5432/sealbet"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("DSN should satisfy the connection checks: %v", err)
	}
}

func TestValidate_S3OnlyWhenArchiving(t *testing.T) {
	cfg := validConfig()
	cfg.S3.Bucket = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("archive disabled should not require s3: %v", err)
	}

	cfg.Archive.Enabled = true
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "bucket") {
		t.Fatalf("Validate() = %v, want bucket error", err)
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	raw := `
mode = "dev"

[protocol]
authority = "0x1111111111111111111111111111111111111111"
treasury = "0x2222222222222222222222222222222222222222"
fee_bps = 250
bet_commit_window = "10m"

[server]
port = 9000
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SEALBET_PROTOCOL_FEE_BPS", "400")
	t.Setenv("SEALBET_SERVER_RATE_LIMIT", "10")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "dev" {
		t.Errorf("Mode = %q, want dev", cfg.Mode)
	}
	if got := cfg.Protocol.BetCommitWindow.Duration; got != 10*time.Minute {
		t.Errorf("BetCommitWindow = %s, want 10m", got)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	// Environment wins over the file.
	if cfg.Protocol.FeeBps != 400 {
		t.Errorf("FeeBps = %d, want 400 from env", cfg.Protocol.FeeBps)
	}
	if cfg.Server.RateLimit != 10 {
		t.Errorf("RateLimit = %d, want 10 from env", cfg.Server.RateLimit)
	}
	// Untouched fields keep their defaults.
	if got := cfg.Protocol.ResolutionTimeout.Duration; got != 168*time.Hour {
		t.Errorf("ResolutionTimeout = %s, want default 168h", got)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres.Password = "hunter2"
	cfg.Redis.Password = "hunter2"
	cfg.S3.SecretKey = "hunter2"
	cfg.Server.AuthorityKey = "hunter2"
	cfg.Notify.TelegramToken = "123:abc"

	red := RedactedConfig(&cfg)
	for name, got := range map[string]string{
		"postgres password": red.Postgres.Password,
		"redis password":    red.Redis.Password,
		"s3 secret key":     red.S3.SecretKey,
		"authority key":     red.Server.AuthorityKey,
		"telegram token":    red.Notify.TelegramToken,
	} {
		if strings.Contains(got, "hunter2") || strings.Contains(got, "abc") {
			t.Errorf("%s not redacted: %q", name, got)
		}
	}
	// The original is left untouched.
	if cfg.Postgres.Password != "hunter2" {
		t.Error("RedactedConfig mutated the original")
	}
}
