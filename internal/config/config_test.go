package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var keys = []string{
	"CONFIG_FILE", "PORT", "PUBLIC_BASE_URL", "DATABASE_URL", "REDIS_URL", "NATS_URL",
	"CHAIN_HOP_CAP", "FETCH_TIMEOUT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "INBOX_TTL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.PublicBaseURL != "http://localhost:8080" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.ChainHopCap != 100 || cfg.FetchTimeout != 10*time.Second || cfg.InboxTTL != 168*time.Hour {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.RateLimitRPS != 0 || cfg.DatabaseURL != "" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.PodBase() != "http://localhost:8080/pod/" || cfg.InboxBase() != "http://localhost:8080/inbox/" {
		t.Fatalf("bases = %s %s", cfg.PodBase(), cfg.InboxBase())
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "port: \"9000\"\npublic_base_url: https://chess.example/\nchain_hop_cap: 5\nfetch_timeout: 3s\nrate_limit_rps: 2.5\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CHAIN_HOP_CAP", "7")
	t.Setenv("NATS_URL", NATSEmbedded)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.PublicBaseURL != "https://chess.example" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.ChainHopCap != 7 || cfg.FetchTimeout != 3*time.Second || cfg.RateLimitRPS != 2.5 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.NATSURL != NATSEmbedded {
		t.Fatalf("nats = %q", cfg.NATSURL)
	}
}

func TestLoad_AggregatesErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAIN_HOP_CAP", "many")
	t.Setenv("FETCH_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT_RPS", "-1")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"CHAIN_HOP_CAP", "FETCH_TIMEOUT", "RATE_LIMIT_RPS"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
