package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JSON_RPC_URL", "https://s.altnet.rippletest.net:51234")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConfirmTimeout != defaultConfirmTimeout {
		t.Fatalf("expected confirm timeout %s, got %s", defaultConfirmTimeout, cfg.ConfirmTimeout)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("expected no brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestLoadRequiresRPCURL(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JSON_RPC_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without JSON_RPC_URL")
	}
}

func TestLoadProductionRequiresStores(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JSON_RPC_URL", "https://xrplcluster.com")
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("JSON_RPC_URL", "https://xrplcluster.com")
	t.Setenv("LEDGER_CONFIRM_TIMEOUT", "45s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("HISTORY_LIMIT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConfirmTimeout != 45*time.Second {
		t.Fatalf("expected 45s, got %s", cfg.ConfirmTimeout)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.HistoryLimit != 3 {
		t.Fatalf("expected history limit 3, got %d", cfg.HistoryLimit)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JSON_RPC_URL", "https://xrplcluster.com")
	t.Setenv("LEDGER_POLL_INTERVAL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected invalid duration error")
	}
}
