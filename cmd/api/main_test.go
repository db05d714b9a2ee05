package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ripple-mobile/ripple_mobile/internal/config"
	"github.com/ripple-mobile/ripple_mobile/internal/logging"
	"github.com/ripple-mobile/ripple_mobile/internal/routes"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:               "development",
		Port:                 "0",
		JSONRPCURL:           routes.MemoryLedgerURL,
		RequestTimeout:       time.Second,
		ConfirmTimeout:       time.Second,
		PollInterval:         10 * time.Millisecond,
		IdempotencyTTL:       time.Minute,
		HistoryLimit:         5,
		PINAttemptsPerMinute: 5,
		ShutdownPeriod:       time.Second,
	}
}

func TestRunReturnsStartupErrors(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseURL = "postgres://%zz"

	err := run(context.Background(), cfg, logging.Discard())
	require.ErrorContains(t, err, "connect postgres")
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, testConfig(), logging.Discard()) }()

	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}
