// ABOUTME: Tests for server lifecycle and tailscale config resolution
// ABOUTME: Exercises the TCP path; tsnet is not started in tests

package server

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aljazleben/eyecandyredditbot/internal/config"
	"github.com/aljazleben/eyecandyredditbot/internal/store"
)

type closeTrackingStore struct {
	store.Store
	closed bool
}

func (s *closeTrackingStore) Close() error {
	s.closed = true
	return nil
}

func TestRun_GracefulShutdownClosesStore(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.HTTPAddr = "127.0.0.1:0"

	st := &closeTrackingStore{}
	srv := New(cfg, http.NotFoundHandler(), st, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	// Give the listener a moment to come up, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.True(t, st.closed)
}

func TestRun_BadAddress(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.HTTPAddr = "256.256.256.256:bad"

	srv := New(cfg, http.NotFoundHandler(), &closeTrackingStore{}, slog.Default())
	err := srv.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on HTTP address")
}

func TestResolveTailscaleAuthKey(t *testing.T) {
	t.Setenv("TS_AUTHKEY", "")

	_, err := resolveTailscaleAuthKey("")
	require.Error(t, err)

	key, err := resolveTailscaleAuthKey("tskey-configured")
	require.NoError(t, err)
	assert.Equal(t, "tskey-configured", key)

	t.Setenv("TS_AUTHKEY", "tskey-env")
	key, err = resolveTailscaleAuthKey("")
	require.NoError(t, err)
	assert.Equal(t, "tskey-env", key)
}

func TestResolveTailscaleStateDir(t *testing.T) {
	dir, err := resolveTailscaleStateDir("/tmp/ts-state")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ts-state", dir)

	dir, err = resolveTailscaleStateDir("")
	require.NoError(t, err)
	assert.NotEmpty(t, dir)
}
