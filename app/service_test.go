package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetrollout/config"
	"github.com/kilianp07/fleetrollout/core/aggregate"
	"github.com/kilianp07/fleetrollout/core/factory"
	"github.com/kilianp07/fleetrollout/core/journal"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Seed = true
	cfg.Prefetch.Disabled = true
	cfg.Journal.Backend = "jsonl"
	cfg.Journal.Path = filepath.Join(t.TempDir(), "mutations.jsonl")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServiceServesSeededWorkspace(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, err := New(ctx, testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, svc.Close()) })
	require.NoError(t, svc.Start(ctx))

	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/stats/fleet")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats aggregate.Fleet
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 6, stats.Total)
}

func TestServiceJournalsMutations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, err := New(ctx, testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	require.NoError(t, svc.Start(ctx))

	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()
	req, err := http.NewRequest(http.MethodPatch, srv.URL+"/api/vehicles/V004/status", strings.NewReader(`{"status":"In Progress"}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	recs, err := svc.Journal.Query(ctx, journal.Query{Key: "vehicles"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "V004", recs[0].EntityID)
	assert.Equal(t, "update_status", recs[0].Operation)
}

func TestNewRejectsUnknownSink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "graphite"}}
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
