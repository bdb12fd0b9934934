package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/persistence/boltlike"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	store, err := boltlike.Open(filepath.Join(t.TempDir(), "advisories.log"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Store(context.Background(), types.StrategicAdvisory{
		Timestamp:      1000,
		Recommendation: "reduce WOB",
	}))

	cfg := DefaultConfig()
	cfg.Port = 0
	listenerPort := freePort(t)
	cfg.Port = listenerPort

	health := func() any { return map[string]string{"status": "ok"} }

	s, err := NewServer(cfg, store, health)
	require.NoError(t, err)

	go s.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})

	waitForServer(t, s.Address())
	return s, "http://" + s.Address()
}

func TestServer_HealthReturnsReport(t *testing.T) {
	_, base := newTestServer(t)

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "ok", decoded["status"])
}

func TestServer_AdvisoriesReturnsStoredRecords(t *testing.T) {
	_, base := newTestServer(t)

	resp, err := http.Get(base + "/advisories")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var decoded []types.StrategicAdvisory
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "reduce WOB", decoded[0].Recommendation)
}

func TestServer_AdvisoriesRejectsInvalidSince(t *testing.T) {
	_, base := newTestServer(t)

	resp, err := http.Get(base + "/advisories?since=not-a-number")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_UnknownRouteReturns404(t *testing.T) {
	_, base := newTestServer(t)

	resp, err := http.Get(base + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
