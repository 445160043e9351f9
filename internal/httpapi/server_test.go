package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/karishmathakrar/GreenGridPR/internal/replay"
	"github.com/karishmathakrar/GreenGridPR/internal/results"
)

func newTestServer(t *testing.T, store results.Store) (*Server, *replay.PrioritizedBuffer) {
	t.Helper()
	buffer, err := replay.NewPrioritizedBuffer(4, 1, rand.NewSource(1))
	require.NoError(t, err)
	buffer.Add(replay.Transition{State: []float64{0}}, 2)
	buffer.Add(replay.Transition{State: []float64{1}}, 6)
	return NewServer(buffer, store, zerolog.New(io.Discard)), buffer
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, path, nil))
	return res
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t, nil)

	res := get(t, server.Routes(), "/healthz")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.NotEmpty(t, res.Header().Get(correlationHeader))
}

func TestCorrelationIDIsEchoed(t *testing.T) {
	server, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(correlationHeader, "abc-123")
	res := httptest.NewRecorder()
	server.Routes().ServeHTTP(res, req)
	assert.Equal(t, "abc-123", res.Header().Get(correlationHeader))
}

func TestBufferStats(t *testing.T) {
	server, _ := newTestServer(t, nil)

	res := get(t, server.Routes(), "/api/v1/buffer/stats")
	require.Equal(t, http.StatusOK, res.Code)

	var stats replay.Stats
	require.NoError(t, json.NewDecoder(res.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Len)
	assert.Equal(t, 4, stats.Capacity)
	assert.InDelta(t, 8.0, stats.TotalPriority, 1e-12)
	assert.InDelta(t, 6.0, stats.MaxPriority, 1e-12)
}

func TestBufferPriority(t *testing.T) {
	server, _ := newTestServer(t, nil)
	routes := server.Routes()

	res := get(t, routes, "/api/v1/buffer/priorities/1")
	require.Equal(t, http.StatusOK, res.Code)
	var body priorityResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, 1, body.Index)
	assert.InDelta(t, 6.0, body.Priority, 1e-12)

	assert.Equal(t, http.StatusNotFound, get(t, routes, "/api/v1/buffer/priorities/2").Code)
	assert.Equal(t, http.StatusNotFound, get(t, routes, "/api/v1/buffer/priorities/-1").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, routes, "/api/v1/buffer/priorities/abc").Code)
}

func TestRunRoutes(t *testing.T) {
	ctx := context.Background()
	store := results.NewMemoryStore()
	require.NoError(t, store.SaveRun(ctx, results.Run{ID: "run-1", Mode: "train", Episodes: 2, StartedAt: time.Now().UTC()}))
	require.NoError(t, store.AppendEpisode(ctx, results.Episode{RunID: "run-1", Episode: 1, Score: 3}))
	require.NoError(t, store.AppendEpisode(ctx, results.Episode{RunID: "run-1", Episode: 0, Score: 1}))

	server, _ := newTestServer(t, store)
	routes := server.Routes()

	res := get(t, routes, "/api/v1/runs/run-1")
	require.Equal(t, http.StatusOK, res.Code)
	var run results.Run
	require.NoError(t, json.NewDecoder(res.Body).Decode(&run))
	assert.Equal(t, "train", run.Mode)

	res = get(t, routes, "/api/v1/runs/run-1/episodes")
	require.Equal(t, http.StatusOK, res.Code)
	var episodes []results.Episode
	require.NoError(t, json.NewDecoder(res.Body).Decode(&episodes))
	require.Len(t, episodes, 2)
	assert.Equal(t, 0, episodes[0].Episode)

	assert.Equal(t, http.StatusNotFound, get(t, routes, "/api/v1/runs/missing").Code)
}

func TestRunRoutesAbsentWithoutStore(t *testing.T) {
	server, _ := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, get(t, server.Routes(), "/api/v1/runs/run-1").Code)
}

func TestClearBuffer(t *testing.T) {
	server, buffer := newTestServer(t, nil)
	routes := server.Routes()

	res := httptest.NewRecorder()
	routes.ServeHTTP(res, httptest.NewRequest(http.MethodDelete, "/api/v1/buffer", nil))
	require.Equal(t, http.StatusOK, res.Code)

	var body map[string]int
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, 2, body["dropped"])
	assert.Equal(t, 0, buffer.Len())

	res = get(t, routes, "/api/v1/buffer/stats")
	var stats replay.Stats
	require.NoError(t, json.NewDecoder(res.Body).Decode(&stats))
	assert.Equal(t, 0, stats.Len)
	assert.False(t, stats.Full)
}
