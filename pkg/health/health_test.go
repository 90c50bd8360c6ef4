package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysPass(context.Context) error { return nil }

func alwaysFail(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func probeBody(t *testing.T, w *httptest.ResponseRecorder) probeResponse {
	t.Helper()
	var body probeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func serve(h *Health, endpoint func(http.ResponseWriter, *http.Request), path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLiveEndpointHealthy(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, alwaysPass)
	h.AddLivenessCheck("gc-pause", time.Second, alwaysPass)

	w := serve(h, h.LiveEndpoint, "/livez")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "ok", probeBody(t, w).Status)
}

func TestLiveEndpointReportsFailure(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, alwaysFail("connection refused"))

	// Probes start healthy; drive past the consecutive-failure threshold.
	ctx := context.Background()
	for i := 0; i < failAfter; i++ {
		h.liveness[0].runOnce(ctx)
	}

	w := serve(h, h.LiveEndpoint, "/livez")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := probeBody(t, w)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestFailureBelowThresholdStaysHealthy(t *testing.T) {
	h := New()
	h.AddLivenessCheck("flaky", time.Second, alwaysFail("temporary"))

	ctx := context.Background()
	for i := 0; i < failAfter-1; i++ {
		h.liveness[0].runOnce(ctx)
	}

	assert.Equal(t, http.StatusOK, serve(h, h.LiveEndpoint, "/livez").Code)
}

func TestReadyEndpointGate(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, alwaysPass)

	// Not ready until SetReady(true).
	w := serve(h, h.ReadyEndpoint, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, probeBody(t, w).Checks, "_readiness")

	h.SetReady(true)
	assert.Equal(t, http.StatusOK, serve(h, h.ReadyEndpoint, "/readyz").Code)

	// Closing the gate drains again.
	h.SetReady(false)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, h.ReadyEndpoint, "/readyz").Code)
}

func TestReadyEndpointOneFailingProbe(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, alwaysPass)
	h.AddReadinessCheck("redis", time.Second, alwaysFail("refused"))
	h.SetReady(true)

	ctx := context.Background()
	for i := 0; i < failAfter; i++ {
		h.readiness[1].runOnce(ctx)
	}

	w := serve(h, h.ReadyEndpoint, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := probeBody(t, w)
	assert.Contains(t, body.Checks, "redis")
	assert.NotContains(t, body.Checks, "postgres")
}

func TestIsReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, alwaysPass)

	assert.False(t, h.IsReady())
	h.SetReady(true)
	assert.True(t, h.IsReady())
	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestProbeRecovers(t *testing.T) {
	down := true
	h := New()
	h.AddLivenessCheck("flaky", time.Second, func(context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})
	p := h.liveness[0]
	ctx := context.Background()

	for i := 0; i < failAfter; i++ {
		p.runOnce(ctx)
	}
	assert.False(t, p.healthy.Load())

	down = false
	for i := 0; i < recoverAfter; i++ {
		p.runOnce(ctx)
	}
	assert.True(t, p.healthy.Load())
}

func TestProbeStoresLastError(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, alwaysFail("timeout"))
	p := h.liveness[0]

	assert.Nil(t, p.lastError())
	p.runOnce(context.Background())
	assert.EqualError(t, p.lastError(), "timeout")
}

func TestStopIsIdempotent(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, alwaysPass)

	h.Start(context.Background(), 100*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestEndpointsWithNoProbes(t *testing.T) {
	h := New()

	assert.Equal(t, http.StatusOK, serve(h, h.LiveEndpoint, "/livez").Code)

	h.SetReady(true)
	assert.Equal(t, http.StatusOK, serve(h, h.ReadyEndpoint, "/readyz").Code)
}

func TestConcurrentProbeAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("a", time.Second, alwaysFail("err"))
	h.AddReadinessCheck("b", time.Second, alwaysPass)
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 10*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.IsReady()
				serve(h, h.LiveEndpoint, "/livez")
				serve(h, h.ReadyEndpoint, "/readyz")
			}
		}()
	}
	wg.Wait()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "goroutines")
}

func TestGCMaxPauseCheck(t *testing.T) {
	assert.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
