package healthprobe

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	hc := New()

	require.NotNil(t, hc)
	assert.WithinDuration(t, time.Now(), hc.startTime, time.Second)
	assert.False(t, hc.ready.Load(), "should not be ready by default")
}

func TestUptime_GrowsMonotonically(t *testing.T) {
	hc := New()

	first := hc.Uptime()
	time.Sleep(10 * time.Millisecond)
	second := hc.Uptime()

	assert.Greater(t, second, first, "Uptime should grow between calls")
	assert.GreaterOrEqual(t, second, 10*time.Millisecond)
}

func TestUptime_ZeroAtStart(t *testing.T) {
	hc := New()

	assert.Less(t, hc.Uptime(), time.Second, "a freshly created checker should report a small uptime")
	assert.GreaterOrEqual(t, hc.Uptime(), time.Duration(0))
}

func TestSetReady(t *testing.T) {
	tests := []struct {
		name     string
		setReady bool
	}{
		{name: "set_ready_true", setReady: true},
		{name: "set_ready_false", setReady: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New()
			hc.SetReady(tt.setReady)
			assert.Equal(t, tt.setReady, hc.ready.Load())
		})
	}
}

func TestSetReady_Toggle(t *testing.T) {
	hc := New()

	assert.False(t, hc.ready.Load(), "should start not ready")

	hc.SetReady(true)
	assert.True(t, hc.ready.Load())

	hc.SetReady(false)
	assert.False(t, hc.ready.Load())

	hc.SetReady(true)
	assert.True(t, hc.ready.Load())
}

func TestHealth_AlwaysReturnsOKRegardlessOfReadyState(t *testing.T) {
	hc := New()

	for _, ready := range []bool{false, true} {
		hc.SetReady(ready)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		hc.Health()(w, req)

		resp := w.Result()
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var body HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body.Status)
		assert.NotEmpty(t, body.Uptime, "health response should echo the process uptime")
	}
}

func TestReady_NotReadyInitially(t *testing.T) {
	hc := New()

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	hc.Ready()(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "not_ready", body.Status)
	assert.NotEmpty(t, body.Message)
}

func TestReady_ReadyAfterSet(t *testing.T) {
	hc := New()
	hc.SetReady(true)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	hc.Ready()(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ready", body.Status)
	assert.NotEmpty(t, body.Uptime)
}

func TestReady_StateChanges(t *testing.T) {
	hc := New()
	handler := hc.Ready()

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	hc.SetReady(true)
	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	w = httptest.NewRecorder()
	handler(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	hc.SetReady(false)
	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	w = httptest.NewRecorder()
	handler(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthChecker_ConcurrentAccess(t *testing.T) {
	hc := New()
	handler := hc.Ready()

	done := make(chan bool)

	go func() {
		for i := 0; i < 100; i++ {
			hc.SetReady(i%2 == 0)
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			w := httptest.NewRecorder()
			handler(w, req)
			_ = hc.Uptime()
		}
		done <- true
	}()

	<-done
	<-done
}
