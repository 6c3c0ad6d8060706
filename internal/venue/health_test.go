package venue

import (
	"errors"
	"testing"
	"time"

	"github.com/crossvenue/arbengine/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestHealthTracker_TransitionsToOffline(t *testing.T) {
	tr := NewHealthTracker(types.VenuePolymarket, time.Minute)

	for i := 0; i < 2; i++ {
		_, _ = tr.Call(func() (int64, error) { return 0, errors.New("transport reset") })
	}
	assert.Equal(t, types.HealthHealthy, tr.Status().Status)

	_, _ = tr.Call(func() (int64, error) { return 0, errors.New("transport reset") })
	assert.Equal(t, types.HealthDegraded, tr.Status().Status)

	for i := 0; i < 7; i++ {
		_, _ = tr.Call(func() (int64, error) { return 0, errors.New("transport reset") })
	}

	assert.Equal(t, types.HealthOffline, tr.Status().Status)
	assert.True(t, tr.IsOffline())
}

func TestHealthTracker_SuccessResetsConsecutiveErrors(t *testing.T) {
	tr := NewHealthTracker(types.VenuePolymarket, time.Minute)

	for i := 0; i < 4; i++ {
		_, _ = tr.Call(func() (int64, error) { return 0, errors.New("boom") })
	}
	assert.Equal(t, types.HealthDegraded, tr.Status().Status)

	_, _ = tr.Call(func() (int64, error) { return 12, nil })
	health := tr.Status()
	assert.Equal(t, types.HealthHealthy, health.Status)
	assert.Equal(t, 0, health.ConsecutiveErrors)
}
