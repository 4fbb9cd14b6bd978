package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakePurger struct {
	mu    sync.Mutex
	calls []time.Time
	n     int64
	err   error
}

func (f *fakePurger) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.n, f.err
}

func (f *fakePurger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestScheduler_RunPurgesImmediatelyAndStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	purger := &fakePurger{n: 3}
	metrics := NewMetrics()
	s, err := NewScheduler(purger, "@every 1h", metrics)
	require.NoError(t, err)

	fixed := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.Run()
	s.Stop()

	require.Equal(t, 1, purger.count())
	assert.Equal(t, fixed, purger.calls[0])
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.ResetTokensPurged))
}

func TestScheduler_PurgeErrorIsNotCounted(t *testing.T) {
	purger := &fakePurger{n: 5, err: errors.New("db down")}
	metrics := NewMetrics()
	s, err := NewScheduler(purger, "@every 1h", metrics)
	require.NoError(t, err)

	s.purgeExpired()

	assert.Equal(t, 1, purger.count())
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.ResetTokensPurged))
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler(&fakePurger{}, "not a schedule", nil)
	assert.Error(t, err)
}
