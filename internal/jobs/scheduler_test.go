package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffeeaccount/respect-service/internal/domain"
)

type decayOnlyService struct {
	domain.RespectService
	calls   atomic.Int32
	percent atomic.Value
}

func (s *decayOnlyService) ApplyMonthlyDecay(_ context.Context, percent float64) (int, error) {
	s.calls.Add(1)
	s.percent.Store(percent)
	return 5, nil
}

func (s *decayOnlyService) ProvisionUser(_ context.Context, _ uuid.UUID) error { return nil }

func TestNewSchedulerRejectsBadExpression(t *testing.T) {
	_, err := NewScheduler(&decayOnlyService{}, "not a cron line", 0.05)
	assert.Error(t, err)
}

func TestSchedulerRunsDecay(t *testing.T) {
	svc := &decayOnlyService{}
	// Every second, to observe a tick without waiting for the monthly slot.
	s, err := NewScheduler(svc, "@every 1s", 0.05)
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for svc.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	require.Greater(t, svc.calls.Load(), int32(0))
	assert.Equal(t, 0.05, svc.percent.Load())
}

func TestSchedulerStopWaitsForJobs(t *testing.T) {
	svc := &decayOnlyService{}
	s, err := NewScheduler(svc, "@every 1h", 0.05)
	require.NoError(t, err)

	s.Start()
	s.Stop() // must not panic or hang
}
