package serve

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsEveryInterval(t *testing.T) {
	s, err := NewScheduler(discard())
	require.NoError(t, err)
	defer s.Stop()

	var runs atomic.Int64
	require.NoError(t, s.Schedule("@every 10ms", func() { runs.Add(1) }))
	s.Start()

	require.Eventually(t, func() bool { return runs.Load() >= 2 },
		5*time.Second, 10*time.Millisecond)
}

func TestSchedulerRecoversJobPanic(t *testing.T) {
	s, err := NewScheduler(discard())
	require.NoError(t, err)
	defer s.Stop()

	var runs atomic.Int64
	require.NoError(t, s.Schedule("@every 10ms", func() {
		runs.Add(1)
		panic("job failure")
	}))
	s.Start()

	// panics must not stop subsequent runs
	require.Eventually(t, func() bool { return runs.Load() >= 2 },
		5*time.Second, 10*time.Millisecond)
}

func TestSchedulerRejectsBadSpecs(t *testing.T) {
	s, err := NewScheduler(discard())
	require.NoError(t, err)
	defer s.Stop()

	assert.Error(t, s.Schedule("@every nonsense", func() {}))
	assert.Error(t, s.Schedule("not a cron line", func() {}))
}
