package simulation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleTwiceRestores(t *testing.T) {
	for _, mode := range []string{ModeDisaster, ModeLatency, ModeDDoS} {
		t.Run(mode, func(t *testing.T) {
			s := NewState()
			before, err := s.active(mode)
			require.NoError(t, err)

			on, err := s.Toggle(mode)
			require.NoError(t, err)
			assert.Equal(t, !before, on)

			off, err := s.Toggle(mode)
			require.NoError(t, err)
			assert.Equal(t, before, off)
		})
	}
}

func TestLatencyAliasesDisaster(t *testing.T) {
	s := NewState()

	_, err := s.Toggle(ModeLatency)
	require.NoError(t, err)
	assert.True(t, s.Degraded())
	assert.True(t, s.Snapshot().DisasterMode)
	assert.False(t, s.DDoS())
}

func TestToggleUnknownModeChangesNothing(t *testing.T) {
	s := NewState()
	var changes int
	s.OnChange(func(Change) { changes++ })

	_, err := s.Toggle("bogus")
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.Equal(t, Snapshot{}, s.Snapshot())
	assert.Zero(t, s.Stats().Toggles)
	assert.Zero(t, changes)
}

func TestOnChangeSeesTransitions(t *testing.T) {
	s := NewState()
	var got []Change
	s.OnChange(func(c Change) { got = append(got, c) })

	_, _ = s.Toggle(ModeLatency)
	_, _ = s.Toggle(ModeDDoS)
	_, _ = s.Toggle(ModeLatency)

	assert.Equal(t, []Change{
		{Flag: ModeDisaster, Mode: ModeLatency, Active: true},
		{Flag: ModeDDoS, Mode: ModeDDoS, Active: true},
		{Flag: ModeDisaster, Mode: ModeLatency, Active: false},
	}, got)
}

func TestSweepExpiresFlags(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewState()
	s.now = func() time.Time { return start }

	_, err := s.ToggleFor(ModeDDoS, 30*time.Second)
	require.NoError(t, err)
	_, err = s.Toggle(ModeDisaster)
	require.NoError(t, err)
	assert.Equal(t, start.Add(30*time.Second), s.Snapshot().Expires[ModeDDoS])

	assert.Empty(t, s.Sweep(start.Add(29*time.Second)))
	assert.True(t, s.DDoS())

	changes := s.Sweep(start.Add(30 * time.Second))
	assert.Equal(t, []Change{{Flag: ModeDDoS, Mode: ModeDDoS, Recovered: true}}, changes)
	assert.False(t, s.DDoS())
	assert.True(t, s.Degraded(), "flags without expiry stay on")
	assert.Nil(t, s.Snapshot().Expires)
	assert.Equal(t, start.Add(30*time.Second), s.Stats().LastRecoveryTime)
}

func TestToggleOffClearsExpiry(t *testing.T) {
	s := NewState()
	_, _ = s.ToggleFor(ModeDisaster, time.Minute)
	_, _ = s.Toggle(ModeDisaster)

	assert.Nil(t, s.Snapshot().Expires)
	assert.Empty(t, s.Sweep(time.Now().Add(time.Hour)))
}

func TestStatsCounters(t *testing.T) {
	s := NewState()
	s.RecordRequest()
	s.RecordRequest()
	s.RecordFail()
	s.RecordDelay()

	st := s.Stats()
	assert.Equal(t, int64(2), st.TotalRequests)
	assert.Equal(t, int64(1), st.FailedRequests)
	assert.Equal(t, int64(1), st.DelayedRequests)
}

func TestAutoRecoverStopsWithContext(t *testing.T) {
	s := NewState()
	_, err := s.ToggleFor(ModeDDoS, time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.AutoRecover(ctx, time.Millisecond) }()

	require.Eventually(t, func() bool { return !s.DDoS() }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestObserversSeeTogglesInOrder(t *testing.T) {
	s := NewState()

	var (
		mu        sync.Mutex
		published bool
		once      sync.Once
	)
	entered := make(chan struct{})
	release := make(chan struct{})
	s.OnChange(func(c Change) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(entered)
			<-release
		}
		mu.Lock()
		published = c.Active
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Toggle(ModeDDoS)
	}()
	<-entered
	go func() {
		defer wg.Done()
		s.Toggle(ModeDDoS)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, s.DDoS())
	assert.Equal(t, s.DDoS(), published)
}
