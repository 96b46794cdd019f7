package simulation

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// State holds the process-wide simulation flags. Toggles are the only way to
// change a flag; every request handler reads them.
type State struct {
	mu        sync.RWMutex
	flags     [numFlags]bool
	expires   [numFlags]time.Time
	stats     Stats
	observers []func(Change)

	// notifyMu spans a transition and its notification so observers see
	// changes in the order they were made.
	notifyMu sync.Mutex

	now func() time.Time
}

func NewState() *State {
	return &State{now: time.Now}
}

// OnChange registers fn to run after every flag transition. Observers run
// outside the state lock, in registration order, one transition at a time.
// An observer may read the state but must not toggle it.
func (s *State) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func resolve(mode string) (flag, error) {
	switch mode {
	case ModeDisaster, ModeLatency:
		return flagDisaster, nil
	case ModeDDoS:
		return flagDDoS, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
}

// Toggle flips the named flag and returns its new value.
func (s *State) Toggle(mode string) (bool, error) {
	return s.ToggleFor(mode, 0)
}

// ToggleFor flips the named flag. When the flag turns on and ttl is positive
// it reverts on its own once ttl has passed; turning it off clears any expiry.
func (s *State) ToggleFor(mode string, ttl time.Duration) (bool, error) {
	f, err := resolve(mode)
	if err != nil {
		return false, err
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	active := !s.flags[f]
	s.flags[f] = active
	s.expires[f] = time.Time{}
	if active && ttl > 0 {
		s.expires[f] = s.now().Add(ttl)
	}
	s.stats.Toggles++
	if active {
		s.stats.LastInjectionTime = s.now()
	} else {
		s.stats.LastRecoveryTime = s.now()
	}
	observers := s.observers
	s.mu.Unlock()

	notify(observers, Change{Flag: f.String(), Mode: mode, Active: active})
	return active, nil
}

func notify(observers []func(Change), c Change) {
	for _, fn := range observers {
		fn(c)
	}
}

// active reports the named flag.
func (s *State) active(mode string) (bool, error) {
	f, err := resolve(mode)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[f], nil
}

// Degraded reports disaster/latency mode.
func (s *State) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[flagDisaster]
}

// DDoS reports whether the attacker pool should be firing.
func (s *State) DDoS() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[flagDDoS]
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		DisasterMode: s.flags[flagDisaster],
		DDoSMode:     s.flags[flagDDoS],
	}
	for f := flag(0); f < numFlags; f++ {
		if s.expires[f].IsZero() {
			continue
		}
		if snap.Expires == nil {
			snap.Expires = make(map[string]time.Time)
		}
		snap.Expires[f.String()] = s.expires[f]
	}
	return snap
}

func (s *State) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *State) RecordRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.TotalRequests++
}

func (s *State) RecordFail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.FailedRequests++
}

func (s *State) RecordDelay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.DelayedRequests++
}

// Sweep switches off every flag whose expiry is at or before now and
// returns the transitions it made.
func (s *State) Sweep(now time.Time) []Change {
	var changes []Change

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	for f := flag(0); f < numFlags; f++ {
		if !s.flags[f] || s.expires[f].IsZero() || now.Before(s.expires[f]) {
			continue
		}
		s.flags[f] = false
		s.expires[f] = time.Time{}
		s.stats.LastRecoveryTime = now
		changes = append(changes, Change{Flag: f.String(), Mode: f.String(), Recovered: true})
	}
	observers := s.observers
	s.mu.Unlock()

	for _, c := range changes {
		notify(observers, c)
	}
	return changes
}

// AutoRecover sweeps expired flags every interval until ctx is done.
func (s *State) AutoRecover(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}
