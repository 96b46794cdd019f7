// Package inject decides the outcome of simulated storefront requests.
//
// A Policy never sleeps: it returns the delay it wants applied and leaves
// the waiting to the caller, so outcomes can be checked without timing.
package inject

import (
	"math/rand"
	"sync"
	"time"
)

// CacheResult labels a lookup as served from the simulated cache or not.
type CacheResult string

const (
	CacheNone CacheResult = ""
	CacheHit  CacheResult = "hit"
	CacheMiss CacheResult = "miss"
)

// Input is what a policy gets to look at for one request.
type Input struct {
	Count    int64 // value of the endpoint family's request counter after increment
	Degraded bool  // disaster/latency mode
}

// Outcome is the per-request decision.
type Outcome struct {
	Succeeded bool
	Delay     time.Duration
	Cache     CacheResult
}

// Policy picks outcomes for the checkout and lookup endpoint families.
type Policy interface {
	Name() string
	Checkout(in Input) Outcome
	Lookup(in Input) Outcome
}

const (
	PolicyModulus       = "modulus"
	PolicyProbabilistic = "probabilistic"
)

// Modulus fails every FailEvery-th checkout and misses the cache on every
// MissEvery-th lookup. The cycle is fully reproducible.
type Modulus struct {
	FailEvery int64
	MissEvery int64
	HitDelay  time.Duration
	MissDelay time.Duration
}

// NewModulus returns the reference parameters: every 3rd checkout fails,
// every 2nd lookup is a slow miss.
func NewModulus() *Modulus {
	return &Modulus{
		FailEvery: 3,
		MissEvery: 2,
		HitDelay:  50 * time.Millisecond,
		MissDelay: 800 * time.Millisecond,
	}
}

func (m *Modulus) Name() string { return PolicyModulus }

func (m *Modulus) Checkout(in Input) Outcome {
	return Outcome{Succeeded: m.FailEvery <= 0 || in.Count%m.FailEvery != 0}
}

func (m *Modulus) Lookup(in Input) Outcome {
	if m.MissEvery > 0 && in.Count%m.MissEvery == 0 {
		return Outcome{Succeeded: true, Delay: m.MissDelay, Cache: CacheMiss}
	}
	return Outcome{Succeeded: true, Delay: m.HitDelay, Cache: CacheHit}
}

// Rand is the randomness a Probabilistic policy draws from. Float64 returns
// a value in [0, 1).
type Rand interface {
	Float64() float64
}

// Range is a closed interval of delays.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Draw maps u in [0, 1) uniformly onto the range.
func (r Range) Draw(u float64) time.Duration {
	return r.Min + time.Duration(u*float64(r.Max-r.Min))
}

// Probabilistic fails checkouts and misses lookups with fixed probabilities
// and draws latency from the normal or degraded range.
type Probabilistic struct {
	FailureRate float64
	MissRate    float64
	Normal      Range
	Degraded    Range
	MissPenalty time.Duration

	rnd Rand
}

// NewProbabilistic returns the reference parameters over rnd.
func NewProbabilistic(rnd Rand) *Probabilistic {
	return &Probabilistic{
		FailureRate: 0.1,
		MissRate:    0.3,
		Normal:      Range{Min: 10 * time.Millisecond, Max: 50 * time.Millisecond},
		Degraded:    Range{Min: 2 * time.Second, Max: 5 * time.Second},
		rnd:         rnd,
	}
}

func (p *Probabilistic) Name() string { return PolicyProbabilistic }

func (p *Probabilistic) latency(degraded bool) time.Duration {
	if degraded {
		return p.Degraded.Draw(p.rnd.Float64())
	}
	return p.Normal.Draw(p.rnd.Float64())
}

// Checkout draws the failure decision first, then the delay.
func (p *Probabilistic) Checkout(in Input) Outcome {
	failed := p.rnd.Float64() < p.FailureRate
	return Outcome{Succeeded: !failed, Delay: p.latency(in.Degraded)}
}

// Lookup draws the miss decision first, then the delay. Lookups always succeed.
func (p *Probabilistic) Lookup(in Input) Outcome {
	if p.rnd.Float64() < p.MissRate {
		return Outcome{Succeeded: true, Delay: p.latency(in.Degraded) + p.MissPenalty, Cache: CacheMiss}
	}
	return Outcome{Succeeded: true, Delay: p.latency(in.Degraded), Cache: CacheHit}
}

// LockedRand is a seeded source safe for use by concurrent handlers.
type LockedRand struct {
	mu  sync.Mutex
	src *rand.Rand
}

// NewLockedRand seeds a source; seed 0 picks one from the clock.
func NewLockedRand(seed int64) *LockedRand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LockedRand{src: rand.New(rand.NewSource(seed))}
}

func (r *LockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float64()
}

// Intn is used by the attacker pool to pick a target.
func (r *LockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}
