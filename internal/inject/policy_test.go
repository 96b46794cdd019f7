package inject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqRand replays a fixed sequence of draws.
type seqRand struct {
	vals []float64
	i    int
}

func (s *seqRand) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func TestModulusCheckoutCycle(t *testing.T) {
	m := NewModulus()

	var got []bool
	for n := int64(1); n <= 6; n++ {
		got = append(got, m.Checkout(Input{Count: n}).Succeeded)
	}

	assert.Equal(t, []bool{true, true, false, true, true, false}, got)
}

func TestModulusRules(t *testing.T) {
	m := NewModulus()

	for n := int64(1); n <= 60; n++ {
		for _, degraded := range []bool{false, true} {
			c := m.Checkout(Input{Count: n, Degraded: degraded})
			assert.Equal(t, n%3 != 0, c.Succeeded, "checkout n=%d", n)
			assert.Zero(t, c.Delay)

			l := m.Lookup(Input{Count: n, Degraded: degraded})
			assert.True(t, l.Succeeded)
			if n%2 == 0 {
				assert.Equal(t, CacheMiss, l.Cache, "lookup n=%d", n)
				assert.Equal(t, 800*time.Millisecond, l.Delay)
			} else {
				assert.Equal(t, CacheHit, l.Cache, "lookup n=%d", n)
				assert.Equal(t, 50*time.Millisecond, l.Delay)
			}
		}
	}
}

func TestProbabilisticCheckout(t *testing.T) {
	tests := []struct {
		name      string
		draws     []float64
		degraded  bool
		succeeded bool
		delay     time.Duration
	}{
		{"fails below rate", []float64{0.05, 0.5}, false, false, 30 * time.Millisecond},
		{"succeeds at rate", []float64{0.1, 0}, false, true, 10 * time.Millisecond},
		{"degraded range", []float64{0.9, 0.5}, true, true, 3500 * time.Millisecond},
		{"degraded failure", []float64{0.0, 0}, true, false, 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProbabilistic(&seqRand{vals: tt.draws})
			out := p.Checkout(Input{Count: 1, Degraded: tt.degraded})
			assert.Equal(t, tt.succeeded, out.Succeeded)
			assert.Equal(t, tt.delay, out.Delay)
			assert.Equal(t, CacheNone, out.Cache)
		})
	}
}

func TestProbabilisticLookup(t *testing.T) {
	p := NewProbabilistic(&seqRand{vals: []float64{0.2, 0.25, 0.7, 0.75}})
	p.MissPenalty = 100 * time.Millisecond

	miss := p.Lookup(Input{})
	assert.Equal(t, CacheMiss, miss.Cache)
	assert.Equal(t, 120*time.Millisecond, miss.Delay)

	hit := p.Lookup(Input{})
	assert.Equal(t, CacheHit, hit.Cache)
	assert.Equal(t, 40*time.Millisecond, hit.Delay)
	assert.True(t, hit.Succeeded)
}

func TestProbabilisticReproducibleWithSeed(t *testing.T) {
	a := NewProbabilistic(NewLockedRand(42))
	b := NewProbabilistic(NewLockedRand(42))

	for i := 0; i < 100; i++ {
		require.Equal(t, a.Checkout(Input{}), b.Checkout(Input{}))
		require.Equal(t, a.Lookup(Input{Degraded: true}), b.Lookup(Input{Degraded: true}))
	}
}

func TestProbabilisticDelayWithinRange(t *testing.T) {
	p := NewProbabilistic(NewLockedRand(7))
	for i := 0; i < 500; i++ {
		d := p.Checkout(Input{}).Delay
		require.GreaterOrEqual(t, d, p.Normal.Min)
		require.LessOrEqual(t, d, p.Normal.Max)

		d = p.Checkout(Input{Degraded: true}).Delay
		require.GreaterOrEqual(t, d, p.Degraded.Min)
		require.LessOrEqual(t, d, p.Degraded.Max)
	}
}

func TestInventoryLag(t *testing.T) {
	assert.Equal(t, 15.0, InventoryLag(true, false))
	assert.Equal(t, 120.0, InventoryLag(false, false))
	assert.Equal(t, 600.0, InventoryLag(true, true))
	assert.Equal(t, 600.0, InventoryLag(false, true))
}
