package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSroseX/bisney/internal/inject"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:5001", cfg.Addr)
	assert.Equal(t, 50, cfg.Attack.Workers)
	assert.Equal(t, "http://127.0.0.1:5001", cfg.AttackTarget())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bisney.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":8080"
variant: swarm
attack:
  workers: 5
  timeout: 250ms
probabilistic:
  failure_rate: 0.5
  seed: 9
redis:
  addr: localhost:6379
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, VariantSwarm, cfg.Variant)
	assert.Equal(t, 5, cfg.Attack.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Attack.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Attack.Idle, "unset keys keep defaults")
	assert.Equal(t, 0.5, cfg.Probabilistic.FailureRate)
	assert.Equal(t, int64(9), cfg.Probabilistic.Seed)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.AttackTarget())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("attack: [1, 2"), 0o600))
	_, err = Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"variant", func(c *Config) { c.Variant = "v9" }, `unknown variant "v9"`},
		{"policy", func(c *Config) { c.Policy = "coinflip" }, `unknown policy "coinflip"`},
		{"failure rate", func(c *Config) { c.Probabilistic.FailureRate = 1.5 }, "failure_rate"},
		{"miss rate", func(c *Config) { c.Probabilistic.MissRate = -0.1 }, "miss_rate"},
		{"normal range", func(c *Config) { c.Probabilistic.NormalMax = time.Millisecond }, "normal delay range"},
		{"degraded range", func(c *Config) { c.Probabilistic.DegradedMin = -time.Second }, "degraded delay range"},
		{"workers", func(c *Config) { c.Attack.Workers = -1 }, "workers"},
		{"attack timeout", func(c *Config) { c.Attack.Timeout = 0 }, "timeout and idle"},
		{"addr", func(c *Config) { c.Addr = "" }, "addr is required"},
		{"modulus", func(c *Config) { c.Modulus.FailEvery = -3 }, "fail_every"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestVariantPolicies(t *testing.T) {
	tests := []struct {
		variant, policy, lookup string
	}{
		{VariantClassic, inject.PolicyModulus, "/favorite"},
		{VariantSwarm, inject.PolicyProbabilistic, "/favorite"},
		{VariantCoupons, inject.PolicyModulus, "/coupon"},
	}
	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			cfg := Default()
			cfg.Variant = tt.variant

			p, err := cfg.NewPolicy(inject.NewLockedRand(1))
			require.NoError(t, err)
			assert.Equal(t, tt.policy, p.Name())

			v, err := LookupVariant(tt.variant)
			require.NoError(t, err)
			assert.Equal(t, tt.lookup, v.LookupPath())
		})
	}
}

func TestPolicyOverride(t *testing.T) {
	cfg := Default()
	cfg.Variant = VariantSwarm
	cfg.Policy = inject.PolicyModulus

	p, err := cfg.NewPolicy(nil)
	require.NoError(t, err)
	m, ok := p.(*inject.Modulus)
	require.True(t, ok)
	assert.Equal(t, int64(3), m.FailEvery)
}

func TestLoopback(t *testing.T) {
	assert.Equal(t, "127.0.0.1:5001", loopback("0.0.0.0:5001"))
	assert.Equal(t, "127.0.0.1:80", loopback(":80"))
	assert.Equal(t, "shop.local:5001", loopback("shop.local:5001"))
}

func TestVariantTenants(t *testing.T) {
	tests := map[string][]string{
		VariantClassic: {"merch", "favorites"},
		VariantSwarm:   {"merch", "favorites"},
		VariantCoupons: {"merch", "coupons"},
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := LookupVariant(name)
			require.NoError(t, err)
			var got []string
			for _, tn := range v.Tenants() {
				got = append(got, tn.ID)
			}
			assert.Equal(t, want, got)
		})
	}
}
