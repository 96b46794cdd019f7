// Package config holds the runtime settings of the storefront: which of the
// storefront variants to run, the injector parameters and the supporting
// backends. Values come from defaults, an optional YAML file, then flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/CSroseX/bisney/internal/counter"
	"github.com/CSroseX/bisney/internal/inject"
	"github.com/CSroseX/bisney/internal/simulation"
	"github.com/CSroseX/bisney/internal/tenant"
)

// Variant names.
const (
	VariantClassic = "classic"
	VariantSwarm   = "swarm"
	VariantCoupons = "coupons"
)

// Variant fixes the parts of the storefront that differ between iterations.
type Variant struct {
	Name          string
	Policy        string        // default injector strategy
	LookupFamily  string        // counter family of the lookup endpoint
	LookupTenant  tenant.Tenant // tenant label of the lookup endpoint
	LookupLabel   string        // word used in messages: Favorite, Coupon
	LookupMessage string        // success message of the lookup endpoint
	LegacyToggles []string      // single-purpose toggle routes, e.g. /disaster
}

// LookupPath is the route of the lookup endpoint.
func (v Variant) LookupPath() string { return "/" + v.LookupFamily }

// Tenants lists the tenants the variant serves requests for.
func (v Variant) Tenants() []tenant.Tenant {
	return []tenant.Tenant{tenant.Merch, v.LookupTenant}
}

var variants = map[string]Variant{
	VariantClassic: {
		Name:          VariantClassic,
		Policy:        inject.PolicyModulus,
		LookupFamily:  counter.FamilyFavorite,
		LookupTenant:  tenant.Favorites,
		LookupLabel:   "Favorite",
		LookupMessage: "Favorite toggled",
		LegacyToggles: []string{simulation.ModeDisaster, simulation.ModeDDoS},
	},
	VariantSwarm: {
		Name:          VariantSwarm,
		Policy:        inject.PolicyProbabilistic,
		LookupFamily:  counter.FamilyFavorite,
		LookupTenant:  tenant.Favorites,
		LookupLabel:   "Favorite",
		LookupMessage: "Favorite toggled",
	},
	VariantCoupons: {
		Name:          VariantCoupons,
		Policy:        inject.PolicyModulus,
		LookupFamily:  counter.FamilyCoupon,
		LookupTenant:  tenant.Coupons,
		LookupLabel:   "Coupon",
		LookupMessage: "Coupon applied",
		LegacyToggles: []string{simulation.ModeDisaster},
	},
}

// LookupVariant returns the preset with the given name.
func LookupVariant(name string) (Variant, error) {
	v, ok := variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("unknown variant %q", name)
	}
	return v, nil
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Pretty      bool   `yaml:"pretty"`
	ServiceName string `yaml:"service_name"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"` // empty keeps counters in memory
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type AttackConfig struct {
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
	Idle    time.Duration `yaml:"idle"`
	Target  string        `yaml:"target"` // base URL; empty derives it from Addr
}

type ModulusConfig struct {
	FailEvery int64         `yaml:"fail_every"`
	MissEvery int64         `yaml:"miss_every"`
	HitDelay  time.Duration `yaml:"hit_delay"`
	MissDelay time.Duration `yaml:"miss_delay"`
}

type ProbabilisticConfig struct {
	FailureRate float64       `yaml:"failure_rate"`
	MissRate    float64       `yaml:"miss_rate"`
	NormalMin   time.Duration `yaml:"normal_min"`
	NormalMax   time.Duration `yaml:"normal_max"`
	DegradedMin time.Duration `yaml:"degraded_min"`
	DegradedMax time.Duration `yaml:"degraded_max"`
	MissPenalty time.Duration `yaml:"miss_penalty"`
	Seed        int64         `yaml:"seed"` // 0 seeds from the clock
}

type Config struct {
	Addr            string              `yaml:"addr"`
	Variant         string              `yaml:"variant"`
	Policy          string              `yaml:"policy"` // empty uses the variant's
	ShutdownTimeout time.Duration       `yaml:"shutdown_timeout"`
	RecoverInterval time.Duration       `yaml:"recover_interval"`
	Log             LogConfig           `yaml:"log"`
	Tracing         TracingConfig       `yaml:"tracing"`
	Redis           RedisConfig         `yaml:"redis"`
	Attack          AttackConfig        `yaml:"attack"`
	Modulus         ModulusConfig       `yaml:"modulus"`
	Probabilistic   ProbabilisticConfig `yaml:"probabilistic"`
}

// Default returns the reference settings.
func Default() Config {
	m := inject.NewModulus()
	p := inject.NewProbabilistic(nil)
	return Config{
		Addr:            "0.0.0.0:5001",
		Variant:         VariantClassic,
		ShutdownTimeout: 5 * time.Second,
		RecoverInterval: time.Second,
		Log:             LogConfig{Level: "info", Format: "json"},
		Tracing:         TracingConfig{Enabled: true, ServiceName: "bisney"},
		Attack: AttackConfig{
			Workers: 50,
			Timeout: time.Second,
			Idle:    100 * time.Millisecond,
		},
		Modulus: ModulusConfig{
			FailEvery: m.FailEvery,
			MissEvery: m.MissEvery,
			HitDelay:  m.HitDelay,
			MissDelay: m.MissDelay,
		},
		Probabilistic: ProbabilisticConfig{
			FailureRate: p.FailureRate,
			MissRate:    p.MissRate,
			NormalMin:   p.Normal.Min,
			NormalMax:   p.Normal.Max,
			DegradedMin: p.Degraded.Min,
			DegradedMax: p.Degraded.Max,
			MissPenalty: p.MissPenalty,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// PolicyName resolves the injector strategy in effect.
func (c Config) PolicyName() string {
	if c.Policy != "" {
		return c.Policy
	}
	if v, err := LookupVariant(c.Variant); err == nil {
		return v.Policy
	}
	return ""
}

// NewPolicy builds the configured injector strategy.
func (c Config) NewPolicy(rnd inject.Rand) (inject.Policy, error) {
	switch c.PolicyName() {
	case inject.PolicyModulus:
		return &inject.Modulus{
			FailEvery: c.Modulus.FailEvery,
			MissEvery: c.Modulus.MissEvery,
			HitDelay:  c.Modulus.HitDelay,
			MissDelay: c.Modulus.MissDelay,
		}, nil
	case inject.PolicyProbabilistic:
		p := inject.NewProbabilistic(rnd)
		p.FailureRate = c.Probabilistic.FailureRate
		p.MissRate = c.Probabilistic.MissRate
		p.Normal = inject.Range{Min: c.Probabilistic.NormalMin, Max: c.Probabilistic.NormalMax}
		p.Degraded = inject.Range{Min: c.Probabilistic.DegradedMin, Max: c.Probabilistic.DegradedMax}
		p.MissPenalty = c.Probabilistic.MissPenalty
		return p, nil
	}
	return nil, fmt.Errorf("unknown policy %q", c.PolicyName())
}

// AttackTarget is the base URL the attacker pool fires at.
func (c Config) AttackTarget() string {
	if c.Attack.Target != "" {
		return c.Attack.Target
	}
	return "http://" + loopback(c.Addr)
}

// loopback swaps a wildcard listen host for 127.0.0.1.
func loopback(addr string) string {
	switch {
	case strings.HasPrefix(addr, ":"):
		return "127.0.0.1" + addr
	case strings.HasPrefix(addr, "0.0.0.0:"):
		return "127.0.0.1" + strings.TrimPrefix(addr, "0.0.0.0")
	}
	return addr
}

// Validate reports every problem found, joined.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if _, err := LookupVariant(c.Variant); err != nil {
		errs = append(errs, err)
	}
	switch c.PolicyName() {
	case inject.PolicyModulus, inject.PolicyProbabilistic:
	default:
		errs = append(errs, fmt.Errorf("unknown policy %q", c.Policy))
	}
	if c.Modulus.FailEvery < 0 || c.Modulus.MissEvery < 0 {
		errs = append(errs, errors.New("modulus: fail_every and miss_every must not be negative"))
	}
	p := c.Probabilistic
	if p.FailureRate < 0 || p.FailureRate > 1 {
		errs = append(errs, fmt.Errorf("probabilistic: failure_rate %v outside [0, 1]", p.FailureRate))
	}
	if p.MissRate < 0 || p.MissRate > 1 {
		errs = append(errs, fmt.Errorf("probabilistic: miss_rate %v outside [0, 1]", p.MissRate))
	}
	if p.NormalMin < 0 || p.NormalMax < p.NormalMin {
		errs = append(errs, errors.New("probabilistic: normal delay range is inverted or negative"))
	}
	if p.DegradedMin < 0 || p.DegradedMax < p.DegradedMin {
		errs = append(errs, errors.New("probabilistic: degraded delay range is inverted or negative"))
	}
	if c.Attack.Workers < 0 {
		errs = append(errs, errors.New("attack: workers must not be negative"))
	}
	if c.Attack.Workers > 0 && (c.Attack.Timeout <= 0 || c.Attack.Idle <= 0) {
		errs = append(errs, errors.New("attack: timeout and idle must be positive"))
	}
	if c.RecoverInterval <= 0 {
		errs = append(errs, errors.New("recover_interval must be positive"))
	}
	return errors.Join(errs...)
}
