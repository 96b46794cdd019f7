package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CSroseX/bisney/internal/config"
)

type flags struct {
	configPath    string
	addr          string
	variant       string
	policy        string
	seed          int64
	redisAddr     string
	attackWorkers int
	logLevel      string
	logFormat     string
	noTracing     bool
}

func main() {
	if err := newRootCmd(&flags{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(f *flags) *cobra.Command {
	root := &cobra.Command{
		Use:           "bisney",
		Short:         "Bisney beach gear storefront that emits synthetic telemetry",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&f.variant, "variant", config.VariantClassic, "storefront variant: classic, swarm or coupons")
	pf.StringVar(&f.logLevel, "log-level", "info", "debug, info, warn or error")
	pf.StringVar(&f.logFormat, "log-format", "json", "json or console")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, f)
		},
	}
	for _, cmd := range []*cobra.Command{root, serve} {
		fs := cmd.Flags()
		fs.StringVar(&f.addr, "addr", "0.0.0.0:5001", "listen address")
		fs.StringVar(&f.policy, "policy", "", "injector policy: modulus or probabilistic (default from variant)")
		fs.Int64Var(&f.seed, "seed", 0, "seed for the probabilistic policy, 0 picks one")
		fs.StringVar(&f.redisAddr, "redis-addr", "", "Redis address for counters and analytics, empty keeps them in memory")
		fs.IntVar(&f.attackWorkers, "attack-workers", 50, "background attacker workers, 0 disables")
		fs.BoolVar(&f.noTracing, "no-tracing", false, "disable span export")
	}

	root.AddCommand(serve, newAttackCmd(f))
	return root
}

// loadConfig reads the file and lays explicitly set flags over it.
func loadConfig(cmd *cobra.Command, f *flags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("addr") {
		cfg.Addr = f.addr
	}
	if changed("variant") {
		cfg.Variant = f.variant
	}
	if changed("policy") {
		cfg.Policy = f.policy
	}
	if changed("seed") {
		cfg.Probabilistic.Seed = f.seed
	}
	if changed("redis-addr") {
		cfg.Redis.Addr = f.redisAddr
	}
	if changed("attack-workers") {
		cfg.Attack.Workers = f.attackWorkers
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if changed("no-tracing") {
		cfg.Tracing.Enabled = !f.noTracing
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
