package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/CSroseX/bisney/internal/attack"
	"github.com/CSroseX/bisney/internal/config"
	"github.com/CSroseX/bisney/internal/inject"
)

func newAttackCmd(f *flags) *cobra.Command {
	var (
		target   string
		workers  int
		duration time.Duration
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "attack",
		Short: "Flood a running storefront with cart and lookup requests",
		Example: `  bisney attack --target http://127.0.0.1:5001 --workers 50 --duration 30s
  bisney attack --target http://shop:5001 --variant coupons`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			variant := f.variant
			if f.configPath != "" {
				cfg, err := config.Load(f.configPath)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("variant") {
					variant = cfg.Variant
				}
			}
			v, err := config.LookupVariant(variant)
			if err != nil {
				return err
			}
			if workers <= 0 {
				return fmt.Errorf("--workers must be positive, got %d", workers)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			pool := &attack.Pool{
				Workers: workers,
				Targets: attack.Targets(strings.TrimSuffix(target, "/"), "/cart", v.LookupPath()),
				Client:  &http.Client{Timeout: timeout},
				Rand:    inject.NewLockedRand(0),
			}
			fmt.Fprintf(cmd.OutOrStdout(), "attacking %s with %d workers\n", target, workers)
			return pool.Run(ctx)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&target, "target", "http://127.0.0.1:5001", "base URL of the storefront")
	fs.IntVar(&workers, "workers", 50, "concurrent workers")
	fs.DurationVar(&duration, "duration", 0, "stop after this long, 0 runs until interrupted")
	fs.DurationVar(&timeout, "timeout", time.Second, "per-request timeout")
	return cmd
}
