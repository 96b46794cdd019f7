package analytics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "analytics:"

// Analytics keeps per-tenant request and error counts in Redis so they
// outlive the process, unlike the Prometheus series.
type Analytics struct {
	redis *redis.Client
}

func NewAnalytics(r *redis.Client) *Analytics {
	return &Analytics{redis: r}
}

func reqKey(tenantID, path string) string { return keyPrefix + "req:" + tenantID + ":" + path }
func latKey(tenantID, path string) string { return keyPrefix + "lat:" + tenantID + ":" + path }
func errKey(tenantID, path string) string { return keyPrefix + "err:" + tenantID + ":" + path }

// RecordRequest counts one request for tenant + endpoint, remembers its
// latency for an hour and counts it as an error when statusCode >= 400.
func (a *Analytics) RecordRequest(ctx context.Context, tenantID, path string, duration time.Duration, statusCode int) error {
	_, err := a.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, reqKey(tenantID, path))
		pipe.Set(ctx, latKey(tenantID, path), duration.Milliseconds(), time.Hour)
		if statusCode >= 400 {
			pipe.Incr(ctx, errKey(tenantID, path))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record analytics for %s%s: %w", tenantID, path, err)
	}
	return nil
}

// Endpoint is the aggregate for one tenant + path.
type Endpoint struct {
	Requests  int `json:"requests"`
	Errors    int `json:"errors"`
	LatencyMs int `json:"last_latency_ms"`
}

// FetchTenantAnalytics returns the aggregates of every path the tenant has
// been seen on, keyed by path.
func (a *Analytics) FetchTenantAnalytics(ctx context.Context, tenantID string) (map[string]Endpoint, error) {
	result := make(map[string]Endpoint)
	prefix := reqKey(tenantID, "")

	iter := a.redis.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		path := strings.TrimPrefix(iter.Val(), prefix)

		var e Endpoint
		var err error
		if e.Requests, err = a.getInt(ctx, iter.Val()); err != nil {
			return nil, err
		}
		if e.Errors, err = a.getInt(ctx, errKey(tenantID, path)); err != nil {
			return nil, err
		}
		if e.LatencyMs, err = a.getInt(ctx, latKey(tenantID, path)); err != nil {
			return nil, err
		}
		result[path] = e
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan analytics for %s: %w", tenantID, err)
	}
	return result, nil
}

// getInt reads an integer key; a missing key reads as 0.
func (a *Analytics) getInt(ctx context.Context, key string) (int, error) {
	val, err := a.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", key, err)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
