// Package attack floods the storefront with its own traffic while ddos mode
// is on.
package attack

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Body is what every attacking request posts.
const Body = `{"product_id":1,"product_name":"DDoS"}`

// Picker chooses the target of the next request.
type Picker interface {
	Intn(n int) int
}

// Pool is a fixed set of workers. Each worker fires requests back to back
// while Active reports true and polls every Idle otherwise.
type Pool struct {
	Workers int
	Targets []string     // full URLs, one picked per request
	Client  *http.Client // its Timeout bounds each request
	Idle    time.Duration
	Active  func() bool
	Rand    Picker
}

// Targets builds the self endpoints for base, e.g. http://127.0.0.1:5001.
func Targets(base string, paths ...string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, base+p)
	}
	return out
}

// Run blocks until ctx is done. Request errors never stop a worker.
func (p *Pool) Run(ctx context.Context) error {
	if p.Workers <= 0 || len(p.Targets) == 0 {
		<-ctx.Done()
		return nil
	}
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: time.Second}
	}
	idle := p.Idle
	if idle <= 0 {
		idle = 100 * time.Millisecond
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.Workers; i++ {
		g.Go(func() error {
			p.work(ctx, client, idle)
			return nil
		})
	}
	return g.Wait()
}

func (p *Pool) work(ctx context.Context, client *http.Client, idle time.Duration) {
	for ctx.Err() == nil {
		if p.Active != nil && !p.Active() {
			select {
			case <-ctx.Done():
			case <-time.After(idle):
			}
			continue
		}
		p.fire(ctx, client, p.pick())
	}
}

func (p *Pool) pick() string {
	if len(p.Targets) == 1 || p.Rand == nil {
		return p.Targets[0]
	}
	return p.Targets[p.Rand.Intn(len(p.Targets))]
}

// fire sends one request and throws the outcome away.
func (p *Pool) fire(ctx context.Context, client *http.Client, url string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(Body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
