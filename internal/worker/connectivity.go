// Package worker contains the background coordinators: the connectivity
// probe that drives the session's online/offline state machine, and the
// periodic local backup writer.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Prober checks whether the classifier service is reachable.
// This interface allows testing with mock implementations.
type Prober interface {
	Probe(ctx context.Context) error
}

// ConnectivitySink receives connectivity transitions. Implemented by the
// session: going online triggers a drain of the pending queue.
type ConnectivitySink interface {
	Offline() bool
	PendingCount() int
	SetOnline(ctx context.Context, online bool)
}

// HTTPProber probes reachability with a HEAD request against the service
// base URL. Any response at all counts as reachable; only transport errors
// indicate connectivity loss.
type HTTPProber struct {
	Client *http.Client
	URL    string
}

// NewHTTPProber creates a prober with a short per-probe timeout.
func NewHTTPProber(url string) *HTTPProber {
	return &HTTPProber{
		Client: &http.Client{Timeout: 10 * time.Second},
		URL:    url,
	}
}

// Probe performs one reachability check.
func (p *HTTPProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", p.URL, err)
	}
	resp.Body.Close()
	return nil
}

// ConnectivityCoordinator periodically probes the classifier service and
// feeds the result into the session. The immediate probe on start provides
// the restart-time drain attempt for a queue reloaded from disk.
type ConnectivityCoordinator struct {
	sink     ConnectivitySink
	prober   Prober
	interval time.Duration
}

// NewConnectivityCoordinator creates a coordinator over the given sink.
func NewConnectivityCoordinator(sink ConnectivitySink, prober Prober, interval time.Duration) *ConnectivityCoordinator {
	return &ConnectivityCoordinator{
		sink:     sink,
		prober:   prober,
		interval: interval,
	}
}

// Run starts the coordinator loop.
func (c *ConnectivityCoordinator) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "connectivity-coordinator",
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Probe immediately on start
	c.probe(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "connectivity-coordinator",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			c.probe(ctx)
		}
	}
}

// probe runs one reachability check and pushes the transition into the sink.
func (c *ConnectivityCoordinator) probe(ctx context.Context) {
	err := c.prober.Probe(ctx)
	if ctx.Err() != nil {
		return // Graceful shutdown, don't record a transition
	}

	wasOffline := c.sink.Offline()
	if err != nil {
		if !wasOffline {
			slog.Warn("connectivity lost",
				"component", "worker",
				"worker", "connectivity-coordinator",
				"error", err,
			)
		}
		c.sink.SetOnline(ctx, false)
		return
	}

	if wasOffline {
		slog.Info("connectivity restored",
			"component", "worker",
			"worker", "connectivity-coordinator",
			"pending", c.sink.PendingCount(),
		)
	}
	c.sink.SetOnline(ctx, true)
}
