package hub

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reaper periodically removes connections whose outbound path is no longer
// usable. It is the backstop for connections whose lifecycle adapter never
// got to unregister them (and for sinks closed by the router on a failed
// delivery); staleness detection latency is bounded by the sweep interval.
type Reaper struct {
	logger   *zap.Logger
	presence *Presence
	registry *Registry
	interval time.Duration
}

func NewReaper(
	logger *zap.Logger,
	presence *Presence,
	registry *Registry,
	interval time.Duration,
) *Reaper {
	return &Reaper{
		logger:   logger,
		presence: presence,
		registry: registry,
		interval: interval,
	}
}

// Run sweeps until the context is cancelled. It is meant to be started
// once, as a goroutine, during process initialization.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep unregisters every closed connection still present in the registry.
// Unregistration is idempotent, so racing an explicit disconnect of the
// same connection is harmless.
func (r *Reaper) Sweep() {
	reaped := 0

	for _, connection := range r.registry.AllConnections() {
		if !connection.Closed() {
			continue
		}

		r.presence.Disconnect(connection.UserId, connection.Id)
		reaped++
	}

	if reaped > 0 {
		r.logger.Info("reaped stale connections",
			zap.Int("count", reaped))
	}
}
