package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const defaultProbeTimeout = 2 * time.Second

// ProbeFunc returns nil when the dependency answered.
type ProbeFunc func(ctx context.Context) error

// ProbeChecker runs a ProbeFunc on an interval and caches the outcome. It
// starts unhealthy until the first successful probe.
type ProbeChecker struct {
	name    string
	probe   ProbeFunc
	timeout time.Duration
	log     zerolog.Logger
	healthy atomic.Bool
	failing atomic.Bool
}

func NewProbeChecker(name string, probe ProbeFunc, log zerolog.Logger, timeout time.Duration) *ProbeChecker {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &ProbeChecker{name: name, probe: probe, timeout: timeout, log: log}
}

func (c *ProbeChecker) Name() string    { return c.name }
func (c *ProbeChecker) IsHealthy() bool { return c.healthy.Load() }

// Check runs one probe bounded by the probe timeout and records the result.
// The first failure after a success logs at error; repeats log at debug.
func (c *ProbeChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.probe(ctx)
	c.healthy.Store(err == nil)
	wasFailing := c.failing.Swap(err != nil)
	switch {
	case err != nil && !wasFailing:
		c.log.Error().Stack().Str("checker", c.name).Err(err).Msg("health check failed")
	case err != nil:
		c.log.Debug().Str("checker", c.name).Err(err).Msg("health check still failing")
	case wasFailing:
		c.log.Info().Str("checker", c.name).Msg("health check recovered")
	}
	return err
}

// Start probes immediately and then on every tick until ctx is done.
func (c *ProbeChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	_ = c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.Check(ctx)
		}
	}
}
