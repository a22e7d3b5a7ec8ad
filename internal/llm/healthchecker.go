package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vcalderon2009/note-taker/internal/health"
)

// NewProviderHealthChecker monitors an LLM provider. Providers exposing
// HealthPing are pinged; others are probed with a one-token completion.
func NewProviderHealthChecker(p Provider, log zerolog.Logger, probeTimeout time.Duration) *health.ProbeChecker {
	log = log.With().Str("provider", p.Name()).Logger()
	return health.NewProbeChecker("llm", func(ctx context.Context) error {
		if pinger, ok := p.(health.HealthPinger); ok {
			return pinger.HealthPing(ctx)
		}
		one := 1
		_, err := p.Generate(ctx, Request{
			Messages:  []Message{{Role: "user", Content: "ping"}},
			MaxTokens: &one,
		})
		return err
	}, log, probeTimeout)
}
