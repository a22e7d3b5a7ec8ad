package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vcalderon2009/note-taker/internal/health"
	"github.com/vcalderon2009/note-taker/internal/model"
)

// NewStoreHealthChecker probes s with HealthPing when available, else with a
// lookup of a user id that never exists.
func NewStoreHealthChecker(s Store, log zerolog.Logger, probeTimeout time.Duration) *health.ProbeChecker {
	return health.NewProbeChecker("store", func(ctx context.Context) error {
		if p, ok := s.(health.HealthPinger); ok {
			return p.HealthPing(ctx)
		}
		// A missing row still proves the database answered.
		_, err := s.Users().Get(ctx, 0)
		if model.IsNotFound(err) {
			return nil
		}
		return err
	}, log, probeTimeout)
}
