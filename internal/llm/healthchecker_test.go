package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type pingProvider struct {
	stubProvider
	pingErr error
}

func (p *pingProvider) HealthPing(ctx context.Context) error { return p.pingErr }

func TestProviderHealthChecker_UsesHealthPing(t *testing.T) {
	p := &pingProvider{}
	hc := NewProviderHealthChecker(p, zerolog.Nop(), time.Second)
	if err := hc.Check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
	if !hc.IsHealthy() || hc.Name() != "llm" {
		t.Fatalf("expected healthy llm checker")
	}
	if p.calls != 0 {
		t.Fatalf("health ping provider should not be asked to generate")
	}

	p.pingErr = errors.New("unreachable")
	_ = hc.Check(context.Background())
	if hc.IsHealthy() {
		t.Fatalf("failed ping reported healthy")
	}
}

func TestProviderHealthChecker_FallsBackToGenerate(t *testing.T) {
	p := &stubProvider{err: errors.New("down")}
	hc := NewProviderHealthChecker(p, zerolog.Nop(), time.Second)
	if err := hc.Check(context.Background()); err == nil {
		t.Fatalf("expected generate error")
	}
	if hc.IsHealthy() {
		t.Fatalf("failing provider reported healthy")
	}
	if p.calls != 1 {
		t.Fatalf("expected one generate probe, got %d", p.calls)
	}
}
