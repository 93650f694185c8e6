package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loglens/loglens/internal/clierr"
)

func fastConfig() Config {
	return Config{
		FailureThreshold: 2,
		SuccessThreshold: 2,
		TimeoutDuration:  50 * time.Millisecond,
		ResetTimeout:     20 * time.Millisecond,
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	b := New("svc", fastConfig())
	fail := errors.New("boom")

	for i := 0; i < 2; i++ {
		err := b.Call(context.Background(), func(context.Context) error { return fail })
		if err == nil {
			t.Fatalf("call %d: expected failure", i)
		}
	}

	if b.State() != Open {
		t.Fatalf("State() = %v, want Open", b.State())
	}

	err := b.Call(context.Background(), func(context.Context) error { return nil })
	ce, ok := err.(*clierr.Error)
	if !ok || ce.Kind != clierr.KindCircuitOpen {
		t.Fatalf("expected KindCircuitOpen, got %v", err)
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cfg := fastConfig()
	b := New("svc", cfg)
	fail := errors.New("boom")

	for i := 0; i < int(cfg.FailureThreshold); i++ {
		_ = b.Call(context.Background(), func(context.Context) error { return fail })
	}
	if b.State() != Open {
		t.Fatalf("State() = %v, want Open", b.State())
	}

	time.Sleep(cfg.ResetTimeout * 2)

	for i := 0; i < int(cfg.SuccessThreshold); i++ {
		if err := b.Call(context.Background(), func(context.Context) error { return nil }); err != nil {
			t.Fatalf("call %d during recovery: %v", i, err)
		}
	}

	if b.State() != Closed {
		t.Fatalf("State() = %v, want Closed after recovery", b.State())
	}
}

func TestCircuitBreakerTimeoutCountsAsFailure(t *testing.T) {
	cfg := fastConfig()
	b := New("svc", cfg)

	for i := 0; i < int(cfg.FailureThreshold); i++ {
		err := b.Call(context.Background(), func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		ce, ok := err.(*clierr.Error)
		if !ok || ce.Kind != clierr.KindTimeout {
			t.Fatalf("call %d: expected KindTimeout, got %v", i, err)
		}
	}

	if b.State() != Open {
		t.Fatalf("State() = %v, want Open", b.State())
	}
}

func TestCircuitBreakerDoesNotTripOnAuthenticationError(t *testing.T) {
	cfg := fastConfig()
	b := New("svc", cfg)
	authErr := clierr.New(clierr.KindAuthentication, "authentication failed for provider: svc")

	for i := 0; i < int(cfg.FailureThreshold)+2; i++ {
		err := b.Call(context.Background(), func(context.Context) error { return authErr })
		ce, ok := err.(*clierr.Error)
		if !ok || ce.Kind != clierr.KindAuthentication {
			t.Fatalf("call %d: expected KindAuthentication surfaced unchanged, got %v", i, err)
		}
	}

	if b.State() != Closed {
		t.Fatalf("State() = %v, want Closed: authentication errors must not trip the breaker", b.State())
	}
}

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	a := r.Get("provider-a")
	b := r.Get("provider-a")
	if a != b {
		t.Error("Get returned distinct breakers for the same name")
	}
	c := r.Get("provider-b")
	if a == c {
		t.Error("Get returned the same breaker for distinct names")
	}
}
