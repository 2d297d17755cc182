package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/upcheckhq/upcheck/internal/domain"
)

// KindLimiters holds one token bucket limiter per probe kind.
// Each limiter enforces a steady-state rate (e.g. 50 tokens/sec).
// Burst is set equal to the rate so no extra burst capacity is allowed
// beyond the configured per-second maximum.
type KindLimiters struct {
	limiters map[domain.Kind]*rate.Limiter
}

// New creates a KindLimiters with ratePerSec tokens per second per kind.
func New(ratePerSec int) *KindLimiters {
	r := rate.Limit(ratePerSec)
	burst := ratePerSec // burst == rate: prevents any "saved up" burst above the limit

	return &KindLimiters{
		limiters: map[domain.Kind]*rate.Limiter{
			domain.KindHTTP: rate.NewLimiter(r, burst),
			domain.KindTCP:  rate.NewLimiter(r, burst),
		},
	}
}

// Wait blocks until the kind's limiter grants a token.
// Called by each worker immediately before running the probe.
// Returns a non-nil error only if ctx is cancelled while waiting.
func (kl *KindLimiters) Wait(ctx context.Context, k domain.Kind) error {
	return kl.limiters[k].Wait(ctx)
}
