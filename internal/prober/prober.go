package prober

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/upcheckhq/upcheck/internal/domain"
)

// MaxDetailBytes caps the failure detail stored with a probe result.
// Transport error strings embed the full target URL, so without a bound
// they scale with whatever target the check was created with.
const MaxDetailBytes = 512

// Prober runs a single availability probe against a check's target.
// Mocking this interface in tests gives full control over probe behaviour
// without touching the network.
//
// Probe never returns an error: every outcome, including transport
// failures, is expressed as a ProbeResult so the worker records exactly
// one row per attempt.
type Prober interface {
	Probe(ctx context.Context, chk *domain.Check) domain.ProbeResult
}

// Mux routes a check to the prober registered for its kind.
type Mux struct {
	probers map[domain.Kind]Prober
}

func NewMux() *Mux {
	return &Mux{probers: make(map[domain.Kind]Prober)}
}

// Register binds a prober to a kind, replacing any previous binding.
func (m *Mux) Register(k domain.Kind, p Prober) {
	m.probers[k] = p
}

// Probe dispatches to the registered prober. A check whose kind has no
// prober is reported as a failure rather than a panic; validation should
// make this unreachable.
func (m *Mux) Probe(ctx context.Context, chk *domain.Check) domain.ProbeResult {
	p, ok := m.probers[chk.Kind]
	if !ok {
		return failure(chk.ID, time.Now(), 0, fmt.Sprintf("no prober for kind %q", chk.Kind))
	}
	return p.Probe(ctx, chk)
}

func success(checkID string, probedAt time.Time, latencyMS int64) domain.ProbeResult {
	return domain.ProbeResult{
		CheckID:   checkID,
		Outcome:   domain.OutcomeSuccess,
		LatencyMS: latencyMS,
		ProbedAt:  probedAt,
	}
}

func failure(checkID string, probedAt time.Time, latencyMS int64, detail string) domain.ProbeResult {
	if len(detail) > MaxDetailBytes {
		// Cut on a rune boundary so the stored value stays valid UTF-8.
		cut := MaxDetailBytes
		for cut > 0 && !utf8.RuneStart(detail[cut]) {
			cut--
		}
		detail = detail[:cut]
	}
	return domain.ProbeResult{
		CheckID:   checkID,
		Outcome:   domain.OutcomeFailure,
		LatencyMS: latencyMS,
		Detail:    &detail,
		ProbedAt:  probedAt,
	}
}

// compile-time check that Mux implements Prober
var _ Prober = (*Mux)(nil)
