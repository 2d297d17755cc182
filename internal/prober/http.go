package prober

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/upcheckhq/upcheck/internal/domain"
)

// maxDrainBytes caps how much of a response body is read before the
// connection is released back to the pool. Health endpoints are small;
// anything larger is discarded by closing the body early.
const maxDrainBytes = 4 << 10

// HTTPProber performs GET probes against HTTP and HTTPS targets.
// The client carries no global timeout: each probe derives its deadline
// from the check's own timeout so slow checks cannot inherit another
// check's budget.
type HTTPProber struct {
	client *http.Client
}

func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		client: &http.Client{
			// Probes must observe the real endpoint, not a redirect target.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Probe issues a GET against the check's target and classifies any 2xx
// response as success. Transport errors, timeouts and non-2xx statuses
// are failures with the status or error message preserved in Detail.
func (p *HTTPProber) Probe(ctx context.Context, chk *domain.Check) domain.ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, chk.Timeout())
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, chk.Target, nil)
	if err != nil {
		return failure(chk.ID, start, 0, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("User-Agent", "upcheck-prober/1.0")

	resp, err := p.client.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return failure(chk.ID, start, latency, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	status := resp.StatusCode
	if status < 200 || status > 299 {
		res := failure(chk.ID, start, latency, fmt.Sprintf("unexpected status: %d", status))
		res.StatusCode = &status
		return res
	}

	res := success(chk.ID, start, latency)
	res.StatusCode = &status
	return res
}

// compile-time check that HTTPProber implements Prober
var _ Prober = (*HTTPProber)(nil)
