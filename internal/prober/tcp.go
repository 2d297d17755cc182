package prober

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/upcheckhq/upcheck/internal/domain"
)

// TCPProber checks that a TCP connection to host:port can be established
// within the check's timeout. The connection is closed immediately after
// the handshake; no payload is exchanged.
type TCPProber struct {
	dialer *net.Dialer
}

func NewTCPProber() *TCPProber {
	return &TCPProber{dialer: &net.Dialer{}}
}

func (p *TCPProber) Probe(ctx context.Context, chk *domain.Check) domain.ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, chk.Timeout())
	defer cancel()

	start := time.Now()

	conn, err := p.dialer.DialContext(ctx, "tcp", chk.Target)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return failure(chk.ID, start, latency, fmt.Sprintf("dial failed: %v", err))
	}
	_ = conn.Close()

	return success(chk.ID, start, latency)
}

// compile-time check that TCPProber implements Prober
var _ Prober = (*TCPProber)(nil)
