package domain

import (
	"net"
	"net/url"
	"time"
)

// Kind is the probe protocol used to reach a check's target.
type Kind string

const (
	KindHTTP Kind = "http"
	KindTCP  Kind = "tcp"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindHTTP, KindTCP:
		return true
	}
	return false
}

// Tier controls queue ordering. Critical is probed first when lanes compete.
type Tier string

const (
	TierCritical   Tier = "critical"
	TierStandard   Tier = "standard"
	TierBackground Tier = "background"
)

func (t Tier) IsValid() bool {
	switch t {
	case TierCritical, TierStandard, TierBackground:
		return true
	}
	return false
}

// State is the aggregated health of a check derived from its probe history.
type State string

const (
	StateUnknown State = "unknown"
	StatePassing State = "passing"
	StateFailing State = "failing"
	StatePaused  State = "paused"
)

// Outcome is the result of a single probe attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Defaults applied when a create request leaves the field zero.
const (
	DefaultIntervalSeconds = 60
	DefaultTimeoutSeconds  = 10
	DefaultFailThreshold   = 3
)

// Check is the core domain entity: one monitored target probed on a schedule.
type Check struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Kind             Kind       `json:"kind"`
	Target           string     `json:"target"`
	IntervalSeconds  int        `json:"interval_seconds"`
	TimeoutSeconds   int        `json:"timeout_seconds"`
	Tier             Tier       `json:"tier"`
	FailThreshold    int        `json:"fail_threshold"`
	AlertURL         *string    `json:"alert_url,omitempty"`
	State            State      `json:"state"`
	ConsecutiveFails int        `json:"consecutive_fails"`
	LastProbedAt     *time.Time `json:"last_probed_at,omitempty"`
	NextDueAt        time.Time  `json:"next_due_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (c *Check) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c *Check) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StateChange records one application of a probe outcome to a check.
type StateChange struct {
	From State
	To   State
}

func (sc StateChange) Transitioned() bool { return sc.From != sc.To }

// ShouldAlert reports whether the change warrants a webhook notification:
// a check going failing, or recovering from failing back to passing.
// The first unknown -> passing transition is not an incident and stays quiet.
func (sc StateChange) ShouldAlert() bool {
	if !sc.Transitioned() {
		return false
	}
	return sc.To == StateFailing || (sc.From == StateFailing && sc.To == StatePassing)
}

// Advance applies one probe outcome to the check's state machine and returns
// the resulting change. A success always lands on passing and resets the
// failure streak; failures accumulate and flip the state to failing only once
// the streak reaches FailThreshold.
func (c *Check) Advance(outcome Outcome) StateChange {
	prev := c.State
	if outcome == OutcomeSuccess {
		c.ConsecutiveFails = 0
		c.State = StatePassing
	} else {
		c.ConsecutiveFails++
		if c.ConsecutiveFails >= c.FailThreshold {
			c.State = StateFailing
		}
	}
	return StateChange{From: prev, To: c.State}
}

// ProbeResult is one probe observation against a check's target.
type ProbeResult struct {
	ID         int64     `json:"id"`
	CheckID    string    `json:"check_id"`
	Outcome    Outcome   `json:"outcome"`
	LatencyMS  int64     `json:"latency_ms"`
	StatusCode *int      `json:"status_code,omitempty"`
	Detail     *string   `json:"detail,omitempty"`
	ProbedAt   time.Time `json:"probed_at"`
}

// CreateCheckRequest is the inbound payload for registering a check.
// Zero interval/timeout/threshold and an empty tier mean "use the default".
type CreateCheckRequest struct {
	Name            string  `json:"name"`
	Kind            Kind    `json:"kind"`
	Target          string  `json:"target"`
	IntervalSeconds int     `json:"interval_seconds"`
	TimeoutSeconds  int     `json:"timeout_seconds"`
	Tier            Tier    `json:"tier"`
	FailThreshold   int     `json:"fail_threshold"`
	AlertURL        *string `json:"alert_url,omitempty"`
}

func (r *CreateCheckRequest) Validate() error {
	if r.Name == "" || len(r.Name) > 128 {
		return ErrInvalidName
	}
	if !r.Kind.IsValid() {
		return ErrInvalidKind
	}
	if err := validateTarget(r.Kind, r.Target); err != nil {
		return err
	}
	if r.IntervalSeconds != 0 && (r.IntervalSeconds < 10 || r.IntervalSeconds > 86400) {
		return ErrInvalidInterval
	}
	if r.TimeoutSeconds != 0 && (r.TimeoutSeconds < 1 || r.TimeoutSeconds > 60) {
		return ErrInvalidTimeout
	}
	interval := r.IntervalSeconds
	if interval == 0 {
		interval = DefaultIntervalSeconds
	}
	timeout := r.TimeoutSeconds
	if timeout == 0 {
		timeout = DefaultTimeoutSeconds
	}
	if timeout >= interval {
		return ErrInvalidTimeout
	}
	if r.Tier != "" && !r.Tier.IsValid() {
		return ErrInvalidTier
	}
	if r.FailThreshold != 0 && (r.FailThreshold < 1 || r.FailThreshold > 10) {
		return ErrInvalidThreshold
	}
	if r.AlertURL != nil && !isHTTPURL(*r.AlertURL) {
		return ErrInvalidAlertURL
	}
	return nil
}

func validateTarget(kind Kind, target string) error {
	switch kind {
	case KindHTTP:
		if !isHTTPURL(target) {
			return ErrInvalidTarget
		}
	case KindTCP:
		host, port, err := net.SplitHostPort(target)
		if err != nil || host == "" || port == "" {
			return ErrInvalidTarget
		}
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// CheckFilter holds query parameters for paginated check listing.
type CheckFilter struct {
	State *State
	Kind  *Kind
	Tier  *Tier
	Page  int
	Limit int
}
