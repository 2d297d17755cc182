package alert

import (
	"context"
	"time"

	"github.com/upcheckhq/upcheck/internal/domain"
)

// Event is the JSON body posted to a check's alert webhook.
type Event struct {
	CheckID   string       `json:"checkId"`
	CheckName string       `json:"checkName"`
	Target    string       `json:"target"`
	State     domain.State `json:"state"`
	Previous  domain.State `json:"previous"`
	Detail    string       `json:"detail,omitempty"`
	FiredAt   time.Time    `json:"firedAt"`
}

// Notifier abstracts delivery of state-change events to an external
// receiver. Mocking this interface in tests gives full control over
// alert behaviour without making real HTTP calls.
type Notifier interface {
	Notify(ctx context.Context, url string, ev Event) error
}
