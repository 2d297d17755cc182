package queue

import "github.com/upcheckhq/upcheck/internal/domain"

// Job is the minimal data placed on the queue.
// Workers fetch the full Check from the DB using the ID,
// keeping the queue lightweight and the domain data authoritative.
type Job struct {
	CheckID string
	Kind    domain.Kind
	Tier    domain.Tier
}
