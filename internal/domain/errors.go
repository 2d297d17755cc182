package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound         = errors.New("not found")
	ErrNameTaken        = errors.New("conflict: a check with that name already exists")
	ErrInvalidName      = errors.New("name must be between 1 and 128 characters")
	ErrInvalidKind      = errors.New("invalid kind: must be http or tcp")
	ErrInvalidTarget    = errors.New("invalid target for the given kind")
	ErrInvalidInterval  = errors.New("interval must be between 10 and 86400 seconds")
	ErrInvalidTimeout   = errors.New("timeout must be between 1 and 60 seconds and shorter than the interval")
	ErrInvalidTier      = errors.New("invalid tier: must be critical, standard, or background")
	ErrInvalidThreshold = errors.New("fail threshold must be between 1 and 10")
	ErrInvalidAlertURL  = errors.New("alert_url must be a valid http(s) URL")
	ErrAlreadyPaused    = errors.New("check is already paused")
	ErrNotPaused        = errors.New("check is not paused")
	ErrQueueFull        = errors.New("probe queue is at capacity, try again later")
)
