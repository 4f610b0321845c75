package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when scheduling against a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrIntervalTooShort is returned when a connection's interval is below the minimum
	ErrIntervalTooShort = errors.New("sync interval is below the minimum")
)
