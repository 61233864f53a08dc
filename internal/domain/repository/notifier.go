package repository

import (
	"context"
	"time"
)

// OpsNotification is the transient payload sent to the human-ops side
// channel when a call needs a person. Never persisted.
type OpsNotification struct {
	CallID       string
	CallerNumber string
	Reason       string
	Summary      string
	Priority     string
	At           time.Time
}

// OpsNotifier is A5. Implementations without a configured destination are
// expected to no-op rather than error, so an unconfigured deployment still
// completes handoffs.
type OpsNotifier interface {
	Notify(ctx context.Context, n OpsNotification) error
}
