package repository

import "context"

// EmailSender is the outbound side of the send_email tool. Implementations
// are expected to be best-effort: a transport failure is returned, not
// panicked, so the tool can turn it into a spoken apology.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}
