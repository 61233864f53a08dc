package repository

import (
	"context"

	"github.com/retailvoice/callbridge/internal/domain/entity"
)

// TranscriptRef is an opaque handle returned by StartCall and threaded
// through subsequent calls for the same call. It is never interpreted by
// callers.
type TranscriptRef string

// StartCallInput is the data available at the moment the media socket opens.
type StartCallInput struct {
	CallID       string
	CallerPhone  string
	CustomerName string
	Identified   bool
}

// TranscriptSink is the domain-level contract for C9. StartCall returns its
// error for the caller to log; the other writes are fire-and-forget:
// implementations log and swallow their own errors rather than propagate
// them, so a storage hiccup never interrupts a live call.
type TranscriptSink interface {
	StartCall(ctx context.Context, in StartCallInput) (TranscriptRef, error)
	AppendMessage(ctx context.Context, ref TranscriptRef, speaker entity.Speaker, content string)
	AppendToolCall(ctx context.Context, ref TranscriptRef, name, argsJSON, resultJSON string)
	EndCall(ctx context.Context, ref TranscriptRef, durationSeconds float64)

	// Messages returns a call's transcript in arrival order. Used only by
	// the read-only transcript renderer, never by the mediator.
	Messages(ctx context.Context, ref TranscriptRef) ([]entity.TranscriptEntry, error)
}
