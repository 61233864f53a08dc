package tool

import "context"

type contextKey string

const (
	callerNumberKey contextKey = "caller_number"
	callIDKey       contextKey = "call_id"
)

// WithCallerNumber attaches the current call's normalized caller number to
// ctx, so tools that default to "the current call" (check_order_status
// with no arguments) can read it without a per-call tool instance.
func WithCallerNumber(ctx context.Context, number string) context.Context {
	return context.WithValue(ctx, callerNumberKey, number)
}

// CallerNumberFromContext retrieves the number set by WithCallerNumber.
func CallerNumberFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(callerNumberKey).(string)
	return v, ok && v != ""
}

// WithCallID attaches the call's id to ctx, for tools (transfer_to_human)
// that need to identify the call in an ops notification.
func WithCallID(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, callIDKey, callID)
}

// CallIDFromContext retrieves the id set by WithCallID.
func CallIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(callIDKey).(string)
	return v, ok && v != ""
}
