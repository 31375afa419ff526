package contextkey

import "context"

// Key is a distinct type to avoid context key collisions across packages.
type Key string

const (
	TraceID   Key = "trace_id"
	RequestID Key = "request_id"
	ProblemID Key = "problem_id"
	Language  Key = "language"
)

// LogFields lists the keys the logger copies into every line, in order.
var LogFields = []Key{TraceID, RequestID, ProblemID, Language}

func (k Key) String() string {
	return string(k)
}

// With returns ctx carrying value under k. Empty values are not stored.
func With(ctx context.Context, k Key, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, k, value)
}

// Value returns the string stored under k, or "".
func Value(ctx context.Context, k Key) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(k).(string)
	return v
}
