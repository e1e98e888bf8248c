// Package requestcontext provides context accessors for values that flow
// through a single domain scan: the scan's task id and the time it should be
// treated as "now". Keeping this free of net/http lets the orchestrator and
// probes depend on it without pulling in HTTP types.
package requestcontext

import (
	"context"
	"time"

	id "github.com/ltdomains/domain-analyzer/pkg/domain"
)

type (
	taskIDKey struct{}
	timeKey   struct{}
)

var (
	ContextKeyTaskID = taskIDKey{}
	ContextKeyTime   = timeKey{}
)

// TaskID retrieves the current scan's task id from the context.
func TaskID(ctx context.Context) id.TaskID {
	if taskID, ok := ctx.Value(ContextKeyTaskID).(id.TaskID); ok {
		return taskID
	}
	return id.TaskID{}
}

// WithTaskID injects a task id into the context.
func WithTaskID(ctx context.Context, taskID id.TaskID) context.Context {
	return context.WithValue(ctx, ContextKeyTaskID, taskID)
}

// Now retrieves the scan-scoped time from context, falling back to
// time.Now() when absent (CLI runs, tests that don't inject one).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed time into the context. Used by the orchestrator
// so every profile within one domain scan observes the same "now", and by
// tests that assert on age/expiry derivations.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyTime, t)
}
