// Package jobctx provides public access to job context for job bodies.
package jobctx

import (
	"context"

	"github.com/jdziat/simple-async-jobs/pkg/core"
	intctx "github.com/jdziat/simple-async-jobs/pkg/internal/context"
)

// JobFromContext returns the current Job from context, or nil if not in a job body.
// Use this to get the job ID for logging or progress tracking.
func JobFromContext(ctx context.Context) *core.Job {
	jc := intctx.GetJobContext(ctx)
	if jc == nil {
		return nil
	}
	return jc.Job
}

// JobIDFromContext returns the current job ID from context, or empty string if not in a job body.
func JobIDFromContext(ctx context.Context) string {
	job := JobFromContext(ctx)
	if job == nil {
		return ""
	}
	return job.ID
}

// SessionFromContext returns the queue session the job was admitted in.
// The second result is false outside a job body.
func SessionFromContext(ctx context.Context) (uint64, bool) {
	jc := intctx.GetJobContext(ctx)
	if jc == nil {
		return 0, false
	}
	return jc.Session, true
}

// QueueNameFromContext returns the name of the queue running the job, or empty string.
func QueueNameFromContext(ctx context.Context) string {
	jc := intctx.GetJobContext(ctx)
	if jc == nil {
		return ""
	}
	return jc.Queue
}
