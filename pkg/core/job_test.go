package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-async-jobs/pkg/future"
)

type outcome struct {
	err    error
	values []any
}

func capture() (Next, <-chan outcome) {
	ch := make(chan outcome, 4)
	return func(err error, values ...any) {
		ch <- outcome{err: err, values: values}
	}, ch
}

func waitOutcome(t *testing.T, ch <-chan outcome) outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(time.Second):
		t.Fatal("job did not complete")
		return outcome{}
	}
}

func TestNewJob_Defaults(t *testing.T) {
	job := NewJob(func(ctx context.Context, next Next) {})

	assert.Len(t, job.ID, 36)
	assert.Empty(t, job.Name)
	assert.False(t, job.Started())

	d, ok := job.Timeout()
	assert.False(t, ok)
	assert.Zero(t, d)
}

func TestNewJob_Options(t *testing.T) {
	job := NewJob(func(ctx context.Context, next Next) {},
		WithName("notify"),
		WithID("job-1"),
		WithTimeout(50*time.Millisecond),
	)

	assert.Equal(t, "notify", job.Name)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, "notify", job.String())

	d, ok := job.Timeout()
	assert.True(t, ok)
	assert.Equal(t, 50*time.Millisecond, d)
}

func TestWithTimeout_ZeroStillOverrides(t *testing.T) {
	job := NewJob(func(ctx context.Context, next Next) {}, WithTimeout(0))

	d, ok := job.Timeout()
	assert.True(t, ok)
	assert.Zero(t, d)
}

func TestJob_RunMarksStarted(t *testing.T) {
	next, ch := capture()
	job := NewJob(func(ctx context.Context, next Next) {
		next(nil, 1, "a")
	})

	job.Run(context.Background(), next)

	assert.True(t, job.Started())
	o := waitOutcome(t, ch)
	assert.NoError(t, o.err)
	assert.Equal(t, []any{1, "a"}, o.values)
}

func TestJob_RunWithoutBody(t *testing.T) {
	next, ch := capture()
	job := &Job{ID: "empty"}

	job.Run(context.Background(), next)

	o := waitOutcome(t, ch)
	require.Error(t, o.err)
	assert.Contains(t, o.err.Error(), "empty")
}

func TestNewPromiseJob_Resolves(t *testing.T) {
	f := future.New[any]()
	next, ch := capture()
	job := NewPromiseJob(func(ctx context.Context) *future.Future[any] { return f })

	job.Run(context.Background(), next)
	f.Resolve("done")

	o := waitOutcome(t, ch)
	assert.NoError(t, o.err)
	assert.Equal(t, []any{"done"}, o.values)
}

func TestNewPromiseJob_RejectsWithNilReason(t *testing.T) {
	next, ch := capture()
	job := NewPromiseJob(func(ctx context.Context) *future.Future[any] {
		return future.Rejected[any](nil)
	})

	job.Run(context.Background(), next)

	o := waitOutcome(t, ch)
	assert.ErrorIs(t, o.err, future.ErrRejected)
}

func TestNewPromiseJob_NilFutureNeverCompletes(t *testing.T) {
	next, ch := capture()
	job := NewPromiseJob(func(ctx context.Context) *future.Future[any] { return nil })

	job.Run(context.Background(), next)

	select {
	case <-ch:
		t.Fatal("unexpected completion")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestNewTask(t *testing.T) {
	next, ch := capture()
	job := NewTask(func(ctx context.Context) (any, error) {
		return 42, nil
	})

	job.Run(context.Background(), next)

	o := waitOutcome(t, ch)
	assert.NoError(t, o.err)
	assert.Equal(t, []any{42}, o.values)
}

func TestNewTask_Error(t *testing.T) {
	cause := errors.New("x")
	next, ch := capture()
	job := NewTask(func(ctx context.Context) (any, error) {
		return nil, cause
	})

	job.Run(context.Background(), next)

	o := waitOutcome(t, ch)
	assert.Equal(t, cause, o.err)
	assert.Empty(t, o.values)
}

func TestNewTask_RecoversPanic(t *testing.T) {
	next, ch := capture()
	job := NewTask(func(ctx context.Context) (any, error) {
		panic("boom")
	})

	job.Run(context.Background(), next)

	o := waitOutcome(t, ch)
	var pe *PanicError
	require.ErrorAs(t, o.err, &pe)
	assert.Equal(t, "boom", pe.Value)
}
