package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-async-jobs/pkg/core"
	"github.com/jdziat/simple-async-jobs/pkg/future"
	"github.com/jdziat/simple-async-jobs/pkg/jobctx"
)

func newTestQueue(opts ...Option) *Queue {
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	return New(opts...)
}

func valueJob(v any) *core.Job {
	return core.NewJob(func(ctx context.Context, next core.Next) {
		next(nil, v)
	})
}

// heldJob never completes on its own; its Next is sent on the returned channel.
func heldJob(opts ...core.JobOption) (*core.Job, <-chan core.Next) {
	ch := make(chan core.Next, 1)
	job := core.NewJob(func(ctx context.Context, next core.Next) {
		ch <- next
	}, opts...)
	return job, ch
}

func wait(t *testing.T, f *future.Future[[][]any]) ([][]any, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return f.Wait(ctx)
}

func TestQueue_DrainsInOrder(t *testing.T) {
	q := newTestQueue(WithConcurrency(2), WithResults())
	q.Push(valueJob(0), valueJob(1), valueJob(2))

	var ended atomic.Int32
	q.OnEnd(func(e *core.QueueEnded) {
		ended.Add(1)
		assert.NoError(t, e.Error)
	})

	f, err := q.StartAsync()
	require.NoError(t, err)

	results, err := wait(t, f)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{0}, {1}, {2}}, results)
	assert.Equal(t, int32(1), ended.Load())
	assert.False(t, q.Running())
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, uint64(1), q.Session())
}

func TestQueue_TimeoutThenEnd(t *testing.T) {
	q := newTestQueue(WithConcurrency(1), WithTimeout(50*time.Millisecond), WithResults())
	job, _ := heldJob()
	q.Push(job)

	var timeouts atomic.Int32
	q.OnJobTimeout(func(e *core.JobTimedOut) {
		timeouts.Add(1)
		assert.Same(t, job, e.Job)
	})
	var successes atomic.Int32
	q.OnJobSuccess(func(*core.JobSucceeded) { successes.Add(1) })

	start := time.Now()
	f, err := q.StartAsync()
	require.NoError(t, err)

	results, err := wait(t, f)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Equal(t, int32(1), timeouts.Load())
	assert.Equal(t, int32(0), successes.Load())
	assert.Equal(t, [][]any{nil}, results)
	assert.Equal(t, 0, q.PendingTimers())
}

func TestQueue_ErrorEndsQueue(t *testing.T) {
	q := newTestQueue(WithConcurrency(1))
	boom := errors.New("x")

	first := core.NewJob(func(ctx context.Context, next core.Next) {
		next(boom)
	})
	second := valueJob(2)
	q.Push(first, second)

	var failed []*core.Job
	q.OnJobFail(func(e *core.JobFailed) {
		failed = append(failed, e.Job)
		assert.Equal(t, boom, e.Error)
	})

	f, err := q.StartAsync()
	require.NoError(t, err)

	_, err = wait(t, f)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []*core.Job{first}, failed)
	assert.False(t, second.Started())
	assert.Empty(t, q.Pending())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_StartTwice(t *testing.T) {
	q := newTestQueue()
	job, _ := heldJob()
	q.Push(job)

	require.NoError(t, q.Start(nil))
	assert.ErrorIs(t, q.Start(nil), core.ErrAlreadyStarted)

	_, err := q.StartAsync()
	assert.ErrorIs(t, err, core.ErrAlreadyStarted)

	q.End(nil)
	assert.False(t, q.Running())
}

func TestQueue_StartEmptyEndsImmediately(t *testing.T) {
	q := newTestQueue(WithResults())

	var gotErr error
	var gotResults [][]any
	called := false
	require.NoError(t, q.Start(func(err error, results [][]any) {
		called = true
		gotErr = err
		gotResults = results
	}))

	assert.True(t, called)
	assert.NoError(t, gotErr)
	assert.Empty(t, gotResults)
	assert.False(t, q.Running())
}

func TestQueue_ConcurrencyBound(t *testing.T) {
	q := newTestQueue(WithConcurrency(3), WithResults())

	var active, peak atomic.Int32
	for i := 0; i < 10; i++ {
		q.Push(core.NewTask(func(ctx context.Context) (any, error) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return i, nil
		}))
	}

	f, err := q.StartAsync()
	require.NoError(t, err)

	results, err := wait(t, f)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	require.Len(t, results, 10)
	for i, r := range results {
		assert.Equal(t, []any{i}, r)
	}
}

func TestQueue_NextIsIdempotent(t *testing.T) {
	q := newTestQueue(WithResults())
	q.Push(core.NewJob(func(ctx context.Context, next core.Next) {
		next(nil, 1)
		next(nil, 2)
		next(errors.New("late"))
	}))

	var successes, failures atomic.Int32
	q.OnJobSuccess(func(*core.JobSucceeded) { successes.Add(1) })
	q.OnJobFail(func(*core.JobFailed) { failures.Add(1) })

	f, err := q.StartAsync()
	require.NoError(t, err)

	results, err := wait(t, f)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{1}}, results)
	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(0), failures.Load())
}

func TestQueue_LateResultAfterTimeoutIsDropped(t *testing.T) {
	q := newTestQueue(WithConcurrency(2), WithResults())

	slow, held := heldJob(core.WithTimeout(20 * time.Millisecond))
	release := make(chan struct{})
	other := core.NewJob(func(ctx context.Context, next core.Next) {
		go func() {
			<-release
			next(nil, "b")
		}()
	})
	q.Push(slow, other)

	var successes atomic.Int32
	q.OnJobSuccess(func(e *core.JobSucceeded) {
		successes.Add(1)
		assert.Same(t, other, e.Job)
	})

	f, err := q.StartAsync()
	require.NoError(t, err)

	next := <-held
	require.Eventually(t, func() bool { return q.InFlight() == 1 }, time.Second, 5*time.Millisecond)

	next(nil, "late")
	assert.Equal(t, 1, q.InFlight())

	close(release)
	results, err := wait(t, f)
	require.NoError(t, err)
	assert.Equal(t, [][]any{nil, {"b"}}, results)
	assert.Equal(t, int32(1), successes.Load())
}

func TestQueue_TimeoutListenerValueIsDropped(t *testing.T) {
	q := newTestQueue(WithTimeout(10*time.Millisecond), WithResults())
	job, _ := heldJob()
	q.Push(job)

	var successes atomic.Int32
	q.OnJobSuccess(func(*core.JobSucceeded) { successes.Add(1) })
	q.OnJobTimeout(func(e *core.JobTimedOut) {
		e.Next(nil, "fallback")
	})

	f, err := q.StartAsync()
	require.NoError(t, err)

	results, err := wait(t, f)
	require.NoError(t, err)
	assert.Equal(t, int32(0), successes.Load())
	assert.Equal(t, [][]any{nil}, results)
}

func TestQueue_TimeoutListenerErrorFailsJob(t *testing.T) {
	q := newTestQueue(WithTimeout(10*time.Millisecond), WithResults())
	job, _ := heldJob()
	q.Push(job)

	tooSlow := errors.New("too slow")
	var failed atomic.Int32
	q.OnJobFail(func(e *core.JobFailed) {
		failed.Add(1)
		assert.Same(t, job, e.Job)
	})
	q.OnJobTimeout(func(e *core.JobTimedOut) {
		e.Next(tooSlow)
	})

	f, err := q.StartAsync()
	require.NoError(t, err)

	_, err = wait(t, f)
	assert.ErrorIs(t, err, tooSlow)
	assert.Equal(t, int32(1), failed.Load())
	assert.False(t, q.Running())
}

func TestQueue_CompletionDuringTimeoutListenerDropped(t *testing.T) {
	q := newTestQueue(WithTimeout(10*time.Millisecond), WithResults())

	inListener := make(chan struct{})
	reported := make(chan struct{})
	q.Push(core.NewJob(func(ctx context.Context, next core.Next) {
		go func() {
			<-inListener
			next(nil, "late")
			close(reported)
		}()
	}))

	var successes atomic.Int32
	q.OnJobSuccess(func(*core.JobSucceeded) { successes.Add(1) })
	var timeouts atomic.Int32
	q.OnJobTimeout(func(*core.JobTimedOut) {
		timeouts.Add(1)
		close(inListener)
		<-reported
	})

	f, err := q.StartAsync()
	require.NoError(t, err)

	results, err := wait(t, f)
	require.NoError(t, err)
	assert.Equal(t, int32(1), timeouts.Load())
	assert.Equal(t, int32(0), successes.Load())
	assert.Equal(t, [][]any{nil}, results)
}

func TestQueue_StartPrecedesTimeout(t *testing.T) {
	q := newTestQueue(WithTimeout(time.Millisecond))
	job, _ := heldJob()
	q.Push(job)

	// a slow start listener must not let the timer fire first
	q.OnJobStart(func(*core.JobStarted) { time.Sleep(20 * time.Millisecond) })

	var mu sync.Mutex
	var kinds []core.EventKind
	record := func(e core.Event) {
		mu.Lock()
		kinds = append(kinds, e.Kind())
		mu.Unlock()
	}
	q.On(core.EventStart, record)
	q.On(core.EventTimeout, record)

	f, err := q.StartAsync()
	require.NoError(t, err)

	_, err = wait(t, f)
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []core.EventKind{core.EventStart, core.EventTimeout}, kinds)
}

func TestQueue_EndFromStartListenerSkipsJob(t *testing.T) {
	q := newTestQueue(WithTimeout(time.Hour))
	job, _ := heldJob()
	q.Push(job)

	q.OnJobStart(func(*core.JobStarted) { q.End(nil) })

	f, err := q.StartAsync()
	require.NoError(t, err)

	_, err = wait(t, f)
	require.NoError(t, err)
	assert.False(t, job.Started())
	assert.Equal(t, 0, q.PendingTimers())
}

func TestQueue_JobTimeoutOverridesDefault(t *testing.T) {
	q := newTestQueue(WithTimeout(time.Hour))
	job, _ := heldJob(core.WithTimeout(10 * time.Millisecond))
	q.Push(job)

	var timeouts atomic.Int32
	q.OnJobTimeout(func(*core.JobTimedOut) { timeouts.Add(1) })

	f, err := q.StartAsync()
	require.NoError(t, err)

	_, err = wait(t, f)
	require.NoError(t, err)
	assert.Equal(t, int32(1), timeouts.Load())
}

func TestQueue_EndCancelsTimersAndDiscardsPending(t *testing.T) {
	q := newTestQueue(WithConcurrency(1), WithTimeout(time.Hour))
	running, _ := heldJob()
	waiting := valueJob(1)
	q.Push(running, waiting)

	f, err := q.StartAsync()
	require.NoError(t, err)
	assert.Equal(t, 1, q.PendingTimers())
	assert.Equal(t, 2, q.Len())

	boom := errors.New("boom")
	q.End(boom)

	_, err = wait(t, f)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, q.PendingTimers())
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.InFlight())
	assert.False(t, waiting.Started())
	assert.Equal(t, uint64(1), q.Session())
}

func TestQueue_StaleCompletionIgnored(t *testing.T) {
	q := newTestQueue(WithResults())
	job, held := heldJob()
	q.Push(job)

	var successes atomic.Int32
	q.OnJobSuccess(func(*core.JobSucceeded) { successes.Add(1) })

	require.NoError(t, q.Start(nil))
	next := <-held
	q.End(nil)

	next(nil, 1)
	assert.Equal(t, int32(0), successes.Load())
	assert.Equal(t, 0, q.InFlight())
	assert.Equal(t, [][]any{nil}, q.Results())
}

func TestQueue_EndCancelsJobContext(t *testing.T) {
	q := newTestQueue(WithName("ctx-queue"))

	ctxs := make(chan context.Context, 1)
	q.Push(core.NewJob(func(ctx context.Context, next core.Next) {
		ctxs <- ctx
	}, core.WithName("watcher")))

	require.NoError(t, q.Start(nil))
	ctx := <-ctxs

	assert.Equal(t, "watcher", jobctx.JobFromContext(ctx).Name)
	assert.Equal(t, "ctx-queue", jobctx.QueueNameFromContext(ctx))
	session, ok := jobctx.SessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), session)
	assert.NoError(t, ctx.Err())

	q.End(nil)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestQueue_FailFastDisabled(t *testing.T) {
	q := newTestQueue(WithConcurrency(1), WithResults(), WithFailFast(false))
	assert.False(t, q.FailFast())

	q.Push(core.NewJob(func(ctx context.Context, next core.Next) {
		next(errors.New("x"))
	}), valueJob(2))

	var failures atomic.Int32
	q.OnJobFail(func(*core.JobFailed) { failures.Add(1) })

	f, err := q.StartAsync()
	require.NoError(t, err)

	results, err := wait(t, f)
	require.NoError(t, err)
	assert.Equal(t, [][]any{nil, {2}}, results)
	assert.Equal(t, int32(1), failures.Load())
}

func TestQueue_SetFailFast(t *testing.T) {
	q := newTestQueue()
	assert.True(t, q.FailFast())

	q.SetFailFast(false)
	assert.False(t, q.FailFast())
	q.SetFailFast(false)
	assert.False(t, q.FailFast())

	q.SetFailFast(true)
	assert.True(t, q.FailFast())
}

func TestQueue_Autostart(t *testing.T) {
	q := newTestQueue(WithAutostart(true), WithResults())

	var ended atomic.Int32
	q.OnEnd(func(*core.QueueEnded) { ended.Add(1) })

	n := q.Push(valueJob("a"))
	assert.Equal(t, 1, n)
	assert.Equal(t, int32(1), ended.Load())
	assert.Equal(t, [][]any{{"a"}}, q.Results())
	assert.False(t, q.Running())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_PendingMutators(t *testing.T) {
	q := newTestQueue()
	a, b, c, z := valueJob("a"), valueJob("b"), valueJob("c"), valueJob("z")

	assert.Equal(t, 3, q.Push(a, b, c))
	assert.Equal(t, 4, q.Unshift(z))
	assert.Equal(t, 4, q.Push(nil))

	assert.Same(t, c, q.Pop())
	assert.Same(t, z, q.Shift())
	assert.Equal(t, []*core.Job{a, b}, q.Pending())

	assert.Equal(t, 1, q.IndexOf(b, 0))
	assert.Equal(t, -1, q.IndexOf(a, 1))
	assert.Equal(t, 0, q.LastIndexOf(a, 10))
	assert.Equal(t, -1, q.IndexOf(c, 0))

	q.Reverse()
	assert.Equal(t, []*core.Job{b, a}, q.Pending())

	removed := q.Splice(0, 1, c, z)
	assert.Equal(t, []*core.Job{b}, removed)
	assert.Equal(t, []*core.Job{c, z, a}, q.Pending())

	q.Slice(1, 3)
	assert.Equal(t, []*core.Job{z, a}, q.Pending())
	assert.Same(t, a, q.At(-1))
	assert.Nil(t, q.At(5))
	assert.Equal(t, 2, q.Len())

	q.Slice(0, 0)
	assert.Nil(t, q.Pop())
	assert.Nil(t, q.Shift())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_SetConcurrencyAdmits(t *testing.T) {
	q := newTestQueue(WithConcurrency(0), WithResults())
	q.Push(valueJob(1), valueJob(2))

	f, err := q.StartAsync()
	require.NoError(t, err)
	assert.True(t, q.Running())
	assert.Equal(t, 0, q.InFlight())
	assert.Equal(t, 2, q.Len())

	q.SetConcurrency(2)
	assert.Equal(t, 2, q.Concurrency())

	results, err := wait(t, f)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{1}, {2}}, results)
}

func TestQueue_StopPausesAdmission(t *testing.T) {
	q := newTestQueue(WithConcurrency(1))
	first, held := heldJob()
	second := valueJob(2)
	q.Push(first, second)

	require.NoError(t, q.Start(nil))
	q.Stop()

	next := <-held
	next(nil, 1)

	assert.False(t, second.Started())
	assert.False(t, q.Running())
	assert.Equal(t, 1, q.Len())

	f, err := q.StartAsync()
	require.NoError(t, err)
	_, err = wait(t, f)
	require.NoError(t, err)
	assert.True(t, second.Started())
}

func TestQueue_ResetResults(t *testing.T) {
	q := newTestQueue(WithResults())
	q.Push(valueJob(1))

	f, err := q.StartAsync()
	require.NoError(t, err)
	_, err = wait(t, f)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{1}}, q.Results())

	q.ResetResults()
	assert.Empty(t, q.Results())

	assert.Nil(t, newTestQueue().Results())
}

func TestQueue_RunHonoursContext(t *testing.T) {
	q := newTestQueue()
	job, _ := heldJob()
	q.Push(job)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, q.Running())
}

func TestQueue_EndSessionLeavesLaterSessionAlone(t *testing.T) {
	q := newTestQueue()
	first, _ := heldJob()
	q.Push(first)
	require.NoError(t, q.Start(nil))
	stale := q.Session()
	q.End(nil)

	second, _ := heldJob()
	q.Push(second)
	require.NoError(t, q.Start(nil))

	assert.False(t, q.endSession(stale, context.Canceled))
	assert.True(t, q.Running())
	assert.Equal(t, 1, q.InFlight())

	assert.True(t, q.endSession(q.Session(), context.Canceled))
	assert.False(t, q.Running())
}

func TestQueue_PromiseAndTaskJobs(t *testing.T) {
	q := newTestQueue(WithResults())
	q.Push(
		core.NewPromiseJob(func(ctx context.Context) *future.Future[any] {
			return future.Go(ctx, func(context.Context) (any, error) { return "promised", nil })
		}),
		core.NewTask(func(context.Context) (any, error) { return "task", nil }),
	)

	results, err := q.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"promised"}, {"task"}}, results)
}

func TestQueue_TaskPanicReported(t *testing.T) {
	q := newTestQueue()
	q.Push(core.NewTask(func(context.Context) (any, error) {
		panic("kaboom")
	}))

	_, err := q.Run(context.Background())
	var pe *core.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
}

func TestQueue_EventsChannel(t *testing.T) {
	q := newTestQueue()
	ch := q.Events()
	defer q.Unsubscribe(ch)

	job := valueJob(1)
	q.Push(job)
	require.NoError(t, q.Start(nil))

	require.Len(t, ch, 3)
	started := (<-ch).(*core.JobStarted)
	assert.Same(t, job, started.Job)
	succeeded := (<-ch).(*core.JobSucceeded)
	assert.Equal(t, []any{1}, succeeded.Result)
	ended := (<-ch).(*core.QueueEnded)
	assert.NoError(t, ended.Error)
	assert.Equal(t, uint64(0), ended.Session)
}

func TestQueue_EventsDropWhenFull(t *testing.T) {
	q := newTestQueue()
	ch := q.Events()
	defer q.Unsubscribe(ch)

	for i := 0; i < 101; i++ {
		q.emit(&core.JobStarted{Job: valueJob(i)})
	}
	assert.Len(t, ch, 100)
}

func TestQueue_UnsubscribeStopsDelivery(t *testing.T) {
	q := newTestQueue()
	ch := q.Events()
	q.Unsubscribe(ch)

	q.emit(&core.JobStarted{Job: valueJob(1)})
	assert.Len(t, ch, 0)

	// Unknown channel is a no-op
	q.Unsubscribe(make(chan core.Event))
}

func TestQueue_ListenerRemoval(t *testing.T) {
	q := newTestQueue()

	var calls atomic.Int32
	remove := q.On(core.EventStart, func(core.Event) { calls.Add(1) })

	q.emit(&core.JobStarted{Job: valueJob(1)})
	remove()
	remove()
	q.emit(&core.JobStarted{Job: valueJob(2)})

	assert.Equal(t, int32(1), calls.Load())
}

func TestQueue_ListenersRunInOrder(t *testing.T) {
	q := newTestQueue()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 3; i++ {
		q.OnEnd(func(*core.QueueEnded) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	require.NoError(t, q.Start(nil))
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestQueue_EndFromListener(t *testing.T) {
	q := newTestQueue(WithConcurrency(1), WithFailFast(false))
	second := valueJob(2)
	q.Push(valueJob(1), second)

	stop := errors.New("stop")
	q.OnJobSuccess(func(*core.JobSucceeded) { q.End(stop) })

	_, err := q.Run(context.Background())
	assert.ErrorIs(t, err, stop)
	assert.False(t, second.Started())
}

func TestQueue_ConcurrentPush(t *testing.T) {
	q := newTestQueue(WithConcurrency(4), WithResults())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Push(core.NewTask(func(context.Context) (any, error) { return i, nil }))
		}()
	}
	wg.Wait()

	results, err := q.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 8)
}
