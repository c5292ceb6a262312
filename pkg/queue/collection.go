package queue

import "github.com/jdziat/simple-async-jobs/pkg/core"

// Push appends jobs to the pending list and returns its new length.
func (q *Queue) Push(jobs ...*core.Job) int {
	q.mu.Lock()
	n := q.pending.PushBack(compact(jobs)...)
	autostart := q.autostart
	q.mu.Unlock()

	if autostart {
		q.admit()
	}
	return n
}

// Unshift prepends jobs to the pending list and returns its new length.
func (q *Queue) Unshift(jobs ...*core.Job) int {
	q.mu.Lock()
	n := q.pending.PushFront(compact(jobs)...)
	autostart := q.autostart
	q.mu.Unlock()

	if autostart {
		q.admit()
	}
	return n
}

// Pop removes and returns the last pending job, or nil.
func (q *Queue) Pop() *core.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, _ := q.pending.PopBack()
	return job
}

// Shift removes and returns the first pending job, or nil.
func (q *Queue) Shift() *core.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, _ := q.pending.PopFront()
	return job
}

// Splice removes deleteCount pending jobs starting at start, inserts jobs
// in their place and returns the removed jobs. Negative start counts from
// the end.
func (q *Queue) Splice(start, deleteCount int, jobs ...*core.Job) []*core.Job {
	q.mu.Lock()
	removed := q.pending.Splice(start, deleteCount, compact(jobs)...)
	autostart := q.autostart
	q.mu.Unlock()

	if autostart {
		q.admit()
	}
	return removed
}

// Slice keeps only the pending jobs in [start, end).
func (q *Queue) Slice(start, end int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending.Slice(start, end)
}

// Reverse reverses the pending list.
func (q *Queue) Reverse() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending.Reverse()
}

// IndexOf returns the position of job in the pending list at or after from, or -1.
func (q *Queue) IndexOf(job *core.Job, from int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.IndexFunc(same(job), from)
}

// LastIndexOf returns the last position of job in the pending list at or
// before from, or -1. Pass Len() or larger to search the whole list.
func (q *Queue) LastIndexOf(job *core.Job, from int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.LastIndexFunc(same(job), from)
}

// At returns the pending job at index i, or nil. Negative i counts from the end.
func (q *Queue) At(i int) *core.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, _ := q.pending.At(i)
	return job
}

// Pending returns a copy of the pending list.
func (q *Queue) Pending() []*core.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Items()
}

// Len returns the outstanding work: in-flight plus pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight + q.pending.Len()
}

func same(job *core.Job) func(*core.Job) bool {
	return func(j *core.Job) bool { return j == job }
}

func compact(jobs []*core.Job) []*core.Job {
	out := jobs[:0:0]
	for _, j := range jobs {
		if j != nil {
			out = append(out, j)
		}
	}
	return out
}
