package queue

// resultSet stores job results at the index reserved when each job was admitted.
type resultSet struct {
	slots [][]any
}

func (r *resultSet) reserve() int {
	r.slots = append(r.slots, nil)
	return len(r.slots) - 1
}

func (r *resultSet) set(i int, values []any) {
	if i >= 0 && i < len(r.slots) {
		r.slots[i] = values
	}
}

func (r *resultSet) snapshot() [][]any {
	out := make([][]any, len(r.slots))
	copy(out, r.slots)
	return out
}

// Results returns a copy of the collected results in admission order, or
// nil when the queue was created without WithResults. A slot stays nil
// until its job succeeds.
func (q *Queue) Results() [][]any {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.results == nil {
		return nil
	}
	return q.results.snapshot()
}

// ResetResults discards collected results. Results of jobs admitted
// before the reset are dropped.
func (q *Queue) ResetResults() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.results != nil {
		q.results = &resultSet{}
	}
}
