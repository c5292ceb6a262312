package deque

// Deque is an ordered double-ended collection. The zero value is ready to use.
// A Deque is not safe for concurrent use.
type Deque[T any] struct {
	items []T
}

// New returns a Deque holding items in order.
func New[T any](items ...T) *Deque[T] {
	d := &Deque[T]{}
	d.PushBack(items...)
	return d
}

// Len returns the number of items.
func (d *Deque[T]) Len() int {
	return len(d.items)
}

// PushBack appends items and returns the new length.
func (d *Deque[T]) PushBack(items ...T) int {
	d.items = append(d.items, items...)
	return len(d.items)
}

// PushFront prepends items, keeping their relative order, and returns the new length.
func (d *Deque[T]) PushFront(items ...T) int {
	if len(items) == 0 {
		return len(d.items)
	}
	merged := make([]T, 0, len(items)+len(d.items))
	merged = append(merged, items...)
	merged = append(merged, d.items...)
	d.items = merged
	return len(d.items)
}

// PopFront removes and returns the first item.
func (d *Deque[T]) PopFront() (T, bool) {
	var zero T
	if len(d.items) == 0 {
		return zero, false
	}
	item := d.items[0]
	d.items[0] = zero
	d.items = d.items[1:]
	return item, true
}

// PopBack removes and returns the last item.
func (d *Deque[T]) PopBack() (T, bool) {
	var zero T
	n := len(d.items)
	if n == 0 {
		return zero, false
	}
	item := d.items[n-1]
	d.items[n-1] = zero
	d.items = d.items[:n-1]
	return item, true
}

// At returns the item at index i. Negative i counts from the end.
func (d *Deque[T]) At(i int) (T, bool) {
	var zero T
	if i < 0 {
		i += len(d.items)
	}
	if i < 0 || i >= len(d.items) {
		return zero, false
	}
	return d.items[i], true
}

// Splice removes deleteCount items starting at start, inserts items in their
// place, and returns the removed items.
func (d *Deque[T]) Splice(start, deleteCount int, items ...T) []T {
	n := len(d.items)
	start = clampIndex(start, n)
	if deleteCount < 0 {
		deleteCount = 0
	}
	if deleteCount > n-start {
		deleteCount = n - start
	}

	removed := make([]T, deleteCount)
	copy(removed, d.items[start:start+deleteCount])

	out := make([]T, 0, n-deleteCount+len(items))
	out = append(out, d.items[:start]...)
	out = append(out, items...)
	out = append(out, d.items[start+deleteCount:]...)
	d.items = out
	return removed
}

// Slice keeps only the items in [start, end) and discards the rest.
func (d *Deque[T]) Slice(start, end int) {
	n := len(d.items)
	start = clampIndex(start, n)
	end = clampIndex(end, n)
	if end < start {
		end = start
	}
	kept := make([]T, end-start)
	copy(kept, d.items[start:end])
	d.items = kept
}

// Reverse reverses the order of the items in place.
func (d *Deque[T]) Reverse() {
	for i, j := 0, len(d.items)-1; i < j; i, j = i+1, j-1 {
		d.items[i], d.items[j] = d.items[j], d.items[i]
	}
}

// IndexFunc returns the index of the first item at or after from that
// satisfies match, or -1.
func (d *Deque[T]) IndexFunc(match func(T) bool, from int) int {
	n := len(d.items)
	if from < 0 {
		from += n
		if from < 0 {
			from = 0
		}
	}
	for i := from; i < n; i++ {
		if match(d.items[i]) {
			return i
		}
	}
	return -1
}

// LastIndexFunc returns the index of the last item at or before from that
// satisfies match, or -1.
func (d *Deque[T]) LastIndexFunc(match func(T) bool, from int) int {
	n := len(d.items)
	if from < 0 {
		from += n
	}
	if from >= n {
		from = n - 1
	}
	for i := from; i >= 0; i-- {
		if match(d.items[i]) {
			return i
		}
	}
	return -1
}

// Clear removes all items.
func (d *Deque[T]) Clear() {
	clear(d.items)
	d.items = nil
}

// Items returns a copy of the items in order.
func (d *Deque[T]) Items() []T {
	out := make([]T, len(d.items))
	copy(out, d.items)
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
		return i
	}
	if i > n {
		return n
	}
	return i
}
