// Package deque provides an ordered double-ended collection.
//
// Index arguments follow the usual sequence conventions: negative values
// count back from the end and out-of-range values are clamped, so callers
// can treat a Deque like a mutable array without bounds checks.
package deque
