package display

// Deque is a double-ended sequence. It is not safe for concurrent use;
// the Manager only touches it from the loop goroutine.
type Deque[T any] struct {
	items []T
}

// PushFront inserts v before every other element.
func (d *Deque[T]) PushFront(v T) {
	d.items = append(d.items, v)
	copy(d.items[1:], d.items[:len(d.items)-1])
	d.items[0] = v
}

// PushBack appends v after every other element.
func (d *Deque[T]) PushBack(v T) {
	d.items = append(d.items, v)
}

// PopFront removes and returns the first element.
// Returns false if the deque is empty.
func (d *Deque[T]) PopFront() (T, bool) {
	var zero T
	if len(d.items) == 0 {
		return zero, false
	}
	v := d.items[0]
	d.items[0] = zero
	d.items = d.items[1:]
	return v, true
}

// PopBack removes and returns the last element.
// Returns false if the deque is empty.
func (d *Deque[T]) PopBack() (T, bool) {
	var zero T
	if len(d.items) == 0 {
		return zero, false
	}
	last := len(d.items) - 1
	v := d.items[last]
	d.items[last] = zero
	d.items = d.items[:last]
	return v, true
}

// Front returns the first element without removing it.
func (d *Deque[T]) Front() (T, bool) {
	if len(d.items) == 0 {
		var zero T
		return zero, false
	}
	return d.items[0], true
}

// Back returns the last element without removing it.
func (d *Deque[T]) Back() (T, bool) {
	if len(d.items) == 0 {
		var zero T
		return zero, false
	}
	return d.items[len(d.items)-1], true
}

// Snapshot returns a copy of the elements in order.
// The copy is safe to iterate while the deque is mutated.
func (d *Deque[T]) Snapshot() []T {
	out := make([]T, len(d.items))
	copy(out, d.items)
	return out
}

// Len returns the number of elements.
func (d *Deque[T]) Len() int {
	return len(d.items)
}

// IsEmpty reports whether the deque has no elements.
func (d *Deque[T]) IsEmpty() bool {
	return len(d.items) == 0
}
