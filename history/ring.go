package history

// Ring is a fixed-capacity sequence of float64 values. Pushing onto a full
// Ring evicts the oldest value. Ring is not safe for concurrent use; Store
// serializes access.
type Ring struct {
	buf  []float64
	head int // index of the oldest value
	size int
}

// NewRing creates a Ring holding at most capacity values. A capacity below 1
// is raised to 1.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]float64, capacity)}
}

// Push appends v, evicting the oldest value when the Ring is full.
func (r *Ring) Push(v float64) {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = v
		r.size++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
}

// Len returns the number of values held.
func (r *Ring) Len() int {
	return r.size
}

// Cap returns the capacity.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Values returns a copy of the held values, oldest first.
func (r *Ring) Values() []float64 {
	out := make([]float64, r.size)
	n := copy(out, r.buf[r.head:min(r.head+r.size, len(r.buf))])
	copy(out[n:], r.buf[:r.size-n])
	return out
}

// Last returns the newest value and whether the Ring is non-empty.
func (r *Ring) Last() (float64, bool) {
	if r.size == 0 {
		return 0, false
	}
	return r.buf[(r.head+r.size-1)%len(r.buf)], true
}
