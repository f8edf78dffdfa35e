package arrival

// Queue is a growable ring buffer of timestamps with FIFO access.
// The zero value is an empty queue ready for use.
type Queue struct {
	buf  []float64
	head int
	n    int
}

// NewQueue returns a queue with room for capacity values before it grows.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{buf: make([]float64, capacity)}
}

// Len returns the number of queued values.
func (q *Queue) Len() int {
	return q.n
}

// PushBack appends v at the tail.
func (q *Queue) PushBack(v float64) {
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = v
	q.n++
}

// Front returns the head value without removing it.
func (q *Queue) Front() (float64, bool) {
	if q.n == 0 {
		return 0, false
	}
	return q.buf[q.head], true
}

// PopFront removes and returns the head value.
func (q *Queue) PopFront() (float64, bool) {
	if q.n == 0 {
		return 0, false
	}
	v := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	if q.n == 0 {
		q.head = 0
	}
	return v, true
}

func (q *Queue) grow() {
	size := 2 * len(q.buf)
	if size == 0 {
		size = 16
	}
	buf := make([]float64, size)
	for i := 0; i < q.n; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
