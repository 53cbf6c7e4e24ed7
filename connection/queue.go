package connection

// neighbor is a candidate neighbor of a point.
type neighbor struct {
	Index    int
	Distance float64
}

// closer reports whether a ranks before b as a neighbor of the point at
// origin. On equal distances the neighbors that come after origin rank
// first, then lower indices. A point on a line whose two neighbors are
// equally far is then connected forward, which keeps every link of the line
// once pairs are only emitted from their smaller index.
func closer(origin int, a, b neighbor) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	if afterA, afterB := a.Index > origin, b.Index > origin; afterA != afterB {
		return afterA
	}
	return a.Index < b.Index
}

func compareNeighbors(origin int) func(a, b neighbor) int {
	return func(a, b neighbor) int {
		switch {
		case closer(origin, a, b):
			return -1
		case closer(origin, b, a):
			return 1
		default:
			return 0
		}
	}
}

// neighborQueue is a bounded max heap keeping the closest neighbors of the
// point at origin. The top is the farthest neighbor kept.
type neighborQueue struct {
	origin   int
	capacity int
	items    []neighbor
}

func newNeighborQueue(origin, capacity int) *neighborQueue {
	return &neighborQueue{
		origin:   origin,
		capacity: capacity,
		items:    make([]neighbor, 0, min(max(capacity, 0), 64)),
	}
}

func (q *neighborQueue) Reset() {
	q.items = q.items[:0]
}

func (q *neighborQueue) Len() int {
	return len(q.items)
}

// Push inserts a neighbor. When the queue is full, the neighbor replaces the
// farthest one only if it is closer.
func (q *neighborQueue) Push(n neighbor) {
	if q.capacity <= 0 {
		return
	}

	if len(q.items) < q.capacity {
		q.items = append(q.items, n)
		q.siftUp(len(q.items) - 1)
		return
	}

	if closer(q.origin, n, q.items[0]) {
		q.items[0] = n
		q.siftDown(0)
	}
}

// Sorted returns the kept neighbors, closest first. The queue is emptied.
func (q *neighborQueue) Sorted() []neighbor {
	res := make([]neighbor, len(q.items))
	for i := len(res) - 1; i >= 0; i-- {
		res[i] = q.pop()
	}
	return res
}

func (q *neighborQueue) pop() neighbor {
	n := len(q.items)
	top := q.items[0]
	q.items[0] = q.items[n-1]
	q.items = q.items[:n-1]
	if len(q.items) > 0 {
		q.siftDown(0)
	}
	return top
}

func (q *neighborQueue) less(i, j int) bool {
	return closer(q.origin, q.items[j], q.items[i])
}

func (q *neighborQueue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.less(i, parent) {
			break
		}
		q.items[i], q.items[parent] = q.items[parent], q.items[i]
		i = parent
	}
}

func (q *neighborQueue) siftDown(i int) {
	n := len(q.items)
	for {
		left := 2*i + 1
		if left >= n {
			return
		}

		top := left
		if right := left + 1; right < n && q.less(right, left) {
			top = right
		}
		if !q.less(top, i) {
			return
		}

		q.items[i], q.items[top] = q.items[top], q.items[i]
		i = top
	}
}
