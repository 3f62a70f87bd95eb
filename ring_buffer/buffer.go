// Package ring_buffer keeps the most recent samples of a stream
package ring_buffer

// RingBuffer holds at most size samples, the oldest are overwritten first
type RingBuffer struct {
	buffer []int16
	head   int
	filled int
}

func New(size int) *RingBuffer {
	if size < 1 {
		size = 1
	}
	return &RingBuffer{
		buffer: make([]int16, size),
	}
}

func (r *RingBuffer) Add(samples []int16) {
	// only the tail of an oversized write can survive
	if len(samples) > len(r.buffer) {
		samples = samples[len(samples)-len(r.buffer):]
	}
	for _, s := range samples {
		r.buffer[r.head] = s
		r.head = (r.head + 1) % len(r.buffer)
	}
	r.filled += len(samples)
	if r.filled > len(r.buffer) {
		r.filled = len(r.buffer)
	}
}

// Read returns every buffered sample, oldest first
func (r *RingBuffer) Read() []int16 {
	return r.Tail(r.filled)
}

// Tail returns the newest n samples, oldest first, or fewer when not filled yet
func (r *RingBuffer) Tail(n int) []int16 {
	if n > r.filled {
		n = r.filled
	}
	if n <= 0 {
		return []int16{}
	}
	samples := make([]int16, n)
	start := r.head - n
	if start < 0 {
		start += len(r.buffer)
	}
	for i := 0; i < n; i++ {
		samples[i] = r.buffer[(start+i)%len(r.buffer)]
	}
	return samples
}

// Len is the number of buffered samples
func (r *RingBuffer) Len() int { return r.filled }

func (r *RingBuffer) Clear() {
	for i := range r.buffer {
		r.buffer[i] = 0
	}
	r.head = 0
	r.filled = 0
}
