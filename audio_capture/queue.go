package audio_capture

import (
	"sync"
	"sync/atomic"
)

// FrameQueue is a bounded single-producer queue that drops the oldest frame
// when full
type FrameQueue struct {
	c         chan Frame
	dropped   atomic.Int64
	closeOnce sync.Once
}

func NewFrameQueue(depth int) *FrameQueue {
	if depth < 1 {
		depth = 1
	}
	return &FrameQueue{c: make(chan Frame, depth)}
}

// Push never blocks. Only the producer may call it.
func (q *FrameQueue) Push(f Frame) {
	for {
		select {
		case q.c <- f:
			return
		default:
		}

		select {
		case <-q.c:
			q.dropped.Add(1)
		default:
		}
	}
}

func (q *FrameQueue) C() <-chan Frame { return q.c }

// Dropped counts frames evicted to make room
func (q *FrameQueue) Dropped() int64 { return q.dropped.Load() }

func (q *FrameQueue) Close() {
	q.closeOnce.Do(func() { close(q.c) })
}
