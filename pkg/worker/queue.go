package worker

import (
	"container/heap"
	"sync"
	"time"

	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

// PendingInference wraps an accepted request with channels for the
// result. Images arrive base64-encoded on the wire and are decoded
// before enqueueing.
type PendingInference struct {
	Req       *lbv1.AIRequest
	Images    [][]byte
	DoneCh    chan string
	ErrCh     chan error
	EnqueueAt time.Time
	index     int // used by heap
}

// InferenceQueue orders pending requests by arrival time. Slot runners
// block on Dequeue until work or shutdown.
type InferenceQueue struct {
	mu     sync.Mutex
	items  []*PendingInference
	notify chan struct{}
}

func NewInferenceQueue() *InferenceQueue {
	q := &InferenceQueue{
		items:  make([]*PendingInference, 0, 64),
		notify: make(chan struct{}, 1),
	}
	heap.Init(q)
	return q
}

// Enqueue adds a request and wakes one idle slot (thread-safe).
func (q *InferenceQueue) Enqueue(pi *PendingInference) {
	q.mu.Lock()
	heap.Push(q, pi)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Dequeue blocks until a request is available or stop closes, in which
// case it returns nil.
func (q *InferenceQueue) Dequeue(stop <-chan struct{}) *PendingInference {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			pi := heap.Pop(q).(*PendingInference)
			q.mu.Unlock()
			return pi
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-stop:
			return nil
		}
	}
}

// Depth returns current queue depth (thread-safe).
func (q *InferenceQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// --- heap.Interface implementation (not thread-safe, use Enqueue/Dequeue) ---

func (q *InferenceQueue) Len() int { return len(q.items) }

func (q *InferenceQueue) Less(i, j int) bool {
	// Earlier arrival first (FIFO).
	return q.items[i].EnqueueAt.Before(q.items[j].EnqueueAt)
}

func (q *InferenceQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *InferenceQueue) Push(x interface{}) {
	item := x.(*PendingInference)
	item.index = len(q.items)
	q.items = append(q.items, item)
}

func (q *InferenceQueue) Pop() interface{} {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	q.items = old[:n-1]
	return item
}
