package semaphore

import (
	"container/heap"
	"context"
	"sync"
)

// PrioritySemaphore hands free slots to the waiter with the highest priority first.
type PrioritySemaphore struct {
	lock      sync.Mutex
	waiters   queue
	capacity  int
	allocated int
	sequence  uint64
}

func NewPrioritySemaphore(capacity int) *PrioritySemaphore {
	if capacity <= 0 {
		panic("invalid capacity")
	}

	s := &PrioritySemaphore{
		capacity: capacity,
		waiters:  make(queue, 0),
	}
	heap.Init(&s.waiters)
	return s
}

func (s *PrioritySemaphore) Acquire(priority int) {
	s.lock.Lock()

	if s.allocated < s.capacity {
		s.allocated++
		s.lock.Unlock()
		return
	}

	ch := make(chan struct{})
	heap.Push(&s.waiters, queueEntry{ch, priority, s.sequence})
	s.sequence++

	s.lock.Unlock()

	<-ch
}

func (s *PrioritySemaphore) Release() {
	s.lock.Lock()

	s.allocated--

	for s.allocated < s.capacity && s.waiters.Len() != 0 {
		e := heap.Pop(&s.waiters).(queueEntry)
		close(e.ch)
		s.allocated++
	}

	s.lock.Unlock()
}

// Do runs f while holding a slot.
// f isn't called if ctx was canceled while waiting for the slot.
func (s *PrioritySemaphore) Do(ctx context.Context, priority int, f func() error) error {
	s.Acquire(priority)
	defer s.Release()

	err := ctx.Err()
	if err != nil {
		return err
	}
	return f()
}

type queueEntry struct {
	ch       chan struct{}
	priority int
	sequence uint64
}

type queue []queueEntry

func (pq queue) Len() int {
	return len(pq)
}

// Less orders by priority and, for equal priorities, by arrival.
func (pq queue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority > pq[j].priority
	}
	return pq[i].sequence < pq[j].sequence
}

func (pq queue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *queue) Push(x any) {
	*pq = append(*pq, x.(queueEntry))
}

func (pq *queue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}
