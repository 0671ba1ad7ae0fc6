package semaphore

import (
	"context"
)

// Semaphore limits the number of goroutines inside a section to a fixed capacity.
type Semaphore struct {
	waiters chan struct{}
}

func NewSemaphore(capacity int) *Semaphore {
	if capacity <= 0 {
		panic("invalid capacity")
	}
	return &Semaphore{
		waiters: make(chan struct{}, capacity),
	}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.waiters <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Semaphore) Release() {
	<-s.waiters
}

func (s *Semaphore) Do(ctx context.Context, f func() error) error {
	err := s.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.Release()
	return f()
}
