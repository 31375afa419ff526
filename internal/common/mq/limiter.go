package mq

import "context"

// Slots bounds how many calls may be in flight at once.
type Slots struct {
	held chan struct{}
}

func NewSlots(n int) *Slots {
	if n <= 0 {
		n = 1
	}
	return &Slots{held: make(chan struct{}, n)}
}

// Acquire waits for a free slot until ctx is done.
func (s *Slots) Acquire(ctx context.Context) error {
	select {
	case s.held <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot. Extra calls are ignored.
func (s *Slots) Release() {
	select {
	case <-s.held:
	default:
	}
}

// InUse reports held slots.
func (s *Slots) InUse() int { return len(s.held) }

// Cap reports the slot count.
func (s *Slots) Cap() int { return cap(s.held) }
