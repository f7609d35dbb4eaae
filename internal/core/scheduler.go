package core

import (
	"sync"
	"time"
)

// Scheduler runs deferred actions on their own goroutines.
type Scheduler struct {
	mu     sync.Mutex
	timers map[uint64]*time.Timer
	next   uint64
	closed bool
	wg     sync.WaitGroup
}

// NewScheduler constructs an idle scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[uint64]*time.Timer)}
}

// Schedule runs fn once after delay. Returns false after Stop.
func (s *Scheduler) Schedule(delay time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if delay < 0 {
		delay = 0
	}

	id := s.next
	s.next++
	s.wg.Add(1)
	s.timers[id] = time.AfterFunc(delay, func() {
		defer s.wg.Done()

		s.mu.Lock()
		_, live := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()

		if live {
			fn()
		}
	})
	return true
}

// Pending returns the number of actions that have not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop drops pending actions and waits for running ones to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.closed = true
	for id, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}
