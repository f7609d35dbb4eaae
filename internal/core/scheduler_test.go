package core

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerRunsAction(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	done := make(chan struct{})
	if !s.Schedule(10*time.Millisecond, func() { close(done) }) {
		t.Fatal("schedule refused")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("action never ran")
	}
	if n := s.Pending(); n != 0 {
		t.Fatalf("expected nothing pending, got %d", n)
	}
}

func TestSchedulerStopDropsPending(t *testing.T) {
	s := NewScheduler()

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		s.Schedule(time.Hour, func() { ran.Add(1) })
	}
	if n := s.Pending(); n != 5 {
		t.Fatalf("expected 5 pending, got %d", n)
	}

	s.Stop()
	if n := s.Pending(); n != 0 {
		t.Fatalf("expected 0 pending after stop, got %d", n)
	}
	if s.Schedule(0, func() { ran.Add(1) }) {
		t.Fatal("schedule accepted after stop")
	}
	time.Sleep(20 * time.Millisecond)
	if ran.Load() != 0 {
		t.Fatalf("dropped actions ran %d times", ran.Load())
	}
}

func TestSchedulerStopWaitsForRunning(t *testing.T) {
	s := NewScheduler()

	started := make(chan struct{})
	var finished atomic.Bool
	s.Schedule(0, func() {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})

	<-started
	s.Stop()
	if !finished.Load() {
		t.Fatal("stop returned before the running action finished")
	}
}
