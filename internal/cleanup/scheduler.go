package cleanup

import (
	"sync"
	"time"
)

// Func performs the teardown for one transfer id. It must be idempotent.
type Func func(transferID string)

// Scheduler holds one cancellable deferred-cleanup handle per transfer id.
// The protocol never cancels a scheduled task today, but the handle exists
// so future activity on a transfer could withdraw it.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	run    Func
}

func NewScheduler(run Func) *Scheduler {
	return &Scheduler{
		timers: make(map[string]*time.Timer),
		run:    run,
	}
}

// Schedule arms (or re-arms) the deferred cleanup for transferID.
func (s *Scheduler) Schedule(transferID string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[transferID]; ok {
		t.Stop()
	}
	s.timers[transferID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, transferID)
		s.mu.Unlock()
		s.run(transferID)
	})
}

// Cancel withdraws a pending task. Returns false if none was pending.
func (s *Scheduler) Cancel(transferID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[transferID]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.timers, transferID)
	return true
}

// Pending reports whether a task is armed for transferID.
func (s *Scheduler) Pending(transferID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[transferID]
	return ok
}

// Stop cancels every pending task without running any of them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
