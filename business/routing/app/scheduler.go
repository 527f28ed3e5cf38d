package app

import (
	"sync"
	"time"

	"github.com/fd1az/flashroute/business/routing/domain"
)

// SchedulerConfig selects adaptive or fixed cadence.
type SchedulerConfig struct {
	Adaptive    bool
	Interval    time.Duration
	MinInterval time.Duration
	MaxInterval time.Duration
	BackoffStep time.Duration
}

// Scheduler owns the PollState. Observe is its only write path; the
// mutex lets health checks and the dashboard read a snapshot.
type Scheduler struct {
	mu       sync.Mutex
	adaptive bool
	state    domain.PollState
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if !cfg.Adaptive {
		return &Scheduler{
			state: domain.NewPollState(cfg.Interval, cfg.Interval, cfg.Interval, 0),
		}
	}

	return &Scheduler{
		adaptive: true,
		state:    domain.NewPollState(cfg.Interval, cfg.MinInterval, cfg.MaxInterval, cfg.BackoffStep),
	}
}

// Observe records a cycle outcome and returns the sleep before the next cycle.
func (s *Scheduler) Observe(outcome domain.Outcome) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if outcome.IsHit() {
		s.state = s.state.RecordHit()
	} else {
		s.state = s.state.RecordMiss()
	}
	return s.state.Current
}

// Interval is the current sleep.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Current
}

// State returns a copy of the poll state.
func (s *Scheduler) State() domain.PollState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) Adaptive() bool {
	return s.adaptive
}
