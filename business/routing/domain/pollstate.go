package domain

import "time"

// PollState is the loop cadence. Transitions return a new value; the
// scheduler that owns it is the only writer.
type PollState struct {
	Current           time.Duration
	ConsecutiveMisses int
	Min               time.Duration
	Max               time.Duration
	// Step is added once per consecutive miss.
	Step time.Duration
}

// NewPollState clamps initial into [min, max]. A max below min is raised to min.
func NewPollState(initial, min, max, step time.Duration) PollState {
	if max < min {
		max = min
	}
	s := PollState{Min: min, Max: max, Step: step}
	s.Current = s.clamp(initial)
	return s
}

// RecordHit halves the interval, bounded below, and resets the miss count.
func (s PollState) RecordHit() PollState {
	s.ConsecutiveMisses = 0
	s.Current = s.clamp(s.Current / 2)
	return s
}

// RecordMiss grows the interval by step times the consecutive miss count,
// bounded above.
func (s PollState) RecordMiss() PollState {
	s.ConsecutiveMisses++
	grow := s.Step * time.Duration(s.ConsecutiveMisses)
	if grow < 0 || s.Current+grow < s.Current {
		s.Current = s.Max
		return s
	}
	s.Current = s.clamp(s.Current + grow)
	return s
}

func (s PollState) clamp(d time.Duration) time.Duration {
	if d < s.Min {
		return s.Min
	}
	if d > s.Max {
		return s.Max
	}
	return d
}
