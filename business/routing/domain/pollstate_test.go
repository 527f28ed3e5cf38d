package domain

import (
	"math/rand"
	"testing"
	"time"
)

func TestNewPollState_Clamps(t *testing.T) {
	s := NewPollState(time.Minute, 500*time.Millisecond, 30*time.Second, time.Second)
	if s.Current != 30*time.Second {
		t.Errorf("Current = %v, want max", s.Current)
	}

	s = NewPollState(time.Millisecond, 500*time.Millisecond, 30*time.Second, time.Second)
	if s.Current != 500*time.Millisecond {
		t.Errorf("Current = %v, want min", s.Current)
	}

	s = NewPollState(time.Second, 2*time.Second, time.Second, 0)
	if s.Max != s.Min || s.Current != 2*time.Second {
		t.Errorf("inverted bounds not normalized: %+v", s)
	}
}

func TestPollState_Transitions(t *testing.T) {
	s := NewPollState(3*time.Second, 500*time.Millisecond, 10*time.Second, 500*time.Millisecond)

	s = s.RecordMiss()
	if s.Current != 3500*time.Millisecond || s.ConsecutiveMisses != 1 {
		t.Fatalf("after 1 miss: %+v", s)
	}
	s = s.RecordMiss()
	if s.Current != 4500*time.Millisecond || s.ConsecutiveMisses != 2 {
		t.Fatalf("after 2 misses: %+v", s)
	}

	s = s.RecordHit()
	if s.Current != 2250*time.Millisecond || s.ConsecutiveMisses != 0 {
		t.Fatalf("after hit: %+v", s)
	}

	for i := 0; i < 10; i++ {
		s = s.RecordHit()
	}
	if s.Current != 500*time.Millisecond {
		t.Errorf("repeated hits: Current = %v, want min", s.Current)
	}

	for i := 0; i < 20; i++ {
		s = s.RecordMiss()
	}
	if s.Current != 10*time.Second {
		t.Errorf("repeated misses: Current = %v, want max", s.Current)
	}
}

func TestPollState_MonotoneAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	min, max := 200*time.Millisecond, 15*time.Second

	for trial := 0; trial < 50; trial++ {
		initial := time.Duration(rng.Int63n(int64(20 * time.Second)))
		step := time.Duration(rng.Int63n(int64(2 * time.Second)))
		s := NewPollState(initial, min, max, step)

		for i := 0; i < 200; i++ {
			prev := s.Current
			if rng.Intn(3) == 0 {
				s = s.RecordHit()
				if s.Current > prev {
					t.Fatalf("hit increased interval %v -> %v", prev, s.Current)
				}
			} else {
				s = s.RecordMiss()
				if s.Current < prev {
					t.Fatalf("miss decreased interval %v -> %v", prev, s.Current)
				}
			}
			if s.Current < min || s.Current > max {
				t.Fatalf("interval %v outside [%v, %v]", s.Current, min, max)
			}
		}
	}
}
