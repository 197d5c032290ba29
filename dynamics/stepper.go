package dynamics

import "time"

// FixedStepper advances a World in fixed increments from variable frame
// times. Leftover time is carried to the next call.
type FixedStepper struct {
	World *World
	// Dt is the fixed step in seconds.
	Dt float64
	// MaxSteps caps the steps per Advance so a long stall does not spiral.
	// Zero means no cap.
	MaxSteps int

	accumulator float64
}

// NewFixedStepper steps w at hz steps per second, at most 8 per call.
func NewFixedStepper(w *World, hz float64) *FixedStepper {
	return &FixedStepper{World: w, Dt: 1 / hz, MaxSteps: 8}
}

// Advance adds elapsed time and runs as many whole steps as fit. It
// returns the number of steps taken.
func (s *FixedStepper) Advance(elapsed time.Duration) int {
	s.accumulator += elapsed.Seconds()
	steps := 0
	for s.accumulator >= s.Dt {
		if s.MaxSteps > 0 && steps == s.MaxSteps {
			// drop the backlog
			s.accumulator = 0
			break
		}
		s.World.Step(s.Dt)
		s.accumulator -= s.Dt
		steps++
	}
	return steps
}

// Alpha is the fraction of a step left in the accumulator, for
// interpolating rendered transforms.
func (s *FixedStepper) Alpha() float64 { return s.accumulator / s.Dt }

// Reset drops any accumulated time.
func (s *FixedStepper) Reset() { s.accumulator = 0 }
