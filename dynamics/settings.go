// Package dynamics is the rigid-body engine: bodies, fixtures, contacts,
// joints, islands and the World that steps them.
package dynamics

import (
	"math"

	"github.com/koteyur/physac2d/collision"
)

// Settings tunes the solver. Start from DefaultSettings and override what
// you need; the zero value is not usable.
type Settings struct {
	VelocityIterations int
	PositionIterations int

	WarmStarting      bool
	ContinuousPhysics bool
	// EnableSubStepping resolves at most one TOI event per Step, leaving
	// the rest for the following calls. Useful for debugging CCD.
	EnableSubStepping bool
	AutoClearForces   bool

	AllowSleep            bool
	TimeToSleep           float64
	LinearSleepTolerance  float64
	AngularSleepTolerance float64

	// VelocityThreshold is the relative normal speed below which
	// collisions are treated as inelastic.
	VelocityThreshold float64

	Baumgarte            float64
	ToiBaumgarte         float64
	MaxLinearCorrection  float64
	MaxAngularCorrection float64

	// MaxTranslation and MaxRotation clamp the motion of one body in one
	// step.
	MaxTranslation float64
	MaxRotation    float64

	MaxSubSteps    int
	MaxTOIContacts int
}

// DefaultSettings returns the stock tuning for a 60 Hz step.
func DefaultSettings() Settings {
	return Settings{
		VelocityIterations:    8,
		PositionIterations:    3,
		WarmStarting:          true,
		ContinuousPhysics:     true,
		AutoClearForces:       true,
		AllowSleep:            true,
		TimeToSleep:           0.5,
		LinearSleepTolerance:  0.01,
		AngularSleepTolerance: 2.0 / 180.0 * math.Pi,
		VelocityThreshold:     1.0,
		Baumgarte:             0.2,
		ToiBaumgarte:          0.75,
		MaxLinearCorrection:   0.2,
		MaxAngularCorrection:  8.0 / 180.0 * math.Pi,
		MaxTranslation:        2.0,
		MaxRotation:           0.5 * math.Pi,
		MaxSubSteps:           8,
		MaxTOIContacts:        32,
	}
}

const (
	linearSlop  = collision.LinearSlop
	angularSlop = collision.AngularSlop

	// maxFloat is the default breakpoint: joints never break unless told to.
	maxFloat = math.MaxFloat64
)

// mixFriction uses the geometric mean so a frictionless fixture slides on
// anything.
func mixFriction(a, b float64) float64 {
	return math.Sqrt(a * b)
}

// mixRestitution takes the bouncier of the two.
func mixRestitution(a, b float64) float64 {
	return math.Max(a, b)
}
