package scene

import "math"

// Demo is the built-in scene: two crossed static floors tilted by three
// degrees and three bouncing balls of different restitution.
func Demo() *Scene {
	tilt := 3 * math.Pi / 180
	floor := func(angle float64) BodySpec {
		return BodySpec{
			Type:     "static",
			Position: Vec{0, 0.9},
			Angle:    angle,
			Fixtures: []FixtureSpec{{
				Shape:       "box",
				HalfWidth:   39,
				HalfHeight:  3.6,
				Density:     10,
				Restitution: 1,
			}},
		}
	}
	ball := func(name string, x, y, r, restitution float64) BodySpec {
		return BodySpec{
			Name:     name,
			Type:     "dynamic",
			Position: Vec{x, y},
			Fixtures: []FixtureSpec{{
				Shape:       "circle",
				Radius:      r,
				Density:     10,
				Restitution: restitution,
			}},
		}
	}

	floorA, floorB := floor(tilt), floor(-tilt)
	floorA.Name, floorB.Name = "floor", "floor2"
	return &Scene{
		Name:    "demo",
		Gravity: &Vec{0, -10},
		Bodies: []BodySpec{
			floorA,
			floorB,
			ball("left", -24, 32.4, 1.2, 0.5),
			ball("right", 24, 28.8, 1.8, 0.3),
			ball("middle", 0, 34.2, 0.9, 1),
		},
	}
}
