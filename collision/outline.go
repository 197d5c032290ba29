package collision

import (
	"math"

	"github.com/koteyur/physac2d/geom"
)

// Outline returns the world-space outline of a shape for debug drawing.
// Circles are approximated with segments points; polygons and edges return
// their vertices.
func Outline(s Shape, xf geom.Transform, segments int) []geom.Vec2 {
	switch sh := s.(type) {
	case *CircleShape:
		if segments < 3 {
			segments = 3
		}
		c := xf.Apply(sh.Center)
		out := make([]geom.Vec2, segments)
		step := 2 * math.Pi / float64(segments)
		for i := range out {
			sin, cos := math.Sincos(step * float64(i))
			out[i] = c.Add(geom.V(cos, sin).Mul(sh.R))
		}
		return out
	case *PolygonShape:
		out := make([]geom.Vec2, len(sh.Vertices))
		for i, v := range sh.Vertices {
			out[i] = xf.Apply(v)
		}
		return out
	case *EdgeShape:
		return []geom.Vec2{xf.Apply(sh.V1), xf.Apply(sh.V2)}
	}
	return nil
}
