package collision

import (
	"math"

	"github.com/koteyur/physac2d/geom"
)

// TOIState is the outcome of a time of impact query.
type TOIState int

const (
	TOIUnknown TOIState = iota
	TOIFailed
	TOIOverlapped
	TOITouching
	TOISeparated
)

func (s TOIState) String() string {
	switch s {
	case TOIFailed:
		return "failed"
	case TOIOverlapped:
		return "overlapped"
	case TOITouching:
		return "touching"
	case TOISeparated:
		return "separated"
	default:
		return "unknown"
	}
}

// TOIInput holds two proxies moving along their sweeps. TMax bounds the
// search interval [0, TMax] in sweep fraction.
type TOIInput struct {
	ProxyA, ProxyB DistanceProxy
	SweepA, SweepB geom.Sweep
	TMax           float64
}

// TOIOutput reports the fraction T at which the proxies come within
// the target separation.
type TOIOutput struct {
	State TOIState
	T     float64
}

// TimeOfImpact finds the first fraction at which two swept convex shapes
// approach within a small target separation, using conservative
// advancement on the GJK distance. The motion bound accounts for both
// translation and rotation, so the advance never skips past contact.
func TimeOfImpact(in TOIInput) TOIOutput {
	out := TOIOutput{State: TOIUnknown, T: in.TMax}

	proxyA, proxyB := in.ProxyA, in.ProxyB
	sweepA, sweepB := in.SweepA, in.SweepB
	sweepA.Normalize()
	sweepB.Normalize()

	totalRadius := proxyA.Radius + proxyB.Radius
	target := math.Max(LinearSlop, totalRadius-3*LinearSlop)
	tolerance := 0.25 * LinearSlop

	// largest speed any point of either proxy can reach over the sweep
	rA := maxVertexRadius(DistanceProxy{Vertices: proxyA.Vertices}, sweepA.LocalCenter)
	rB := maxVertexRadius(DistanceProxy{Vertices: proxyB.Vertices}, sweepB.LocalCenter)
	bound := sweepA.C.Sub(sweepA.C0).Len() + math.Abs(sweepA.A-sweepA.A0)*rA +
		sweepB.C.Sub(sweepB.C0).Len() + math.Abs(sweepB.A-sweepB.A0)*rB

	var cache SimplexCache
	t := 0.0
	for iter := 0; iter < MaxTOIIterations; iter++ {
		d := Distance(DistanceInput{
			ProxyA: proxyA,
			ProxyB: proxyB,
			XfA:    sweepA.Transform(t),
			XfB:    sweepB.Transform(t),
		}, &cache)

		if d.Distance <= 0 {
			out.State = TOIOverlapped
			out.T = 0
			return out
		}
		if d.Distance < target+tolerance {
			out.State = TOITouching
			out.T = t
			return out
		}
		if bound <= geom.Epsilon {
			out.State = TOISeparated
			out.T = in.TMax
			return out
		}

		t += (d.Distance - target) / bound
		if t >= in.TMax {
			out.State = TOISeparated
			out.T = in.TMax
			return out
		}
	}

	out.State = TOIFailed
	out.T = t
	return out
}
