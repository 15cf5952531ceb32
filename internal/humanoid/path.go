// internal/humanoid/path.go
package humanoid

import (
	"math"
	"math/rand"

	"github.com/xkilldash9x/rere/internal/input"
)

const (
	minControlPoints = 4
	maxControlPoints = 8
)

// NaturalPath turns a straight relative move into a curved sequence of packets.
//
// The line from the origin to (dx, dy) gets numControl control points (clamped
// to 4..8); interior points wander perpendicular to the line, more so for long
// moves, but never by more than a quarter of the length. The curve is sampled
// through a smoothstep-eased Catmull-Rom spline and the samples are converted
// to integer deltas, each split into packets of at most maxStep (clamped to the
// hardware packet range).
//
// Deltas are taken between rounded absolute positions and the last sample is
// pinned to the endpoint, so the packets always sum to exactly (dx, dy).
// A nil rng yields an unperturbed path.
func NaturalPath(dx, dy, numControl, maxStep int, rng *rand.Rand) [][2]int {
	if dx == 0 && dy == 0 {
		return nil
	}
	end := Vector2D{X: float64(dx), Y: float64(dy)}
	length := end.Mag()
	if length < 1 {
		return [][2]int{{dx, dy}}
	}
	maxStep = input.ClampPacket(maxStep)

	n := numControl
	if n < minControlPoints {
		n = minControlPoints
	}
	if n > maxControlPoints {
		n = maxControlPoints
	}

	perp := end.Normalize().Perp()
	wanderCap := length / 4
	ctrl := make([]Vector2D, n)
	for i := 1; i < n-1; i++ {
		t := float64(i) / float64(n-1)
		noise := 0.0
		if rng != nil {
			noise = (rng.Float64()*4 - 2) * (length/50.0 + 1)
		}
		noise = math.Max(-wanderCap, math.Min(wanderCap, noise))
		ctrl[i] = end.Mul(t).Add(perp.Mul(noise))
	}
	ctrl[n-1] = end

	samples := int(length/4) + 1
	if samples < 4 {
		samples = 4
	}

	out := make([][2]int, 0, samples)
	prevX, prevY := 0, 0
	for i := 1; i <= samples; i++ {
		x, y := dx, dy
		if i < samples {
			x, y = splinePoint(ctrl, easeInOut(float64(i)/float64(samples))).Round()
		}
		out = append(out, input.Chunk(x-prevX, y-prevY, maxStep)...)
		prevX, prevY = x, y
	}
	return out
}

// easeInOut is the smoothstep curve t^2(3-2t).
func easeInOut(t float64) float64 {
	if t <= 0 || t >= 1 {
		return t
	}
	return t * t * (3.0 - 2.0*t)
}

// splinePoint evaluates the Catmull-Rom curve through ctrl at t in [0, 1],
// clamping neighbor indices at the ends of the sequence.
func splinePoint(ctrl []Vector2D, t float64) Vector2D {
	n := len(ctrl)
	seg := t * float64(n-1)
	idx := int(seg)
	if idx > n-2 {
		idx = n - 2
	}
	if idx < 0 {
		idx = 0
	}
	u := seg - float64(idx)

	p0 := ctrl[max(0, idx-1)]
	p1 := ctrl[idx]
	p2 := ctrl[idx+1]
	p3 := ctrl[min(n-1, idx+2)]
	return Vector2D{
		X: catmullRom(p0.X, p1.X, p2.X, p3.X, u),
		Y: catmullRom(p0.Y, p1.Y, p2.Y, p3.Y, u),
	}
}

func catmullRom(p0, p1, p2, p3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}
