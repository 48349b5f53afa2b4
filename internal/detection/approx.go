package detection

import (
	"image"
	"math"
)

// ApproxPolygon simplifies a closed contour with the Douglas-Peucker algorithm.
//
// The curve is split at the point farthest from its first point and at the point
// farthest from that one; each half is simplified separately. A final pass drops
// vertices that lie within epsilon of the segment joining their neighbours, which
// removes split points that landed in the middle of a straight edge.
func ApproxPolygon(c Contour, epsilon float64) Contour {
	n := len(c)
	if n < 3 {
		return append(Contour(nil), c...)
	}

	a := farthestFrom(c, c[0])
	b := farthestFrom(c, c[a])
	if a == b {
		return Contour{c[a]}
	}
	if a > b {
		a, b = b, a
	}

	// Two chains sharing their end points: a..b and b..a (wrapping).
	first := append(Contour(nil), c[a:b+1]...)
	second := append(append(Contour(nil), c[b:]...), c[:a+1]...)

	poly := simplifyChain(first, epsilon)
	tail := simplifyChain(second, epsilon)
	// Drop the duplicated joints.
	poly = append(poly[:len(poly)-1], tail[:len(tail)-1]...)

	return dropCollinear(poly, epsilon)
}

func farthestFrom(c Contour, p image.Point) int {
	best, bestD := 0, -1
	for i, q := range c {
		dx, dy := q.X-p.X, q.Y-p.Y
		if d := dx*dx + dy*dy; d > bestD {
			best, bestD = i, d
		}
	}
	return best
}

// simplifyChain is Douglas-Peucker on an open chain; both end points are kept.
func simplifyChain(chain Contour, epsilon float64) Contour {
	if len(chain) < 3 {
		return append(Contour(nil), chain...)
	}

	keep := make([]bool, len(chain))
	keep[0], keep[len(chain)-1] = true, true

	type span struct{ lo, hi int }
	stack := []span{{0, len(chain) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx, maxD := -1, 0.0
		for i := s.lo + 1; i < s.hi; i++ {
			if d := segmentDistance(chain[i], chain[s.lo], chain[s.hi]); d > maxD {
				idx, maxD = i, d
			}
		}
		if idx >= 0 && maxD > epsilon {
			keep[idx] = true
			stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
		}
	}

	out := make(Contour, 0, len(chain))
	for i, k := range keep {
		if k {
			out = append(out, chain[i])
		}
	}
	return out
}

// dropCollinear removes vertices of a closed polygon that sit within epsilon of
// the segment between their neighbours, repeating until nothing changes.
func dropCollinear(poly Contour, epsilon float64) Contour {
	for changed := true; changed && len(poly) > 3; {
		changed = false
		for i := 0; i < len(poly) && len(poly) > 3; i++ {
			prev := poly[(i+len(poly)-1)%len(poly)]
			next := poly[(i+1)%len(poly)]
			if segmentDistance(poly[i], prev, next) <= epsilon {
				poly = append(poly[:i], poly[i+1:]...)
				changed = true
				i--
			}
		}
	}
	return poly
}

// segmentDistance is the distance from p to the segment ab.
func segmentDistance(p, a, b image.Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	px, py := float64(p.X-a.X), float64(p.Y-a.Y)

	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px, py)
	}
	t := (px*dx + py*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-t*dx, py-t*dy)
}
