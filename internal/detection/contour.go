package detection

import (
	"image"
	"math"
	"sort"
)

// Contour is a closed border traced through pixel centres.
type Contour []image.Point

// Area returns the enclosed area by the shoelace formula.
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}
	var sum int
	for i, p := range c {
		q := c[(i+1)%len(c)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(sum)) / 2
}

// Perimeter returns the length of the closed curve.
func (c Contour) Perimeter() float64 {
	if len(c) < 2 {
		return 0
	}
	var total float64
	for i, p := range c {
		q := c[(i+1)%len(c)]
		total += math.Hypot(float64(q.X-p.X), float64(q.Y-p.Y))
	}
	return total
}

// BoundingBox returns the smallest rectangle containing every point.
func (c Contour) BoundingBox() image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: c[0], Max: c[0]}
	for _, p := range c[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	// Max is exclusive in image.Rectangle.
	r.Max = r.Max.Add(image.Pt(1, 1))
	return r
}

// neighbours in counterclockwise order as seen on screen (y grows downward).
var neighbours = [8]image.Point{
	{1, 0},   // E
	{1, -1},  // NE
	{0, -1},  // N
	{-1, -1}, // NW
	{-1, 0},  // W
	{-1, 1},  // SW
	{0, 1},   // S
	{1, 1},   // SE
}

const dirWest = 4

// ExternalContours returns the outer border of every 8-connected foreground
// component that is not enclosed by a hole of another component. Contours are
// returned in raster order of their first pixel.
func ExternalContours(m *Mask) []Contour {
	outside := outerBackground(m)
	labelled := make([]bool, len(m.Pix))

	var contours []Contour
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := y*m.Width + x
			if !m.Pix[i] || labelled[i] {
				continue
			}
			labelComponent(m, labelled, x, y)

			// The west neighbour of a component's first raster pixel lies in the
			// background region that surrounds it.
			if x == 0 || outside[i-1] {
				contours = append(contours, traceBorder(m, image.Pt(x, y)))
			}
		}
	}
	return contours
}

// SortByArea orders contours largest first. Equal areas keep raster order.
func SortByArea(contours []Contour) {
	type entry struct {
		c    Contour
		area float64
	}
	entries := make([]entry, len(contours))
	for i, c := range contours {
		entries[i] = entry{c: c, area: c.Area()}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].area > entries[j].area
	})
	for i := range entries {
		contours[i] = entries[i].c
	}
}

// outerBackground marks background pixels 4-connected to the area outside the mask.
func outerBackground(m *Mask) []bool {
	seen := make([]bool, len(m.Pix))
	var stack []image.Point

	push := func(x, y int) {
		if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
			return
		}
		i := y*m.Width + x
		if m.Pix[i] || seen[i] {
			return
		}
		seen[i] = true
		stack = append(stack, image.Pt(x, y))
	}

	for x := 0; x < m.Width; x++ {
		push(x, 0)
		push(x, m.Height-1)
	}
	for y := 0; y < m.Height; y++ {
		push(0, y)
		push(m.Width-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		push(p.X+1, p.Y)
		push(p.X-1, p.Y)
		push(p.X, p.Y+1)
		push(p.X, p.Y-1)
	}
	return seen
}

// labelComponent marks every foreground pixel 8-connected to (x, y).
func labelComponent(m *Mask, labelled []bool, x, y int) {
	stack := []image.Point{{X: x, Y: y}}
	labelled[y*m.Width+x] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, d := range neighbours {
			q := p.Add(d)
			if !m.At(q.X, q.Y) {
				continue
			}
			j := q.Y*m.Width + q.X
			if labelled[j] {
				continue
			}
			labelled[j] = true
			stack = append(stack, q)
		}
	}
}

// traceBorder follows the outer border counterclockwise from start, the first
// raster pixel of its component, until it returns to start.
func traceBorder(m *Mask, start image.Point) Contour {
	// Look clockwise from the west neighbour for the last border pixel.
	first := -1
	for k := 0; k < 8; k++ {
		d := (dirWest - k + 8) % 8
		q := start.Add(neighbours[d])
		if m.At(q.X, q.Y) {
			first = d
			break
		}
	}
	if first < 0 {
		return Contour{start}
	}
	last := start.Add(neighbours[first])

	contour := Contour{}
	prev, cur := last, start
	for {
		from := direction(cur, prev)
		var next image.Point
		for k := 1; k <= 8; k++ {
			q := cur.Add(neighbours[(from+k)%8])
			if m.At(q.X, q.Y) {
				next = q
				break
			}
		}

		contour = append(contour, cur)
		if next == start && cur == last {
			return contour
		}
		prev, cur = cur, next
	}
}

// direction returns the neighbour index that leads from a to its neighbour b.
func direction(a, b image.Point) int {
	d := b.Sub(a)
	for i, n := range neighbours {
		if n == d {
			return i
		}
	}
	return 0
}
