package detection

// Kernel sizes and iteration counts for the default cleanup.
const (
	OpenKernel      = 3
	OpenIterations  = 2
	CloseKernel     = 7
	CloseIterations = 3
)

// Erode shrinks foreground with a size×size rectangular element, iterations times.
// Pixels outside the mask do not take part.
func Erode(m *Mask, size, iterations int) *Mask {
	out := m
	for i := 0; i < iterations; i++ {
		out = rectFilter(out, size, true)
	}
	if out == m {
		out = m.clone()
	}
	return out
}

// Dilate grows foreground with a size×size rectangular element, iterations times.
func Dilate(m *Mask, size, iterations int) *Mask {
	out := m
	for i := 0; i < iterations; i++ {
		out = rectFilter(out, size, false)
	}
	if out == m {
		out = m.clone()
	}
	return out
}

// Open erodes then dilates, each iterations times. It removes foreground specks
// smaller than the element.
func Open(m *Mask, size, iterations int) *Mask {
	return Dilate(Erode(m, size, iterations), size, iterations)
}

// Close dilates then erodes, each iterations times. It fills background gaps
// smaller than the element.
func Close(m *Mask, size, iterations int) *Mask {
	return Erode(Dilate(m, size, iterations), size, iterations)
}

// Clean applies the default opening followed by the default closing.
func Clean(m *Mask) *Mask {
	return Close(Open(m, OpenKernel, OpenIterations), CloseKernel, CloseIterations)
}

func (m *Mask) clone() *Mask {
	return &Mask{Width: m.Width, Height: m.Height, Pix: append([]bool(nil), m.Pix...)}
}

// rectFilter runs a separable min (erode) or max (dilate) over a size×size window
// anchored at its centre.
func rectFilter(m *Mask, size int, erode bool) *Mask {
	if size <= 1 {
		return m.clone()
	}
	before := size / 2
	after := size - 1 - before

	tmp := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			tmp.Pix[y*m.Width+x] = windowResult(m, x, y, before, after, erode, true)
		}
	}

	out := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			out.Pix[y*m.Width+x] = windowResult(tmp, x, y, before, after, erode, false)
		}
	}
	return out
}

// windowResult is AND (erode) or OR (dilate) over the in-bounds pixels of a 1-D window.
func windowResult(m *Mask, x, y, before, after int, erode, horizontal bool) bool {
	for d := -before; d <= after; d++ {
		px, py := x, y
		if horizontal {
			px += d
		} else {
			py += d
		}
		if px < 0 || py < 0 || px >= m.Width || py >= m.Height {
			continue
		}
		v := m.Pix[py*m.Width+px]
		if erode && !v {
			return false
		}
		if !erode && v {
			return true
		}
	}
	return erode
}
