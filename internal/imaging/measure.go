package imaging

import "image"

// Effectiveness decides whether a crop changed an image enough to count.
type Effectiveness struct {
	// MinDeltaPixels is the absolute width or height change that counts as a change.
	MinDeltaPixels int `json:"min_delta_pixels" toml:"min_delta_pixels"`

	// MinDeltaRatio is the relative width or height change that counts as a change.
	MinDeltaRatio float64 `json:"min_delta_ratio" toml:"min_delta_ratio"`

	// MinAreaRatio is the smallest fraction of the original area the result may keep.
	MinAreaRatio float64 `json:"min_area_ratio" toml:"min_area_ratio"`
}

// DefaultEffectiveness requires a change of more than 5 px or 1% on either axis
// while keeping more than 5% of the original area.
var DefaultEffectiveness = Effectiveness{
	MinDeltaPixels: 5,
	MinDeltaRatio:  0.01,
	MinAreaRatio:   0.05,
}

// IsCropEffective reports whether going from original to cropped dimensions is a
// meaningful crop under e.
func (e Effectiveness) IsCropEffective(original, cropped image.Point) bool {
	if cropped.X <= 0 || cropped.Y <= 0 {
		return false
	}
	if original.X <= 0 || original.Y <= 0 {
		return true
	}

	dw := abs(original.X - cropped.X)
	dh := abs(original.Y - cropped.Y)

	changed := dw > e.MinDeltaPixels || dh > e.MinDeltaPixels ||
		float64(dw) > float64(original.X)*e.MinDeltaRatio ||
		float64(dh) > float64(original.Y)*e.MinDeltaRatio
	if !changed {
		return false
	}

	return float64(cropped.X*cropped.Y) > e.MinAreaRatio*float64(original.X*original.Y)
}

// IsCropEffective applies DefaultEffectiveness to two buffers.
func IsCropEffective(original, cropped *Buffer) bool {
	if cropped.Empty() {
		return false
	}
	return DefaultEffectiveness.IsCropEffective(
		image.Pt(original.Width(), original.Height()),
		image.Pt(cropped.Width(), cropped.Height()),
	)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
