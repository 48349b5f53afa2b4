package rectify

import (
	photo "github.com/ironsheep/photo-touchup-mcp/internal/imaging"
)

// Preset is a named background colour range.
type Preset struct {
	Name  string    `json:"name" toml:"name"`
	Lower photo.HSV `json:"lower" toml:"lower"`
	Upper photo.HSV `json:"upper" toml:"upper"`
}

// Range returns the preset as an HSVRange.
func (p Preset) Range() photo.HSVRange {
	return photo.HSVRange{Lower: p.Lower, Upper: p.Upper}
}

// DefaultBackground is a pale-blue scanning mat.
var DefaultBackground = photo.HSVRange{
	Lower: photo.HSV{90, 40, 100},
	Upper: photo.HSV{130, 255, 255},
}

// DefaultPresets are tried in order when searching for a mat colour.
var DefaultPresets = []Preset{
	{Name: "Defaults", Lower: photo.HSV{90, 40, 100}, Upper: photo.HSV{130, 255, 255}},
	{Name: "Wider Saturation", Lower: photo.HSV{90, 20, 90}, Upper: photo.HSV{135, 255, 255}},
	{Name: "Narrower Saturation", Lower: photo.HSV{90, 60, 110}, Upper: photo.HSV{130, 230, 255}},
	{Name: "Higher Value Min", Lower: photo.HSV{90, 40, 130}, Upper: photo.HSV{130, 255, 255}},
	{Name: "Lower Value Min", Lower: photo.HSV{90, 40, 70}, Upper: photo.HSV{130, 255, 255}},
	{Name: "Slightly Wider Hue", Lower: photo.HSV{85, 40, 100}, Upper: photo.HSV{135, 255, 255}},
	{Name: "Even Wider Saturation", Lower: photo.HSV{90, 10, 80}, Upper: photo.HSV{130, 255, 255}},
	{Name: "Brighter Overall", Lower: photo.HSV{85, 30, 150}, Upper: photo.HSV{135, 255, 255}},
	{Name: "Darker Overall", Lower: photo.HSV{90, 40, 100}, Upper: photo.HSV{130, 255, 200}},
}

// Attempt records one range tried by FindBackgroundHSV.
type Attempt struct {
	Preset    Preset `json:"preset"`
	Effective bool   `json:"effective"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Reason    string `json:"reason,omitempty"`
}

// SearchResult is the outcome of FindBackgroundHSV.
type SearchResult struct {
	Found    bool      `json:"found"`
	Preset   Preset    `json:"preset"`
	Result   *Result   `json:"result,omitempty"`
	Attempts []Attempt `json:"attempts"`
}

// FindBackgroundHSV tries the current range first and then each preset, skipping
// invalid ranges and ranges already tried, and stops at the first one whose
// rectification is effective. rectify defaults to Rectify when nil.
func FindBackgroundHSV(buf *photo.Buffer, current Preset, presets []Preset, opts Options, rectify Func) *SearchResult {
	if rectify == nil {
		rectify = Rectify
	}

	out := &SearchResult{}
	seen := make(map[photo.HSVRange]bool)

	for _, p := range append([]Preset{current}, presets...) {
		r := p.Range()
		if !r.Valid() || seen[r] {
			continue
		}
		seen[r] = true

		o := opts
		o.Background = r
		res := rectify(buf, o)

		out.Attempts = append(out.Attempts, Attempt{
			Preset:    p,
			Effective: res.Effective,
			Width:     res.Width,
			Height:    res.Height,
			Reason:    res.Reason,
		})
		if res.Effective {
			out.Found = true
			out.Preset = p
			out.Result = res
			return out
		}
	}
	return out
}
