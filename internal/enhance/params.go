package enhance

// BilateralParams configures the denoise stage.
type BilateralParams struct {
	// Diameter of the pixel neighbourhood. Values <= 0 derive it from SigmaSpace.
	Diameter   int     `json:"diameter" toml:"diameter"`
	SigmaColor float64 `json:"sigma_color" toml:"sigma_color"`
	SigmaSpace float64 `json:"sigma_space" toml:"sigma_space"`
}

// CLAHEParams configures the contrast stage.
type CLAHEParams struct {
	ClipLimit float64 `json:"clip_limit" toml:"clip_limit"`
	// TileGrid is the number of tiles along each axis.
	TileGrid int `json:"tile_grid" toml:"tile_grid"`
}

// SharpenParams configures the unsharp mask.
type SharpenParams struct {
	Sigma    float64 `json:"sigma" toml:"sigma"`
	Strength float64 `json:"strength" toml:"strength"`
}

// Defaults for each stage.
var (
	DefaultBilateral = BilateralParams{Diameter: 9, SigmaColor: 75, SigmaSpace: 75}
	DefaultCLAHE     = CLAHEParams{ClipLimit: 2.0, TileGrid: 8}
	DefaultSharpen   = SharpenParams{Sigma: 1.0, Strength: 0.5}
)
