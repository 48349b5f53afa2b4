package detection

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/photo-touchup-mcp/internal/imaging"
)

func TestOrderQuad(t *testing.T) {
	tl, tr, br, bl := PointF{10, 10}, PointF{90, 12}, PointF{88, 70}, PointF{12, 68}
	want := Quad{tl, tr, br, bl}

	inputs := map[string][4]PointF{
		"canonical":        {tl, tr, br, bl},
		"reversed":         {bl, br, tr, tl},
		"rotated start":    {br, bl, tl, tr},
		"counterclockwise": {tl, bl, br, tr},
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			if got := OrderQuad(in); got != want {
				t.Errorf("OrderQuad(%v) = %v, want %v", in, got, want)
			}
		})
	}
}

func TestQuad_Size(t *testing.T) {
	q := Quad{{0, 0}, {99, 0}, {99, 49}, {0, 49}}
	w, h := q.Size()
	if w != 99 || h != 49 {
		t.Errorf("Size: got %dx%d, want 99x49", w, h)
	}

	skewed := Quad{{0, 0}, {100, 10}, {90, 60}, {5, 50}}
	w, h = skewed.Size()
	if w != 100 || h != 51 {
		t.Errorf("skewed Size: got %dx%d, want 100x51", w, h)
	}
}

func TestQuad_Points(t *testing.T) {
	q := Quad{{0.4, 0.6}, {9.5, 0}, {9, 9}, {0, 9}}
	pts := q.Points()
	if pts[0] != image.Pt(0, 1) || pts[1] != image.Pt(10, 0) {
		t.Errorf("Points: got %v", pts)
	}
}

func TestFindQuad_Filters(t *testing.T) {
	tests := []struct {
		name      string
		rect      image.Rectangle
		wantFound bool
	}{
		{"plausible photo", image.Rect(20, 20, 80, 60), true},
		{"too small", image.Rect(10, 10, 15, 15), false},
		{"sliver", image.Rect(5, 40, 95, 55), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMask(100, 100)
			for y := tt.rect.Min.Y; y < tt.rect.Max.Y; y++ {
				for x := tt.rect.Min.X; x < tt.rect.Max.X; x++ {
					m.Set(x, y, true)
				}
			}

			d := FindQuad(ExternalContours(m), 100, 100, DefaultQuadOptions)
			if d.Found != tt.wantFound {
				t.Fatalf("Found: got %v (%s), want %v", d.Found, d.Reason, tt.wantFound)
			}
			if !d.Found && d.Reason == "" {
				t.Error("a failed search should give a reason")
			}
		})
	}
}

func TestFindQuad_NoContours(t *testing.T) {
	d := FindQuad(nil, 100, 100, DefaultQuadOptions)
	if d.Found || d.Reason != "no contours found" {
		t.Errorf("got %+v", d)
	}
}

func TestFindQuad_WholeFrame(t *testing.T) {
	m := NewMask(400, 400)
	for i := range m.Pix {
		m.Pix[i] = true
	}
	if d := FindQuad(ExternalContours(m), 400, 400, DefaultQuadOptions); d.Found {
		t.Error("a contour covering the whole frame should be rejected")
	}
}

func TestDetectQuad_PhotoOnMat(t *testing.T) {
	img := createMatImage(300, 200, image.Rect(60, 40, 240, 160), color.NRGBA{240, 240, 235, 255})

	d := DetectQuad(img, background, DefaultQuadOptions)
	if !d.Found {
		t.Fatalf("photo not found: %s", d.Reason)
	}

	want := Quad{{60, 40}, {239, 40}, {239, 159}, {60, 159}}
	if d.Quad != want {
		t.Errorf("Quad: got %v, want %v", d.Quad, want)
	}
	if d.Mask == nil {
		t.Error("Detection should carry the cleaned mask")
	}
}

func TestDetectQuad_IgnoresSpecks(t *testing.T) {
	img := createMatImage(300, 200, image.Rect(60, 40, 240, 160), color.NRGBA{255, 255, 255, 255})
	for _, p := range []image.Point{{10, 10}, {290, 190}, {20, 180}} {
		img.SetNRGBA(p.X, p.Y, color.NRGBA{0, 0, 0, 255})
	}

	d := DetectQuad(img, background, DefaultQuadOptions)
	if !d.Found {
		t.Fatalf("photo not found: %s", d.Reason)
	}
	if d.Contours != 1 {
		t.Errorf("specks should be removed before contour extraction: got %d contours", d.Contours)
	}
}

func TestDetectQuad_NoPhoto(t *testing.T) {
	img := createMatImage(400, 400, image.Rectangle{}, paleBlue)

	d := DetectQuad(img, background, DefaultQuadOptions)
	if d.Found {
		t.Error("plain mat should not yield a quadrilateral")
	}

	none := imaging.HSVRange{Lower: imaging.HSV{0, 0, 0}, Upper: imaging.HSV{0, 0, 0}}
	d = DetectQuad(img, none, DefaultQuadOptions)
	if d.Found || d.Reason != "background range matches no pixels" {
		t.Errorf("a mask covering the whole frame should not yield a quadrilateral, got %+v", d)
	}
}
