package swatch

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/webp"

	"parkan-material/internal/material"
)

func testStage() *material.Stage {
	return &material.Stage{
		Ambient:  material.Color{R: 1, G: 0, B: 0, A: 1},
		Diffuse:  material.Color{R: 0, G: 1, B: 0, A: 1},
		Specular: material.Color{R: 0, G: 0, B: 1, A: 0.5},
		Emissive: material.Color{R: 2, G: -1, B: 1, A: 1}, // out of range, clamped
	}
}

func closeTo(a, b color.NRGBA, tol int) bool {
	d := func(x, y uint8) bool { v := int(x) - int(y); return v <= tol && v >= -tol }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func TestRenderBands(t *testing.T) {
	for _, ss := range []int{1, 2} {
		img := Render(testStage(), nil, 32, ss)
		if img.Rect.Dx() != 32 || img.Rect.Dy() != 32 {
			t.Fatalf("ss=%d: size %v", ss, img.Rect)
		}
		tests := []struct {
			x, y int
			want color.NRGBA
		}{
			{4, 8, color.NRGBA{255, 0, 0, 255}},
			{12, 8, color.NRGBA{0, 255, 0, 255}},
			{20, 8, color.NRGBA{0, 0, 255, 128}},
			{28, 8, color.NRGBA{255, 0, 255, 255}},
			{16, 24, color.NRGBA{0, 255, 0, 255}}, // untextured tile is diffuse
		}
		for _, tt := range tests {
			if got := img.NRGBAAt(tt.x, tt.y); !closeTo(got, tt.want, 2) {
				t.Errorf("ss=%d (%d,%d) = %v, want %v", ss, tt.x, tt.y, got, tt.want)
			}
		}
	}
}

func TestRenderTintsTexture(t *testing.T) {
	tex := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range tex.Pix {
		tex.Pix[i] = 200
	}
	st := testStage()
	st.Diffuse = material.Color{R: 0.5, G: 1, B: 0, A: 1}

	img := Render(st, tex, 8, 1)
	got := img.NRGBAAt(3, 6)
	want := color.NRGBA{100, 200, 0, 200}
	if !closeTo(got, want, 1) {
		t.Errorf("tile pixel = %v, want %v", got, want)
	}
}

func TestRenderDegenerate(t *testing.T) {
	if img := Render(testStage(), nil, 0, 4); !img.Rect.Empty() {
		t.Errorf("size 0 = %v", img.Rect)
	}
	if img := Render(testStage(), nil, 4, 0); img.Rect.Dx() != 4 {
		t.Errorf("supersample 0 = %v", img.Rect)
	}
}

func TestSampleTextureWraps(t *testing.T) {
	tex := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	tex.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 255})
	tex.SetNRGBA(1, 0, color.NRGBA{255, 255, 255, 255})

	for _, u := range []float64{0.5, 1.5, -0.5} {
		s := sampleTexture(tex, u, 0)
		if s[0] < 127 || s[0] > 128 {
			t.Errorf("u=%v: R = %v, want 127.5", u, s[0])
		}
	}
}

func TestStripAndEncode(t *testing.T) {
	frames := []*image.NRGBA{
		Render(testStage(), nil, 8, 1),
		Render(testStage(), nil, 8, 1),
		image.NewNRGBA(image.Rect(0, 0, 4, 4)),
	}
	strip := Strip(frames)
	if strip.Rect.Dx() != 20 || strip.Rect.Dy() != 8 {
		t.Fatalf("strip = %v, want 20x8", strip.Rect)
	}
	if got := strip.NRGBAAt(9, 1); got != frames[1].NRGBAAt(1, 1) {
		t.Errorf("second frame pixel = %v", got)
	}

	var buf bytes.Buffer
	if err := EncodeWebP(&buf, strip); err != nil {
		t.Fatalf("EncodeWebP: %v", err)
	}
	cfg, err := webp.DecodeConfig(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 20 || cfg.Height != 8 {
		t.Errorf("webp size = %dx%d", cfg.Width, cfg.Height)
	}
}
