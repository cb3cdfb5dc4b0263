// Package swatch draws material stages as small preview images.
//
// A swatch is a square split in two: the top half shows the ambient,
// diffuse, specular and emissive colours as vertical bands (colour alpha as
// opacity), the bottom half the stage texture tinted by the diffuse colour.
package swatch

import (
	"image"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"

	"parkan-material/internal/material"
)

// Render draws stage at size×size pixels. tex may be nil for untextured
// stages; the lower half is then filled with the diffuse colour. With
// supersample > 1 the swatch is drawn larger and filtered down.
func Render(stage *material.Stage, tex *image.NRGBA, size, supersample int) *image.NRGBA {
	if supersample < 1 {
		supersample = 1
	}
	n := size * supersample
	img := image.NewNRGBA(image.Rect(0, 0, n, n))
	if n == 0 {
		return img
	}

	bands := [4]material.Color{stage.Ambient, stage.Diffuse, stage.Specular, stage.Emissive}
	top := n / 2
	for i, c := range bands {
		x0, x1 := i*n/4, (i+1)*n/4
		fill(img, image.Rect(x0, 0, x1, top), toNRGBA(c))
	}

	tile := image.Rect(0, top, n, n)
	d := stage.Diffuse
	if tex == nil || tex.Rect.Empty() {
		fill(img, tile, toNRGBA(material.Color{R: d.R, G: d.G, B: d.B, A: 1}))
	} else {
		tint := [3]float64{float64(clampUnit(d.R)), float64(clampUnit(d.G)), float64(clampUnit(d.B))}
		th := float64(tile.Dy())
		for y := tile.Min.Y; y < tile.Max.Y; y++ {
			v := (float64(y-tile.Min.Y) + 0.5) / th
			for x := 0; x < n; x++ {
				u := (float64(x) + 0.5) / float64(n)
				s := sampleTexture(tex, u, v)
				i := img.PixOffset(x, y)
				for c := 0; c < 3; c++ {
					img.Pix[i+c] = clamp8(s[c] * tint[c])
				}
				img.Pix[i+3] = clamp8(s[3])
			}
		}
	}

	if supersample > 1 {
		img = downsample(img, size, size)
	}
	return img
}

// Strip places frames left to right. Frames are top-aligned; the strip is as
// tall as the tallest frame.
func Strip(frames []*image.NRGBA) *image.NRGBA {
	w, h := 0, 0
	for _, f := range frames {
		w += f.Rect.Dx()
		h = max(h, f.Rect.Dy())
	}
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	x := 0
	for _, f := range frames {
		r := image.Rect(x, 0, x+f.Rect.Dx(), f.Rect.Dy())
		draw.Draw(out, r, f, f.Rect.Min, draw.Src)
		x += f.Rect.Dx()
	}
	return out
}

// EncodeWebP writes img as lossless WebP.
func EncodeWebP(w io.Writer, img image.Image) error {
	return nativewebp.Encode(w, img, nil)
}

func fill(img *image.NRGBA, r image.Rectangle, c [4]uint8) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := img.PixOffset(x, y)
			copy(img.Pix[i:i+4], c[:])
		}
	}
}

func toNRGBA(c material.Color) [4]uint8 {
	return [4]uint8{
		clamp8(float64(clampUnit(c.R)) * 255),
		clamp8(float64(clampUnit(c.G)) * 255),
		clamp8(float64(clampUnit(c.B)) * 255),
		clamp8(float64(clampUnit(c.A)) * 255),
	}
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
