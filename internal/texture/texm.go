package texture

import (
	"errors"
	"fmt"
	"image"

	"parkan-material/internal/binread"
)

// TEXM pixel formats, stored as their decimal names.
const (
	FormatIndexed = 0
	Format565     = 565
	Format4444    = 4444
	Format888     = 888
	Format8888    = 8888
)

const (
	texmMagic      = "Texm"
	texmHeaderSize = 32
	paletteSize    = 1024
)

var ErrTexm = errors.New("invalid texm texture")

// TexmHeader is the fixed 32-byte TEXM header.
type TexmHeader struct {
	Width, Height int
	MipCount      int
	Stride        int // bits per pixel as written by the exporter; not trusted
	Format        int
}

// bytesPerPixel returns the storage size of one top-level pixel.
func (h TexmHeader) bytesPerPixel() (int, error) {
	switch h.Format {
	case FormatIndexed:
		return 1, nil
	case Format565, Format4444:
		return 2, nil
	case Format888, Format8888:
		return 4, nil
	}
	return 0, fmt.Errorf("texm: unknown pixel format %d: %w", h.Format, ErrTexm)
}

// ParseTexmHeader reads the header at the start of data.
func ParseTexmHeader(data []byte) (TexmHeader, error) {
	var h TexmHeader
	if len(data) < texmHeaderSize {
		return h, fmt.Errorf("texm: %d bytes, shorter than header: %w", len(data), ErrTexm)
	}
	if string(data[:4]) != texmMagic {
		return h, fmt.Errorf("texm: bad magic %q: %w", data[:4], ErrTexm)
	}

	r := binread.New(data[4:texmHeaderSize])
	var f [7]uint32
	for i := range f {
		f[i], _ = r.ReadU32()
	}
	h = TexmHeader{
		Width:    int(int32(f[0])),
		Height:   int(int32(f[1])),
		MipCount: int(int32(f[2])),
		Stride:   int(int32(f[3])),
		Format:   int(int32(f[6])),
	}
	if h.Width <= 0 || h.Height <= 0 || h.Width > 1<<14 || h.Height > 1<<14 {
		return h, fmt.Errorf("texm: bad size %dx%d: %w", h.Width, h.Height, ErrTexm)
	}
	return h, nil
}

// DecodeTexm decodes the top mip level of a TEXM texture.
func DecodeTexm(data []byte) (*image.NRGBA, error) {
	h, err := ParseTexmHeader(data)
	if err != nil {
		return nil, err
	}
	bpp, err := h.bytesPerPixel()
	if err != nil {
		return nil, err
	}

	body := data[texmHeaderSize:]
	var palette []byte
	if h.Format == FormatIndexed {
		if len(body) < paletteSize {
			return nil, fmt.Errorf("texm: palette truncated: %w", ErrTexm)
		}
		palette, body = body[:paletteSize], body[paletteSize:]
	}

	n := h.Width * h.Height
	if len(body) < n*bpp {
		return nil, fmt.Errorf("texm: top level needs %d bytes, have %d: %w", n*bpp, len(body), ErrTexm)
	}

	img := image.NewNRGBA(image.Rect(0, 0, h.Width, h.Height))
	pix := img.Pix
	for i := 0; i < n; i++ {
		src := body[i*bpp : i*bpp+bpp]
		dst := pix[i*4 : i*4+4]
		switch h.Format {
		case FormatIndexed:
			// Palette alpha is unused by the engine.
			p := palette[int(src[0])*4:]
			dst[0], dst[1], dst[2], dst[3] = p[0], p[1], p[2], 255
		case Format565:
			v := uint16(src[0]) | uint16(src[1])<<8
			dst[0] = expand(uint8(v>>11), 5)
			dst[1] = expand(uint8(v>>5)&0x3F, 6)
			dst[2] = expand(uint8(v)&0x1F, 5)
			dst[3] = 255
		case Format4444:
			dst[0] = (src[1] & 0x0F) * 17
			dst[1] = (src[1] >> 4) * 17
			dst[2] = (src[0] & 0x0F) * 17
			dst[3] = (src[0] >> 4) * 17
		case Format888:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 255
		case Format8888:
			dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], src[3]
		}
	}
	return img, nil
}

// expand widens a bits-wide channel value to 8 bits.
func expand(v uint8, bits uint) uint8 {
	top := uint32(1)<<bits - 1
	return uint8(uint32(v) * 255 / top)
}
