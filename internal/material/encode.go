package material

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"parkan-material/internal/binread"
)

// Encode writes d in the archive payload layout for d.Version. Stage and
// animation counts come from the slices, not from StageCount/AnimCount.
// Colour channels are quantized back to bytes.
func Encode(d *Descriptor) ([]byte, error) {
	if len(d.Animations) > MaxAnimations {
		return nil, fmt.Errorf("material: encode %d animations: %w", len(d.Animations), ErrTooManyAnimations)
	}

	var buf bytes.Buffer
	le := binary.LittleEndian
	binary.Write(&buf, le, uint16(len(d.Stages)))
	binary.Write(&buf, le, uint16(len(d.Animations)))

	if d.Version >= 2 {
		buf.WriteByte(byte(d.Extras.SourceBlend))
		buf.WriteByte(byte(d.Extras.DestBlend))
	}
	if d.Version >= 3 {
		binary.Write(&buf, le, math.Float32bits(d.Extras.AlphaMultiplier))
	}
	if d.Version >= 4 {
		binary.Write(&buf, le, math.Float32bits(d.Extras.EmissiveIntensity))
	}

	for i := range d.Stages {
		s := &d.Stages[i]
		writeColor(&buf, s.Ambient, 100)
		writeColor(&buf, s.Diffuse, 255)
		writeColor(&buf, s.Specular, 255)
		writeColor(&buf, s.Emissive, 255)
		buf.WriteByte(quantize(s.Power, 1))
		buf.WriteByte(s.TextureStageIndex)

		name, err := binread.EncodeName(s.TextureName, textureNameSize)
		if err != nil {
			return nil, fmt.Errorf("material: encode stage %d: %w", i, err)
		}
		buf.Write(name)
	}

	for i, a := range d.Animations {
		if a.Target > 0x1FFF {
			return nil, fmt.Errorf("material: encode animation %d: target %#x exceeds 13 bits", i, uint16(a.Target))
		}
		if len(a.Keys) > math.MaxUint16 {
			return nil, fmt.Errorf("material: encode animation %d: %d keys", i, len(a.Keys))
		}
		binary.Write(&buf, le, uint16(a.Target)<<3|uint16(a.Loop&7))
		binary.Write(&buf, le, uint16(len(a.Keys)))
		for _, k := range a.Keys {
			binary.Write(&buf, le, k)
		}
	}

	return buf.Bytes(), nil
}

func writeColor(buf *bytes.Buffer, c Color, alphaScale float32) {
	buf.WriteByte(quantize(c.R, 255))
	buf.WriteByte(quantize(c.G, 255))
	buf.WriteByte(quantize(c.B, 255))
	buf.WriteByte(quantize(c.A, alphaScale))
}

func quantize(v, scale float32) byte {
	f := math.Round(float64(v * scale))
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return byte(f)
}
