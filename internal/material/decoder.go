package material

import (
	"fmt"

	"parkan-material/internal/binread"
)

const (
	textureNameSize = 16
	stageRecordSize = 16 + 1 + 1 + textureNameSize

	inv255      = 1.0 / 255.0
	ambientAInv = 1.0 / 100.0
)

// TextureResolver maps a stage's texture name to a cached texture.
type TextureResolver interface {
	Resolve(name string, mode TextureMode) (TextureHandle, error)
}

// headerTier is one version-gated block of descriptor extras.
type headerTier struct {
	minVersion uint8
	read       func(r *binread.Reader, x *Extras) error
}

// headerTiers lists the extras blocks in file order. A block is present
// when the format version is at least minVersion.
var headerTiers = []headerTier{
	{2, func(r *binread.Reader, x *Extras) error {
		src, err := r.ReadU8()
		if err != nil {
			return err
		}
		dst, err := r.ReadU8()
		if err != nil {
			return err
		}
		x.SourceBlend, x.DestBlend = BlendMode(src), BlendMode(dst)
		return nil
	}},
	{3, func(r *binread.Reader, x *Extras) error {
		v, err := r.ReadF32()
		x.AlphaMultiplier = v
		return err
	}},
	{4, func(r *binread.Reader, x *Extras) error {
		v, err := r.ReadF32()
		x.EmissiveIntensity = v
		return err
	}},
}

// Decode reconstructs a descriptor from an archive payload. The returned
// descriptor has no name, index or references; the table fills those in.
// On error nothing is returned.
func Decode(payload []byte, meta Metadata, env Environment, res TextureResolver) (*Descriptor, error) {
	r := binread.New(payload)
	d := &Descriptor{
		Version:      meta.FormatVersion,
		Capabilities: DecodeCapabilities(meta.CapabilityBits, env),
		Extras:       DefaultExtras(),
	}

	stageCount, err := r.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("material: stage count: %w", err)
	}
	animCount, err := r.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("material: animation count: %w", err)
	}
	if animCount > MaxAnimations {
		return nil, fmt.Errorf("material: %d animations: %w", animCount, ErrTooManyAnimations)
	}
	d.StageCount, d.AnimCount = int(stageCount), int(animCount)

	for _, tier := range headerTiers {
		if meta.FormatVersion < tier.minVersion {
			break
		}
		if err := tier.read(r, &d.Extras); err != nil {
			return nil, fmt.Errorf("material: v%d header: %w", tier.minVersion, err)
		}
	}

	// Reject short payloads before resolving any texture.
	if need := d.StageCount * stageRecordSize; r.Remaining() < need {
		return nil, fmt.Errorf("material: %d stages need %d bytes, have %d: %w",
			d.StageCount, need, r.Remaining(), ErrFormat)
	}

	d.Stages = make([]Stage, d.StageCount)
	for i := range d.Stages {
		if err := decodeStage(r, &d.Stages[i], d.Capabilities.TextureMode, res); err != nil {
			return nil, fmt.Errorf("material: stage %d: %w", i, err)
		}
	}

	d.Animations = make([]Animation, d.AnimCount)
	for i := range d.Animations {
		if err := decodeAnimation(r, &d.Animations[i]); err != nil {
			return nil, fmt.Errorf("material: animation %d: %w", i, err)
		}
	}

	return d, nil
}

func readColor(r *binread.Reader, alphaScale float32) (Color, error) {
	b, err := r.ReadFixed(4)
	if err != nil {
		return Color{}, err
	}
	return Color{
		R: float32(b[0]) * inv255,
		G: float32(b[1]) * inv255,
		B: float32(b[2]) * inv255,
		A: float32(b[3]) * alphaScale,
	}, nil
}

func decodeStage(r *binread.Reader, s *Stage, mode TextureMode, res TextureResolver) error {
	var err error
	if s.Ambient, err = readColor(r, ambientAInv); err != nil {
		return err
	}
	if s.Diffuse, err = readColor(r, inv255); err != nil {
		return err
	}
	if s.Specular, err = readColor(r, inv255); err != nil {
		return err
	}
	if s.Emissive, err = readColor(r, inv255); err != nil {
		return err
	}

	power, err := r.ReadU8()
	if err != nil {
		return err
	}
	s.Power = float32(power)

	if s.TextureStageIndex, err = r.ReadU8(); err != nil {
		return err
	}

	raw, err := r.ReadFixed(textureNameSize)
	if err != nil {
		return err
	}
	if raw[0] == 0 {
		s.Texture = NoTexture()
		s.Current = NoTexture()
		return nil
	}

	s.TextureName = binread.DecodeName(raw)
	if res == nil {
		return fmt.Errorf("texture %q: no resolver: %w", s.TextureName, ErrUnresolvedTexture)
	}
	h, err := res.Resolve(s.TextureName, mode)
	if err != nil {
		return fmt.Errorf("texture %q: %w: %w", s.TextureName, ErrUnresolvedTexture, err)
	}
	s.Texture = BoundTexture(h)
	return nil
}

func decodeAnimation(r *binread.Reader, a *Animation) error {
	packed, err := r.ReadU16()
	if err != nil {
		return err
	}
	a.Target = ChannelMask(packed >> 3)
	a.Loop = LoopMode(packed & 7)

	keyCount, err := r.ReadU16()
	if err != nil {
		return err
	}
	if need := int(keyCount) * 6; r.Remaining() < need {
		return fmt.Errorf("%d keys need %d bytes, have %d: %w", keyCount, need, r.Remaining(), ErrFormat)
	}

	a.Keys = make([]AnimationKey, keyCount)
	for k := range a.Keys {
		key := &a.Keys[k]
		if key.StageIndex, err = r.ReadU16(); err != nil {
			return err
		}
		if key.DurationMs, err = r.ReadU16(); err != nil {
			return err
		}
		if key.Extra, err = r.ReadU16(); err != nil {
			return err
		}
	}
	return nil
}
