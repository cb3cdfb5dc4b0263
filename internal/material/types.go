package material

import (
	"strconv"
	"strings"
)

// MaxAnimations is the largest animation count a descriptor may declare.
const MaxAnimations = 19

// Color holds four normalized channels.
type Color struct {
	R, G, B, A float32
}

// TextureHandle identifies a texture issued by a TextureResolver.
type TextureHandle uint32

type slotState uint8

const (
	slotUnset slotState = iota
	slotNone
	slotBound
)

// TextureSlot is an optional texture handle. The zero value is unset,
// which is distinct from an explicit "no texture".
type TextureSlot struct {
	state  slotState
	handle TextureHandle
}

// NoTexture returns a slot that explicitly holds no texture.
func NoTexture() TextureSlot { return TextureSlot{state: slotNone} }

// BoundTexture returns a slot holding h.
func BoundTexture(h TextureHandle) TextureSlot {
	return TextureSlot{state: slotBound, handle: h}
}

// Handle returns the bound handle and whether one is bound.
func (s TextureSlot) Handle() (TextureHandle, bool) {
	return s.handle, s.state == slotBound
}

// IsNone reports whether the slot explicitly holds no texture.
func (s TextureSlot) IsNone() bool { return s.state == slotNone }

// IsUnset reports whether the slot was never assigned.
func (s TextureSlot) IsUnset() bool { return s.state == slotUnset }

// Stage is one shading layer of a material.
type Stage struct {
	Ambient  Color
	Diffuse  Color
	Specular Color
	Emissive Color
	Power    float32 // raw byte value, not normalized

	TextureStageIndex uint8 // stored verbatim from the record
	TextureName       string
	Texture           TextureSlot
	Current           TextureSlot // mutated by texture animation playback
}

// BindCurrent sets the texture shown while the stage is animating.
// Stages without a texture keep their "none" current slot.
func (s *Stage) BindCurrent(slot TextureSlot) {
	if s.Texture.IsNone() {
		return
	}
	s.Current = slot
}

// ChannelMask selects the channel groups Blend interpolates.
type ChannelMask uint16

const (
	ChannelDiffuse    ChannelMask = 1 << 0
	ChannelAmbient    ChannelMask = 1 << 1
	ChannelSpecular   ChannelMask = 1 << 2
	ChannelEmissive   ChannelMask = 1 << 3
	ChannelAlphaPower ChannelMask = 1 << 4 // ambient alpha; power is never blended

	ChannelAll = ChannelDiffuse | ChannelAmbient | ChannelSpecular | ChannelEmissive | ChannelAlphaPower
)

// Has reports whether every bit in c is set in m.
func (m ChannelMask) Has(c ChannelMask) bool { return m&c == c }

func (m ChannelMask) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	if m.Has(ChannelAmbient) {
		parts = append(parts, "ambient")
	}
	if m.Has(ChannelDiffuse) {
		parts = append(parts, "diffuse")
	}
	if m.Has(ChannelSpecular) {
		parts = append(parts, "specular")
	}
	if m.Has(ChannelEmissive) {
		parts = append(parts, "emissive")
	}
	if m.Has(ChannelAlphaPower) {
		parts = append(parts, "ambient-alpha")
	}
	if m&^ChannelAll != 0 {
		parts = append(parts, "other")
	}
	return strings.Join(parts, "+")
}

// LoopMode controls how an animation continues past its last key.
type LoopMode uint8

const (
	LoopRepeat   LoopMode = 0
	LoopPingPong LoopMode = 1
	LoopClamp    LoopMode = 2
	LoopRandom   LoopMode = 3
)

func (l LoopMode) String() string {
	switch l {
	case LoopRepeat:
		return "repeat"
	case LoopPingPong:
		return "ping-pong"
	case LoopClamp:
		return "clamp"
	case LoopRandom:
		return "random"
	}
	return "mode" + strconv.Itoa(int(l))
}

// AnimationKey is one keyframe. Extra has no known meaning and is kept as read.
type AnimationKey struct {
	StageIndex uint16
	DurationMs uint16
	Extra      uint16
}

// Animation drives the channels in Target through Keys, in file order.
type Animation struct {
	Target ChannelMask
	Loop   LoopMode
	Keys   []AnimationKey
}

// BlendMode is a framebuffer blend factor (D3DBLEND numbering).
type BlendMode uint8

const (
	BlendZero         BlendMode = 1
	BlendOne          BlendMode = 2
	BlendSrcColor     BlendMode = 3
	BlendInvSrcColor  BlendMode = 4
	BlendSrcAlpha     BlendMode = 5
	BlendInvSrcAlpha  BlendMode = 6
	BlendDestAlpha    BlendMode = 7
	BlendInvDestAlpha BlendMode = 8
	BlendDestColor    BlendMode = 9
	BlendInvDestColor BlendMode = 10
	BlendSrcAlphaSat  BlendMode = 11
	BlendUnknown      BlendMode = 0xFF
)

// Extras holds the version-dependent scalar fields of a descriptor.
type Extras struct {
	SourceBlend       BlendMode
	DestBlend         BlendMode
	AlphaMultiplier   float32
	EmissiveIntensity float32
}

// DefaultExtras returns the values used when the format version predates a field.
func DefaultExtras() Extras {
	return Extras{
		SourceBlend:       BlendUnknown,
		DestBlend:         BlendUnknown,
		AlphaMultiplier:   1.0,
		EmissiveIntensity: 0.0,
	}
}

// Metadata is the per-item information the archive keeps beside a payload.
type Metadata struct {
	FormatVersion  uint8
	CapabilityBits uint16
}

// Descriptor is one loaded material.
type Descriptor struct {
	Name         string
	IndexInFile  int
	RefCount     int
	StageCount   int
	AnimCount    int
	Version      uint8
	Extras       Extras
	Capabilities Capabilities
	Stages       []Stage
	Animations   []Animation
}

// Validate checks every animation key's stage index against the stage count.
func (d *Descriptor) Validate() error {
	for i, a := range d.Animations {
		for k, key := range a.Keys {
			if int(key.StageIndex) >= len(d.Stages) {
				return &StageIndexError{Animation: i, Key: k, Stage: int(key.StageIndex), Stages: len(d.Stages)}
			}
		}
	}
	return nil
}
