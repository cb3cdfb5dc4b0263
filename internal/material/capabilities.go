package material

// TextureMode is the load-mode mask handed to the texture resolver.
type TextureMode uint32

const (
	// TextureModeBumpFallback asks the loader to substitute a plain texture
	// for a bump-mapped one.
	TextureModeBumpFallback TextureMode = 0x80000
	// TextureModeSpecial marks the special texture class.
	TextureModeSpecial TextureMode = 0x200000
)

// Capability bits as stored in the archive item metadata.
const (
	capSpecialClass  = 1 << 0
	capBumpMapping   = 1 << 1
	capRenderShift   = 2
	capRenderMask    = 0xF
	capExtraMetadata = 1 << 6
)

// Rendering types carried in the 4-bit sub-field.
const (
	RenderStandard = 0
	RenderSpecial  = 1
	RenderParticle = 2
)

// Environment describes what the running renderer supports.
type Environment struct {
	BumpMapping  bool // bump mapping enabled by the user
	TextureMode6 bool // device supports the texture mode bump maps need
}

// Capabilities is the decoded form of an item's capability bitfield.
type Capabilities struct {
	SpecialTextureClass bool
	SupportsBumpMapping bool
	ExtraMetadata       bool
	RenderingType       uint8
	TextureMode         TextureMode // passed to the resolver for every stage
}

// DecodeCapabilities unpacks bits and derives the texture mode mask.
func DecodeCapabilities(bits uint16, env Environment) Capabilities {
	c := Capabilities{
		SpecialTextureClass: bits&capSpecialClass != 0,
		SupportsBumpMapping: bits&capBumpMapping != 0,
		ExtraMetadata:       bits&capExtraMetadata != 0,
		RenderingType:       uint8(bits>>capRenderShift) & capRenderMask,
	}
	if c.SpecialTextureClass {
		c.TextureMode |= TextureModeSpecial
	}
	if c.SupportsBumpMapping && (!env.BumpMapping || !env.TextureMode6) {
		c.TextureMode |= TextureModeBumpFallback
	}
	return c
}

// Bits packs c back into the archive representation. TextureMode is derived
// and not stored.
func (c Capabilities) Bits() uint16 {
	var bits uint16
	if c.SpecialTextureClass {
		bits |= capSpecialClass
	}
	if c.SupportsBumpMapping {
		bits |= capBumpMapping
	}
	if c.ExtraMetadata {
		bits |= capExtraMetadata
	}
	bits |= uint16(c.RenderingType&capRenderMask) << capRenderShift
	return bits
}
