package material

// Blend returns a snapshot of src1 with the channel groups selected by mask
// interpolated toward src2. t is not clamped; values outside [0,1]
// extrapolate.
func Blend(src1, src2 *Stage, t float32, mask ChannelMask) Stage {
	dst := *src1
	BlendInto(&dst, src1, src2, t, mask)
	return dst
}

// BlendInto writes the blended colour state into dst. Only the RGB of the
// four colour groups, ambient alpha and power are written. Power is always
// taken from src1.
func BlendInto(dst, src1, src2 *Stage, t float32, mask ChannelMask) {
	dst.Diffuse = blendRGB(dst.Diffuse, src1.Diffuse, src2.Diffuse, t, mask&ChannelDiffuse != 0)
	dst.Ambient = blendRGB(dst.Ambient, src1.Ambient, src2.Ambient, t, mask&ChannelAmbient != 0)
	dst.Specular = blendRGB(dst.Specular, src1.Specular, src2.Specular, t, mask&ChannelSpecular != 0)
	dst.Emissive = blendRGB(dst.Emissive, src1.Emissive, src2.Emissive, t, mask&ChannelEmissive != 0)

	if mask&ChannelAlphaPower != 0 {
		dst.Ambient.A = lerp(src1.Ambient.A, src2.Ambient.A, t)
	} else {
		dst.Ambient.A = src1.Ambient.A
	}
	dst.Power = src1.Power
}

// blendRGB keeps dst's alpha and replaces its RGB.
func blendRGB(dst, a, b Color, t float32, on bool) Color {
	if !on {
		dst.R, dst.G, dst.B = a.R, a.G, a.B
		return dst
	}
	dst.R = lerp(a.R, b.R, t)
	dst.G = lerp(a.G, b.G, t)
	dst.B = lerp(a.B, b.B, t)
	return dst
}

func lerp(a, b, t float32) float32 {
	return (b-a)*t + a
}
