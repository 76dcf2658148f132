package chart

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/uhi-profile/internal/profile"
)

// axisColors assigns each axis an evenly spaced HCL hue so the two
// sub-directions of an axis share a color.
func axisColors(dirs []profile.Direction) map[string]color.Color {
	axes := profile.Axes(dirs)
	out := make(map[string]color.Color, len(axes))
	for i, a := range axes {
		hue := 360 * float64(i) / float64(max(len(axes), 1))
		out[a] = colorful.Hcl(hue+20, 0.7, 0.55).Clamped()
	}
	return out
}

// lstRamp maps t in [0,1] from cool blue to hot red through pale yellow,
// blending in HCL space so lightness changes evenly.
func lstRamp(t float64) color.Color {
	cold, _ := colorful.Hex("#2c7bb6")
	mid, _ := colorful.Hex("#ffffbf")
	hot, _ := colorful.Hex("#d7191c")
	switch {
	case t <= 0:
		return cold
	case t >= 1:
		return hot
	case t < 0.5:
		return cold.BlendHcl(mid, t*2).Clamped()
	default:
		return mid.BlendHcl(hot, (t-0.5)*2).Clamped()
	}
}

// hexColor renders c as "#rrggbb" for HTML charts.
func hexColor(c color.Color) string {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return "#000000"
	}
	return cf.Hex()
}
