package encoding

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Scale is a continuous color scale defined by evenly spaced control points.
type Scale []colorful.Color

// DefaultScale is the name of the scale used when the configured one is
// unknown.
const DefaultScale = "viridis"

var scales = map[string]Scale{
	"viridis": {
		{R: 0.267, G: 0.004, B: 0.329}, {R: 0.282, G: 0.140, B: 0.458}, {R: 0.253, G: 0.265, B: 0.530},
		{R: 0.206, G: 0.371, B: 0.553}, {R: 0.163, G: 0.471, B: 0.558}, {R: 0.127, G: 0.566, B: 0.551},
		{R: 0.134, G: 0.658, B: 0.518}, {R: 0.267, G: 0.749, B: 0.441}, {R: 0.478, G: 0.821, B: 0.318},
		{R: 0.741, G: 0.873, B: 0.150}, {R: 0.993, G: 0.906, B: 0.144},
	},
	"plasma": {
		{R: 0.050, G: 0.030, B: 0.528}, {R: 0.254, G: 0.014, B: 0.615}, {R: 0.417, G: 0.001, B: 0.658},
		{R: 0.578, G: 0.015, B: 0.643}, {R: 0.716, G: 0.135, B: 0.538}, {R: 0.826, G: 0.268, B: 0.407},
		{R: 0.906, G: 0.411, B: 0.271}, {R: 0.959, G: 0.567, B: 0.137}, {R: 0.981, G: 0.733, B: 0.106},
		{R: 0.964, G: 0.903, B: 0.259}, {R: 0.940, G: 0.975, B: 0.131},
	},
	"inferno": {
		{R: 0.001, G: 0.000, B: 0.014}, {R: 0.046, G: 0.031, B: 0.186}, {R: 0.140, G: 0.046, B: 0.357},
		{R: 0.258, G: 0.039, B: 0.406}, {R: 0.366, G: 0.071, B: 0.432}, {R: 0.478, G: 0.107, B: 0.429},
		{R: 0.591, G: 0.148, B: 0.404}, {R: 0.706, G: 0.206, B: 0.347}, {R: 0.815, G: 0.290, B: 0.259},
		{R: 0.905, G: 0.411, B: 0.145}, {R: 0.969, G: 0.565, B: 0.026},
	},
	"magma": {
		{R: 0.001, G: 0.000, B: 0.014}, {R: 0.035, G: 0.028, B: 0.144}, {R: 0.114, G: 0.049, B: 0.315},
		{R: 0.206, G: 0.053, B: 0.431}, {R: 0.306, G: 0.064, B: 0.505}, {R: 0.413, G: 0.086, B: 0.531},
		{R: 0.529, G: 0.113, B: 0.527}, {R: 0.654, G: 0.158, B: 0.501}, {R: 0.776, G: 0.232, B: 0.459},
		{R: 0.878, G: 0.338, B: 0.418}, {R: 0.953, G: 0.468, B: 0.392},
	},
	"cividis": {
		{R: 0.000, G: 0.135, B: 0.304}, {R: 0.000, G: 0.179, B: 0.345}, {R: 0.117, G: 0.222, B: 0.360},
		{R: 0.214, G: 0.263, B: 0.365}, {R: 0.293, G: 0.304, B: 0.370}, {R: 0.366, G: 0.345, B: 0.375},
		{R: 0.437, G: 0.387, B: 0.382}, {R: 0.509, G: 0.429, B: 0.393}, {R: 0.582, G: 0.473, B: 0.409},
		{R: 0.659, G: 0.520, B: 0.431}, {R: 0.739, G: 0.570, B: 0.461},
	},
	"turbo": {
		{R: 0.190, G: 0.072, B: 0.232}, {R: 0.254, G: 0.265, B: 0.530}, {R: 0.163, G: 0.471, B: 0.558},
		{R: 0.134, G: 0.658, B: 0.518}, {R: 0.478, G: 0.821, B: 0.318}, {R: 0.741, G: 0.873, B: 0.150},
		{R: 0.993, G: 0.906, B: 0.144}, {R: 0.988, G: 0.652, B: 0.198}, {R: 0.925, G: 0.394, B: 0.235},
		{R: 0.796, G: 0.177, B: 0.214}, {R: 0.480, G: 0.016, B: 0.110},
	},
}

// Palette is the categorical color palette.
var Palette = []colorful.Color{
	hex("#6366f1"), hex("#f59e0b"), hex("#10b981"), hex("#ef4444"), hex("#8b5cf6"),
	hex("#06b6d4"), hex("#f97316"), hex("#84cc16"), hex("#ec4899"), hex("#14b8a6"),
}

// DefaultColor is the color of points without color encoding.
var DefaultColor = hex("#6366f1")

// ScaleNames returns the names of the known color scales.
func ScaleNames() []string {
	return []string{"viridis", "plasma", "inferno", "magma", "cividis", "turbo"}
}

// LookupScale returns the scale with the given name, viridis when unknown.
func LookupScale(name string) Scale {
	if s, ok := scales[name]; ok {
		return s
	}
	return scales[DefaultScale]
}

// At returns the color at t. t is clamped to [0, 1] and interpolated
// linearly between the two surrounding control points.
func (s Scale) At(t float64) colorful.Color {
	if len(s) == 0 {
		return DefaultColor
	}

	t = math.Max(0, math.Min(1, t))
	idx := t * float64(len(s)-1)
	i := int(math.Floor(idx))
	if i >= len(s)-1 {
		return s[len(s)-1]
	}
	return s[i].BlendRgb(s[i+1], idx-float64(i))
}

// Categorical returns the palette color assigned to a value.
func Categorical(value string) colorful.Color {
	return Palette[hashIndex(value, len(Palette))]
}

func hex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}
