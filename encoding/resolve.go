package encoding

import (
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/store"
	"github.com/lucasb-eyer/go-colorful"
)

// Resolved is the visual encoding of a point.
type Resolved struct {
	Color colorful.Color
	Size  float64
	Shape Shape
}

// Resolve returns the color, size and shape of a point.
func (c Config) Resolve(p models.Point) Resolved {
	return Resolved{
		Color: c.Color(p),
		Size:  c.Size(p),
		Shape: c.Shape(p),
	}
}

// Color returns the color of a point. An explicit color wins over the color
// field.
func (c Config) Color(p models.Point) colorful.Color {
	if color, ok := ParseColor(p.Record["color"]); ok {
		return color
	}

	if c.ColorField == "" {
		return DefaultColor
	}

	v, ok := p.Field(c.ColorField)
	if !ok {
		return DefaultColor
	}

	if f, ok := store.AsFloat(v); ok {
		d := Domain{Min: 0, Max: 1}
		if c.ColorDomain != nil {
			d = *c.ColorDomain
		}
		return LookupScale(c.ColorScale).At(d.Fraction(f))
	}
	return Categorical(models.FieldString(v))
}

// Size returns the size of a point. An explicit size wins over the size
// field.
func (c Config) Size(p models.Point) float64 {
	if p.Size != nil {
		return *p.Size
	}

	lo, hi := c.SizeRange[0], c.SizeRange[1]
	if c.SizeField != "" && c.SizeDomain != nil {
		if v, ok := p.Field(c.SizeField); ok {
			if f, ok := store.AsFloat(v); ok {
				return lo + c.SizeDomain.Fraction(f)*(hi-lo)
			}
		}
	}
	return (lo + hi) * 0.5
}

// Shape returns the shape of a point. An explicit known shape wins over the
// shape field.
func (c Config) Shape(p models.Point) Shape {
	if s, ok := ParseShape(p.Shape); ok {
		return s
	}

	if c.ShapeField == "" {
		return Sphere
	}

	v, ok := p.Field(c.ShapeField)
	if !ok {
		return Sphere
	}

	value := models.FieldString(v)
	if name, ok := c.ShapeMap[value]; ok {
		if s, ok := ParseShape(name); ok {
			return s
		}
	}

	shapes := Shapes()
	return shapes[hashIndex(value, len(shapes))]
}

// ParseColor parses an explicit color: a "#rgb" or "#rrggbb" string or a
// 0xrrggbb number. Empty strings and zero are not colors.
func ParseColor(v any) (colorful.Color, bool) {
	if s, ok := v.(string); ok {
		if s == "" {
			return colorful.Color{}, false
		}
		c, err := colorful.Hex(s)
		if err != nil {
			return colorful.Color{}, false
		}
		return c, true
	}

	f, ok := store.AsFloat(v)
	if !ok || f <= 0 || f > 0xffffff {
		return colorful.Color{}, false
	}

	n := int(f)
	return colorful.Color{
		R: float64(n>>16&0xff) / 255,
		G: float64(n>>8&0xff) / 255,
		B: float64(n&0xff) / 255,
	}, true
}

// HexNumber returns the 0xrrggbb value of a color.
func HexNumber(c colorful.Color) uint32 {
	r, g, b := c.Clamped().RGB255()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}
