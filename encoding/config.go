// Package encoding maps point attributes to colors, sizes and shapes.
package encoding

import (
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/store"
)

// Domain is the [Min, Max] range of a numeric field.
type Domain struct {
	Min float64
	Max float64
}

// Fraction returns the position of v within the domain. A degenerate domain
// returns 0.5.
func (d Domain) Fraction(v float64) float64 {
	if d.Max == d.Min {
		return 0.5
	}
	return (v - d.Min) / (d.Max - d.Min)
}

// Config is the visual encoding configuration of a point set.
type Config struct {
	// The field mapped to a color. Numeric values go through the color
	// scale, other values are assigned a categorical color.
	ColorField string

	// The name of the color scale.
	ColorScale string

	// The domain of the color field. Computed by Prepare when nil.
	ColorDomain *Domain

	// The field mapped to a size.
	SizeField string

	// The [min, max] size of a point.
	SizeRange [2]float64

	// The domain of the size field. Computed by Prepare when nil.
	SizeDomain *Domain

	// The field mapped to a shape.
	ShapeField string

	// Explicit shape names by field value.
	ShapeMap map[string]string
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		ColorScale: DefaultScale,
		SizeRange:  [2]float64{0.02, 0.1},
		ShapeMap:   map[string]string{},
	}
}

// ConfigFromStore reads the encoding configuration from store values.
func ConfigFromStore(g store.Getter) Config {
	c := Config{
		ColorField: store.String(g, store.KeyColorField),
		ColorScale: store.String(g, store.KeyColorScale),
		SizeField:  store.String(g, store.KeySizeField),
		SizeRange:  store.Range(g, store.KeySizeRange),
		ShapeField: store.String(g, store.KeyShapeField),
		ShapeMap:   store.StringMap(g, store.KeyShapeMap),
	}

	if r, ok := store.OptionalRange(g, store.KeyColorDomain); ok {
		c.ColorDomain = &Domain{Min: r[0], Max: r[1]}
	}
	return c
}

// Prepare returns a copy of the configuration where the missing domains of
// the configured fields are computed from the given points. It is called
// once per render pass.
func (c Config) Prepare(points []models.Point) Config {
	if c.ColorField != "" && c.ColorDomain == nil {
		if d, ok := ComputeDomain(points, c.ColorField); ok {
			c.ColorDomain = &d
		}
	}

	if c.SizeField != "" && c.SizeDomain == nil {
		if d, ok := ComputeDomain(points, c.SizeField); ok {
			c.SizeDomain = &d
		}
	}
	return c
}

// ComputeDomain returns the [min, max] range of the numeric values of a
// field. The second value is false when no point has a numeric value.
func ComputeDomain(points []models.Point, field string) (Domain, bool) {
	var d Domain
	var found bool

	for _, p := range points {
		v, ok := p.Field(field)
		if !ok {
			continue
		}

		f, ok := store.AsFloat(v)
		if !ok {
			continue
		}

		if !found {
			d = Domain{Min: f, Max: f}
			found = true
			continue
		}
		if f < d.Min {
			d.Min = f
		}
		if f > d.Max {
			d.Max = f
		}
	}
	return d, found
}
