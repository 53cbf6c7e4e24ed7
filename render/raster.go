package render

import (
	"image"
	"image/png"
	"io"

	"git.sr.ht/~sbinet/gg"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"golang.org/x/image/font/basicfont"
)

const ErrTypeSnapshot = "render_snapshot"

// Raster draws frames as PNG images.
type Raster struct{}

func (Raster) Format() string {
	return "png"
}

// Draw returns the image of a frame.
func (Raster) Draw(f Frame) image.Image {
	p := compose(f)

	dc := gg.NewContext(int(p.Width), int(p.Height))
	dc.SetColor(p.Background)
	dc.Clear()

	dc.SetLineWidth(1)
	for _, l := range p.Lines {
		dc.SetRGBA(l.Color.R, l.Color.G, l.Color.B, l.Opacity)
		dc.DrawLine(l.X1, l.Y1, l.X2, l.Y2)
		dc.Stroke()
	}

	for _, m := range p.Marks {
		dc.SetColor(m.Color.Clamped())
		xs, ys := m.outline()
		if len(xs) == 0 {
			dc.DrawCircle(m.X, m.Y, m.Radius)
			dc.Fill()
			continue
		}

		dc.NewSubPath()
		dc.MoveTo(xs[0], ys[0])
		for i := 1; i < len(xs); i++ {
			dc.LineTo(xs[i], ys[i])
		}
		dc.ClosePath()
		dc.Fill()
	}

	dc.SetFontFace(basicfont.Face7x13)
	for _, l := range p.Labels {
		dc.SetColor(l.Color)
		dc.DrawStringAnchored(l.Text, l.X, l.Y, 0.5, 0.5)
	}
	return dc.Image()
}

func (r Raster) Snapshot(w io.Writer, f Frame) error {
	if err := png.Encode(w, r.Draw(f)); err != nil {
		return errors.New("encoding png snapshot failed").
			WithType(ErrTypeSnapshot).
			Wrap(err)
	}
	return nil
}
