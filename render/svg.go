package render

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// SVG draws frames as SVG documents.
type SVG struct{}

func (SVG) Format() string {
	return "svg"
}

func (SVG) Snapshot(w io.Writer, f Frame) error {
	p := compose(f)
	width, height := px(p.Width), px(p.Height)

	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:"+p.Background.Hex())

	for _, l := range p.Lines {
		canvas.Line(px(l.X1), px(l.Y1), px(l.X2), px(l.Y2),
			fmt.Sprintf("stroke:%s;stroke-opacity:%g;stroke-width:1", l.Color.Clamped().Hex(), l.Opacity))
	}

	for _, m := range p.Marks {
		style := "fill:" + m.Color.Clamped().Hex()
		xs, ys := m.outline()
		if len(xs) == 0 {
			canvas.Circle(px(m.X), px(m.Y), max(px(m.Radius), 1), style)
			continue
		}
		canvas.Polygon(pxs(xs), pxs(ys), style)
	}

	for _, l := range p.Labels {
		canvas.Text(px(l.X), px(l.Y), l.Text,
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;text-anchor:middle;dominant-baseline:middle", l.Color.Hex()))
	}

	canvas.End()
	if ew.err != nil {
		return errors.New("writing svg snapshot failed").
			WithType(ErrTypeSnapshot).
			Wrap(ew.err)
	}
	return nil
}

// errWriter keeps the first write error and drops the writes that follow.
type errWriter struct {
	w   io.Writer
	err error
}

func (w *errWriter) Write(b []byte) (int, error) {
	if w.err != nil {
		return len(b), nil
	}

	n, err := w.w.Write(b)
	if err != nil {
		w.err = err
	}
	return n, err
}

func px(v float64) int {
	return int(math.Round(v))
}

func pxs(v []float64) []int {
	res := make([]int, len(v))
	for i, f := range v {
		res[i] = px(f)
	}
	return res
}
