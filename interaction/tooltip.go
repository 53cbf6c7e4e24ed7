package interaction

import (
	"math"
	"strconv"
	"strings"

	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/store"
)

// TooltipOffset is the distance in pixels between the cursor and the
// tooltip.
const TooltipOffset = 15

// Tooltip is the annotation shown next to the hovered point.
type Tooltip struct {
	Visible bool         `json:"visible"`
	X       float64      `json:"x,omitempty"`
	Y       float64      `json:"y,omitempty"`
	Label   string       `json:"label,omitempty"`
	Rows    []TooltipRow `json:"rows,omitempty"`
}

type TooltipRow struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Annotate returns the tooltip of a point hovered at the given cursor
// position. The label comes first, the other fields are listed in order and
// skipped when the point does not have them.
func Annotate(p models.Point, fields []string, x, y float64) Tooltip {
	t := Tooltip{
		Visible: true,
		X:       x + TooltipOffset,
		Y:       y + TooltipOffset,
		Label:   p.Label,
	}

	for _, f := range fields {
		if f == "label" {
			continue
		}

		v, ok := p.Field(f)
		if !ok {
			continue
		}
		t.Rows = append(t.Rows, TooltipRow{Field: f, Value: FormatValue(v)})
	}
	return t
}

// FormatValue formats a field value for display. Numbers have three
// decimals.
func FormatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if f, ok := store.AsFloat(v); ok {
		return ToFixed(f, 3)
	}
	return models.FieldString(v)
}

// ToFixed formats v with the given number of decimals. Halfway values are
// rounded away from zero.
func ToFixed(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	neg := v < 0
	s := strconv.FormatFloat(math.Abs(v), 'f', decimals+25, 64)
	dot := strings.IndexByte(s, '.')

	digits := []byte(s[:dot] + s[dot+1:dot+1+decimals])
	if s[dot+1+decimals] >= '5' {
		digits = increment(digits)
	}

	intLen := len(digits) - decimals
	res := string(digits[:intLen])
	if decimals > 0 {
		res += "." + string(digits[intLen:])
	}
	if neg {
		res = "-" + res
	}
	return res
}

func increment(digits []byte) []byte {
	for i := len(digits) - 1; i >= 0; i-- {
		if digits[i] < '9' {
			digits[i]++
			return digits
		}
		digits[i] = '0'
	}
	return append([]byte{'1'}, digits...)
}
