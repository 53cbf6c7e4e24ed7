package encoding

import "unicode/utf16"

// Hash returns the non negative string hash used for categorical
// assignments. It accumulates hash*31 + c over the UTF-16 code units of s
// with 32-bit wraparound, so that a value is always assigned the same color
// or shape whatever produced the point set.
func Hash(s string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}

	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

func hashIndex(s string, n int) int {
	return int(Hash(s) % int64(n))
}
