// Package feed turns exchange websocket streams into TopOfBookEvent
// records: field extraction, fixed-point numeric conversion, and a mock
// generator for offline runs.
package feed

// pow10 for the supported decimal-place range.
var pow10 = [...]int64{1, 10, 100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000, 100_000_000}

// MaxDecimals bounds the per-feed price/quantity scale factors.
const MaxDecimals = uint(len(pow10) - 1)

// ParseFixed converts a decimal string into a scaled integer with dp
// decimal places: ParseFixed("123.45", 2) = 12345. Extra fractional
// digits are truncated. No floating point, no allocation.
func ParseFixed(s string, dp uint) (int64, bool) {
	if dp > MaxDecimals || len(s) == 0 {
		return 0, false
	}

	b := s
	neg := false
	if b[0] == '-' {
		neg = true
		b = b[1:]
	}
	if len(b) == 0 {
		return 0, false
	}

	var intPart int64
	i := 0
	for ; i < len(b) && b[i] != '.'; i++ {
		d := b[i]
		if d < '0' || d > '9' {
			return 0, false
		}
		intPart = intPart*10 + int64(d-'0')
	}
	if i == 0 {
		// "." with no leading digit
		return 0, false
	}

	var frac int64
	fracDigits := uint(0)
	if i < len(b) {
		i++ // skip '.'
		if i == len(b) {
			return 0, false
		}
		for ; i < len(b); i++ {
			d := b[i]
			if d < '0' || d > '9' {
				return 0, false
			}
			if fracDigits < dp {
				frac = frac*10 + int64(d-'0')
				fracDigits++
			}
		}
	}
	for ; fracDigits < dp; fracDigits++ {
		frac *= 10
	}

	v := intPart*pow10[dp] + frac
	if neg {
		v = -v
	}
	return v, true
}
