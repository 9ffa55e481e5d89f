package numutil

import "strconv"

// IntWithCommas returns a string representation of an integer with commas.
//
// Example:
//
//	12345 -> "12,345"
func IntWithCommas[T ~int | ~int64](i T) string {
	if i < 0 {
		return "-" + IntWithCommas(-i)
	}
	if i < 1000 {
		return strconv.FormatInt(int64(i), 10)
	}
	return IntWithCommas(i/1000) + "," + leftPad3(int64(i%1000))
}

func leftPad3(i int64) string {
	s := strconv.FormatInt(i, 10)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}
