package common

// Coalesce returns the first value in values that is not the zero value of T,
// or T's zero value when every candidate is zero (or values is empty). Used
// to merge optional settings with their defaults, e.g. falling back to the
// raw capture dimensions when no final output size was requested.
//
// Parameters:
//   - values: candidate values in priority order
//
// Returns:
//   - T: the first non-zero candidate, or the zero value of T
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
