package field

// MatchesCode reports whether value, truncated to a 32-bit signed integer,
// equals any of codes. It lets a caller classify an already parsed integer as
// a user-defined boolean literal without scanning the field bytes again.
func MatchesCode[T Integer | Float](value T, codes []int32) bool {
	v := int32(value)
	for _, c := range codes {
		if c == v {
			return true
		}
	}
	return false
}
