package vm

import "strconv"

// Value is either a float64 or a string; no other runtime type exists.
// A plain Go string already shares its backing storage across copies
// immutably, so there's no need for a reference-counted wrapper the
// way a language without that guarantee would require.
type Value = any

// Truthy reports whether v is truthy: numeric truthy iff non-zero,
// string truthy iff non-empty.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case float64:
		return val != 0.0
	case string:
		return val != ""
	default:
		return false
	}
}

// DisplayForm renders v the way PRINT and string-coercing ADD do:
// numbers in their shortest round-trip decimal form, strings verbatim.
func DisplayForm(v Value) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return val
	default:
		return ""
	}
}
