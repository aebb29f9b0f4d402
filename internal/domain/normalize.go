package domain

import "strings"

// NormalizeNaturalKey strips every non-digit rune from a natural key, so that
// formatted input like "111.444.777-35" and "11144477735" identify the same
// record.
func NormalizeNaturalKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeFieldValue prepares a payload value for comparison:
//   - trims leading/trailing whitespace
//   - compresses internal runs of spaces into one
//
// Case and diacritics are preserved; the stored value is never rewritten.
func NormalizeFieldValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(value))
	prevSpace := false
	for _, r := range value {
		if r == ' ' {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
