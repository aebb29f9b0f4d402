package domain

// FieldName is the one well-known key inside a version payload. Everything
// else (addresses, phones, demographic data) is opaque to the engine.
const FieldName = "name"

// Fields is a version's business payload, stored as JSONB. The engine treats
// it as opaque except for FieldName.
type Fields map[string]string

// Clone returns an independent copy of the payload.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// EquivalentTo compares two payloads ignoring cosmetic whitespace differences,
// so that re-submitting an unchanged form does not grow the version history.
func (f Fields) EquivalentTo(other Fields) bool {
	keys := make(map[string]struct{}, len(f)+len(other))
	for k := range f {
		keys[k] = struct{}{}
	}
	for k := range other {
		keys[k] = struct{}{}
	}
	for k := range keys {
		if NormalizeFieldValue(f[k]) != NormalizeFieldValue(other[k]) {
			return false
		}
	}
	return true
}
