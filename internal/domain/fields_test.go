package domain

import "testing"

func TestFieldsEquivalentTo(t *testing.T) {
	t.Parallel()

	base := Fields{FieldName: "Clínica São Paulo", "city": "São Paulo"}

	tests := []struct {
		name  string
		other Fields
		want  bool
	}{
		{name: "identical", other: Fields{FieldName: "Clínica São Paulo", "city": "São Paulo"}, want: true},
		{name: "whitespace only difference", other: Fields{FieldName: "  Clínica   São Paulo ", "city": "São Paulo"}, want: true},
		{name: "changed value", other: Fields{FieldName: "Clínica Santos", "city": "São Paulo"}, want: false},
		{name: "missing key", other: Fields{FieldName: "Clínica São Paulo"}, want: false},
		{name: "extra key", other: Fields{FieldName: "Clínica São Paulo", "city": "São Paulo", "phone": "1"}, want: false},
		{name: "extra empty key is cosmetic", other: Fields{FieldName: "Clínica São Paulo", "city": "São Paulo", "phone": "  "}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := base.EquivalentTo(tt.other); got != tt.want {
				t.Errorf("EquivalentTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFieldsClone(t *testing.T) {
	t.Parallel()

	orig := Fields{FieldName: "João Silva"}
	clone := orig.Clone()
	clone[FieldName] = "changed"

	if orig[FieldName] != "João Silva" {
		t.Errorf("Clone mutated the original: %q", orig[FieldName])
	}
	if Fields(nil).Clone() != nil {
		t.Error("Clone(nil) should be nil")
	}
}
