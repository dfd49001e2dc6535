package domain

import "testing"

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  grey goose  ", want: "grey goose"},
		{name: "lowercase", input: "Grey Goose", want: "grey goose"},
		{name: "compress multiple spaces", input: "grey   goose", want: "grey goose"},
		{name: "diacritics stripped", input: "Moët", want: "moet"},
		{name: "hyphens preserved", input: "Johnnie-Walker", want: "johnnie-walker"},
		{name: "apostrophes preserved", input: "Maker's Mark", want: "maker's mark"},
		{name: "empty string", input: "", want: ""},
		{name: "only spaces", input: "   ", want: ""},
		{name: "tabs and spaces", input: "\t patron \t", want: "patron"},
		{name: "unicode diacritics", input: "Pátron Añejo", want: "patron anejo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeText(tt.input); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
