package scenes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "Relax", expected: "relax"},
		{input: "Soirée", expected: "soiree"},
		{input: "SOIRÉE", expected: "soiree"},
		{input: "Crème", expected: "creme"}, // decomposed input
		{input: "Über Gemütlich", expected: "uber gemutlich"},
		{input: "Ça va", expected: "ca va"},
		{input: "Nuit étoilée 2", expected: "nuit etoilee 2"},
		{input: "", expected: ""},
		{input: "日本", expected: "日本"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Relax", "Soirée Détente", "ÀÉÎÕÜ", "İstanbul", "Ǆemal", "ﬁre", "Crème", "   spaced  ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
