package dedupe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases",
			input: "Acme Corp Raised",
			want:  "acme corp raised",
		},
		{
			name:  "collapses whitespace runs",
			input: "acme\t\tcorp \n raised",
			want:  "acme corp raised",
		},
		{
			name:  "trims ends",
			input: "  acme corp  ",
			want:  "acme corp",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only",
			input: " \n\t ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestHash_Deterministic(t *testing.T) {
	first := Hash("Acme Corp raised a $5M seed round.")
	second := Hash("Acme Corp raised a $5M seed round.")
	assert.Equal(t, first, second)
}

func TestHash_CaseAndWhitespaceInsensitive(t *testing.T) {
	assert.Equal(t, Hash(" A  b"), Hash("a b"))
	assert.Equal(t, Hash("ACME\tCorp"), Hash("acme corp"))
}

func TestHash_DistinctTextDiffers(t *testing.T) {
	assert.NotEqual(t, Hash("acme corp"), Hash("acme corporation"))
}

func TestHash_Format(t *testing.T) {
	digest := Hash("some memo text")
	assert.Len(t, digest, 64)
	assert.Equal(t, strings.ToLower(digest), digest)
}
