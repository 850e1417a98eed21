package ini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		in     string
		want   bool
		wantOK bool
	}{
		{"True", true, true},
		{"false", false, true},
		{" yes ", true, true},
		{"OFF", false, true},
		{"1", true, true},
		{"0", false, true},
		{"-3", true, true},
		{"maybe", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		got, ok := ParseBool(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseNumbers(t *testing.T) {
	n, ok := ParseInt(" 42 ", 32)
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	_, ok = ParseInt("4000000000", 32)
	assert.False(t, ok, "overflows 32 bits")

	_, ok = ParseInt("1.5", 64)
	assert.False(t, ok)

	f, ok := ParseFloat("0.25f", 32)
	assert.True(t, ok)
	assert.Equal(t, 0.25, f)

	_, ok = ParseFloat("abc", 64)
	assert.False(t, ok)

	assert.Equal(t, "0.1", FormatFloat(0.1, 64))
	assert.Equal(t, "True", FormatBool(true))
	assert.Equal(t, "False", FormatBool(false))
}
