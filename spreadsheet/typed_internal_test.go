package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTyped(t *testing.T) {
	c := typed(" 45366 ")
	assert.True(t, c.Numeric)
	assert.Equal(t, float64(45366), c.Number)

	c = typed("160h30min")
	assert.False(t, c.Numeric)
	assert.Equal(t, "160h30min", c.Text)
}

func TestTyped_NonFiniteStaysText(t *testing.T) {
	for _, raw := range []string{"Inf", "+Inf", "-inf", "infinity", "NaN"} {
		c := typed(raw)
		assert.False(t, c.Numeric, raw)
		assert.Equal(t, raw, c.Text, raw)
	}
}
