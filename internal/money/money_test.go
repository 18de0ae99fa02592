package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Run("whole dollars", func(t *testing.T) {
		c, err := Parse("100.00")
		assert.NoError(t, err)
		assert.Equal(t, Cents(10000), c)
	})

	t.Run("no fraction digits", func(t *testing.T) {
		c, err := Parse("50")
		assert.NoError(t, err)
		assert.Equal(t, Cents(5000), c)
	})

	t.Run("rounds sub-cent input to nearest cent", func(t *testing.T) {
		c, err := Parse("10.005")
		assert.NoError(t, err)
		assert.Equal(t, Cents(1001), c)

		c, err = Parse("10.004")
		assert.NoError(t, err)
		assert.Equal(t, Cents(1000), c)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		_, err := Parse("-1.00")
		assert.ErrorIs(t, err, ErrAmountOutOfRange)
	})

	t.Run("validation ceiling", func(t *testing.T) {
		c, err := Parse("100000.00")
		assert.NoError(t, err)
		assert.Equal(t, MaxItemCents, c)

		_, err = Parse("100000.01")
		assert.ErrorIs(t, err, ErrAmountOutOfRange)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, input := range []string{"", "abc", "12,50", "$5.00"} {
			_, err := Parse(input)
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", input)
		}
	})
}

func TestCentsString(t *testing.T) {
	assert.Equal(t, "50.00", Cents(5000).String())
	assert.Equal(t, "-50.00", Cents(-5000).String())
	assert.Equal(t, "0.01", Cents(1).String())
	assert.Equal(t, "0.00", Cents(0).String())
	assert.Equal(t, "100000.00", MaxItemCents.String())
}

func TestCentsAbs(t *testing.T) {
	assert.Equal(t, Cents(5000), Cents(-5000).Abs())
	assert.Equal(t, Cents(5000), Cents(5000).Abs())
}
