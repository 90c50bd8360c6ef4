package promo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApplyPercentage(t *testing.T) {
	c := &Code{Code: "WELCOME10", Type: TypePercentage, Value: money("10"), Active: true}

	got, err := Apply(c, money("20.000"))
	require.NoError(t, err)
	assert.True(t, got.Equal(money("2.000")), "got %s", got)
}

func TestApplyFixed(t *testing.T) {
	c := &Code{Code: "FIVEKWD", Type: TypeFixed, Value: money("5"), Active: true}

	got, err := Apply(c, money("20.000"))
	require.NoError(t, err)
	assert.True(t, got.Equal(money("5.000")), "got %s", got)
}

func TestApplyFixedCappedAtSubtotal(t *testing.T) {
	c := &Code{Code: "BIGOFF", Type: TypeFixed, Value: money("50"), Active: true}

	got, err := Apply(c, money("12.500"))
	require.NoError(t, err)
	assert.True(t, got.Equal(money("12.500")), "discount must not exceed subtotal, got %s", got)
}

func TestApplyInactiveCode(t *testing.T) {
	c := &Code{Code: "OLD", Type: TypePercentage, Value: money("10"), Active: false}

	_, err := Apply(c, money("20.000"))
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestApplyMinSubtotal(t *testing.T) {
	c := &Code{
		Code: "FREESHIP", Type: TypeFixed, Value: money("2"),
		MinSubtotal: money("10"), Active: true,
	}

	_, err := Apply(c, money("9.999"))
	assert.ErrorIs(t, err, ErrInvalidCode)

	got, err := Apply(c, money("10.000"))
	require.NoError(t, err)
	assert.True(t, got.Equal(money("2.000")))
}

func TestApplyRoundsToThreePlaces(t *testing.T) {
	c := &Code{Code: "ODD", Type: TypePercentage, Value: money("33"), Active: true}

	got, err := Apply(c, money("10.000"))
	require.NoError(t, err)
	assert.True(t, got.Equal(money("3.300")), "got %s", got)

	got, err = Apply(c, money("0.010"))
	require.NoError(t, err)
	assert.Equal(t, int32(-3), got.Exponent(), "got %s", got)
}

func TestApplyUnknownType(t *testing.T) {
	c := &Code{Code: "WAT", Type: Type("bogus"), Value: money("1"), Active: true}

	_, err := Apply(c, money("20.000"))
	assert.Error(t, err)
}
