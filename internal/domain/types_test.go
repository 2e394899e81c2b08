package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSide(t *testing.T) {
	side, err := ParseSide("buy")
	require.NoError(t, err)
	assert.Equal(t, SideBuy, side)

	side, err = ParseSide(" SELL ")
	require.NoError(t, err)
	assert.Equal(t, SideSell, side)

	_, err = ParseSide("hold")
	assert.ErrorIs(t, err, ErrInvalidSide)
}

func TestSide_Opposite(t *testing.T) {
	assert.Equal(t, SideSell, SideBuy.Opposite())
	assert.Equal(t, SideBuy, SideSell.Opposite())
}

func TestOrder_Validate(t *testing.T) {
	ok := Order{OrderID: "1", Side: SideBuy, Price: 100, Quantity: 10}
	assert.NoError(t, ok.Validate())

	badSide := Order{OrderID: "2", Side: "HOLD", Price: 100, Quantity: 10}
	assert.ErrorIs(t, badSide.Validate(), ErrInvalidSide)

	zeroQty := Order{OrderID: "3", Side: SideSell, Price: 100}
	assert.ErrorIs(t, zeroQty.Validate(), ErrInvalidQuantity)

	negQty := Order{OrderID: "4", Side: SideSell, Price: 100, Quantity: -5}
	assert.ErrorIs(t, negQty.Validate(), ErrInvalidQuantity)

	// Negative prices are legal ticks.
	negPrice := Order{OrderID: "5", Side: SideSell, Price: -3, Quantity: 1}
	assert.NoError(t, negPrice.Validate())
}
