package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var species = []string{"cheri", "chesto", "pecha", "rawst", "aspear"}

func TestNewPricesDeterministicForSeed(t *testing.T) {
	a := NewPrices(species, 42)
	b := NewPrices(species, 42)

	for _, name := range species {
		assert.Equal(t, a.UnitPrice(name), b.UnitPrice(name))
	}
}

func TestUnitPriceBounds(t *testing.T) {
	p := NewPrices(species, 7)

	snap := p.Snapshot()
	prices, ok := snap["prices"].(map[string]float64)
	require.True(t, ok)
	require.Len(t, prices, len(species))

	// At most one of the hot/not modifiers applies to a species, so every
	// price falls inside the widest single-modifier band.
	lo := basePrice * (1 - spread/2) * notModifier
	hi := basePrice * (1 + spread/2) * hotModifier
	for name, price := range prices {
		assert.GreaterOrEqual(t, price, lo, name)
		assert.LessOrEqual(t, price, hi, name)
	}
}

func TestUnknownSpeciesSellsAtBase(t *testing.T) {
	p := NewPrices(species, 1)
	assert.Equal(t, basePrice, p.UnitPrice("enigma"))
}
