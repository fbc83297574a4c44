// Package market holds the process-lifetime berry pricing state. Prices and
// the hot/not species modifiers are randomized once at startup from an
// explicit seed and owned by an explicitly constructed object, not ambient
// globals.
package market

import (
	"math/rand"
	"sync"
)

const (
	basePrice   = 30.0
	spread      = 0.4 // multipliers land in [1-spread/2, 1+spread/2]
	hotModifier = 1.5
	notModifier = 0.5
)

// Prices is read-mostly shared state; a lock guards it because fiber
// handlers read it concurrently.
type Prices struct {
	mu          sync.RWMutex
	multipliers map[string]float64
	hot         string
	not         string
}

// NewPrices rolls a multiplier per species plus one "hot" and one "not"
// species. The same seed reproduces the same market.
func NewPrices(species []string, seed int64) *Prices {
	rng := rand.New(rand.NewSource(seed))

	p := &Prices{multipliers: make(map[string]float64, len(species))}
	for _, name := range species {
		p.multipliers[name] = 1 - spread/2 + rng.Float64()*spread
	}
	if len(species) > 0 {
		p.hot = species[rng.Intn(len(species))]
		p.not = species[rng.Intn(len(species))]
	}
	return p
}

// UnitPrice returns the current per-unit sale price for a species. Unknown
// species sell at the base price.
func (p *Prices) UnitPrice(species string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	price := basePrice
	if m, ok := p.multipliers[species]; ok {
		price *= m
	}
	switch species {
	case p.hot:
		price *= hotModifier
	case p.not:
		price *= notModifier
	}
	return price
}

// Snapshot returns every species' current unit price plus the modifier
// assignments, for the read-only market endpoint.
func (p *Prices) Snapshot() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()

	prices := make(map[string]float64, len(p.multipliers))
	for name := range p.multipliers {
		prices[name] = p.unitPriceLocked(name)
	}
	return map[string]any{
		"prices": prices,
		"hot":    p.hot,
		"not":    p.not,
	}
}

func (p *Prices) unitPriceLocked(species string) float64 {
	price := basePrice * p.multipliers[species]
	switch species {
	case p.hot:
		price *= hotModifier
	case p.not:
		price *= notModifier
	}
	return price
}
