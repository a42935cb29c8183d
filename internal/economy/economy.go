// Package economy implements the price-elastic demand model: per-item
// demand parameters sampled on first sighting, a Markov weather state, and
// the daily per-slot sales computation (spec.md §4.4).
//
// Demand-model internals are float64, not decimal.Decimal: these are
// continuous model parameters (elasticities, multiplicative factors,
// Gaussian noise), not ledger entries, so binary-float arithmetic is the
// right tool — only the resulting cash collected is converted back to
// decimal.Decimal at the boundary with worldstate.
package economy

import (
	"math"
	"math/rand"

	"github.com/shopspring/decimal"

	"vendsim/internal/worldstate"
)

// priceFloorEpsilon is the minimum value of the (1+pctDiff) base (the ratio
// price/referencePrice) used when computing the price factor, clamping the
// base away from <= 0 before it is
// raised to a negative elasticity exponent. This resolves spec.md §9's
// first Open Question: the reference source computes the power unclamped
// and is undefined for pctDiff <= -1.
const priceFloorEpsilon = 0.01

// demandParams caches the per-item demand triple sampled the first time an
// item is seen (spec.md §4.4).
type demandParams struct {
	elasticity      float64
	referencePrice  float64
	baseSales       float64
}

// Economy computes daily sales from machine state. It owns its own RNG
// stream, independent from the simulator's episode RNG (spec.md §5).
type Economy struct {
	rng          *rand.Rand
	params       map[string]demandParams
	weatherState int // 0..2, initialized to 1
}

// New returns an Economy seeded from its own RNG stream.
func New(rng *rand.Rand) *Economy {
	return &Economy{
		rng:          rng,
		params:       make(map[string]demandParams),
		weatherState: 1,
	}
}

func (e *Economy) paramsFor(itemID string, wholesalePrice float64) demandParams {
	if p, ok := e.params[itemID]; ok {
		return p
	}
	p := demandParams{
		elasticity:     -lognormal(e.rng, 0.8, 0.3),
		referencePrice: wholesalePrice * (1.0 + uniform(e.rng, 0.2, 0.8)),
		baseSales:      math.Max(0.5, lognormal(e.rng, 1.0, 0.5)),
	}
	e.params[itemID] = p
	return p
}

func priceFactor(price float64, p demandParams) float64 {
	if p.referencePrice <= 0 {
		return 1.0
	}
	pctDiff := (price - p.referencePrice) / p.referencePrice
	base := 1.0 + pctDiff
	if base < priceFloorEpsilon {
		base = priceFloorEpsilon
	}
	return math.Pow(base, p.elasticity)
}

func dayOfWeekFactor(day int) float64 {
	dow := day % 7
	if dow >= 5 {
		return 1.2
	}
	return 1.0
}

func seasonFactor(day int) float64 {
	month := (day / 30) % 12
	if month >= 5 && month <= 7 {
		return 1.1
	}
	return 1.0
}

// weatherFactor advances the weather Markov state and returns its factor.
// This is the one weather draw per day, called exactly once per
// ComputeDailySales invocation (spec.md §4.4, §5 RNG ordering).
func (e *Economy) weatherFactor() float64 {
	r := e.rng.Float64()
	switch {
	case r < 0.1:
		if e.weatherState > 0 {
			e.weatherState--
		}
	case r > 0.9:
		if e.weatherState < 2 {
			e.weatherState++
		}
	}
	return 0.85 + 0.15*float64(e.weatherState)
}

func varietyFactor(distinct int) float64 {
	switch {
	case distinct <= 0:
		return 0.5
	case distinct <= 4:
		return (80 + 5*float64(distinct)) / 100
	case distinct <= 8:
		return 1.0
	default:
		return math.Max(0.5, 1.0-0.05*float64(distinct-8))
	}
}

// DailySales is the result of one day's demand computation.
type DailySales struct {
	UnitsSold    map[string]int
	Revenue      map[string]float64
	CashCollected decimal.Decimal
}

// ComputeDailySales runs the full per-day demand model over every
// non-empty slot, in slot (creation) order. RNG draws happen in the
// mandated order: weather, then per-slot noise over slots in slot order
// (spec.md §4.4, §5); the first time an item is seen, its demand parameters
// are drawn just before that slot's noise.
func (e *Economy) ComputeDailySales(state *worldstate.State, day int) DailySales {
	distinct := make(map[string]struct{})
	for _, slot := range state.Slots {
		if slot.ItemID != "" && slot.Quantity > 0 {
			distinct[slot.ItemID] = struct{}{}
		}
	}
	variety := varietyFactor(len(distinct))
	weather := e.weatherFactor()
	fDow := dayOfWeekFactor(day)
	fSeason := seasonFactor(day)

	sales := make(map[string]int)
	revenue := make(map[string]float64)
	totalCash := 0.0

	for _, slot := range state.Slots {
		if slot.ItemID == "" || slot.Quantity <= 0 {
			continue
		}
		info, ok := state.Catalog[slot.ItemID]
		if !ok {
			continue
		}
		price, _ := state.Prices[slot.ItemID]
		priceF, _ := price.Float64()
		wholesaleF, _ := info.WholesalePrice.Float64()

		p := e.paramsFor(slot.ItemID, wholesaleF)
		fPrice := priceFactor(priceF, p)

		raw := p.baseSales * fPrice * fDow * fSeason * weather * variety
		noise := e.rng.NormFloat64() * 0.15 * raw
		demand := math.Max(0, raw+noise)
		sold := minInt(slot.Quantity, int(math.Round(demand)))
		if sold <= 0 {
			continue
		}
		sales[slot.ItemID] += sold
		rev := float64(sold) * priceF
		revenue[slot.ItemID] += rev
		totalCash += rev
	}

	return DailySales{
		UnitsSold:     sales,
		Revenue:       revenue,
		CashCollected: decimal.NewFromFloat(totalCash),
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// lognormal draws from a lognormal distribution with underlying normal
// parameters mu, sigma.
func lognormal(rng *rand.Rand, mu, sigma float64) float64 {
	return math.Exp(rng.NormFloat64()*sigma + mu)
}

// uniform draws from the uniform distribution on [lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
