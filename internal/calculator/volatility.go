package calculator

import (
	"math"

	"MarketPulse/internal/model"
)

// Volatility proxies ATR with the day's range as a share of price.
// Non-positive prices and zero-width ranges report 0% (Low).
func Volatility(high, low, price float64) model.Volatility {
	rng := math.Abs(high - low)
	if !isFinite(rng) {
		rng = 0
	}
	if price <= 0 || rng == 0 || !isFinite(price) {
		return model.Volatility{Range: rng, RangePercent: 0, Label: model.VolatilityLow}
	}

	pct := rng / price * 100
	if !isFinite(pct) {
		return model.Volatility{Range: rng, RangePercent: 0, Label: model.VolatilityLow}
	}
	label := model.VolatilityLow
	switch {
	case pct > 2:
		label = model.VolatilityHigh
	case pct > 1:
		label = model.VolatilityModerate
	}
	return model.Volatility{Range: rng, RangePercent: pct, Label: label}
}
