package calculator

import (
	"math"

	"MarketPulse/internal/model"
)

// Momentum tiers the percent change by sign and magnitude.
func Momentum(changePercent float64) model.Momentum {
	m := model.Momentum{IntensityPercent: math.Abs(changePercent)}
	switch {
	case changePercent > 2:
		m.Label, m.TrendBias, m.Advice = "Strong Up", model.TrendBullish, "Favorable entry window"
	case changePercent > 0.5:
		m.Label, m.TrendBias, m.Advice = "Moderate Up", model.TrendSlightlyBullish, "Await confirmation"
	case changePercent < -2:
		m.Label, m.TrendBias, m.Advice = "Strong Down", model.TrendBearish, "Caution or exit"
	case changePercent < -0.5:
		m.Label, m.TrendBias, m.Advice = "Moderate Down", model.TrendSlightlyBearish, "Watch support"
	default:
		m.Label, m.TrendBias, m.Advice = "Flat", model.TrendNeutral, "No clear direction"
	}
	return m
}
