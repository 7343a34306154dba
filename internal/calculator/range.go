package calculator

import (
	"math"

	"MarketPulse/internal/model"
)

// RangePosition returns where price sits within [low, high] as a percentage.
// A zero-width range reports 50%. The result is clamped to 0..100.
func RangePosition(price, high, low float64) model.RangePosition {
	pos := 50.0
	width := high - low
	if width != 0 && isFinite(width) && isFinite(price) {
		pos = (price - low) / width * 100
		if !isFinite(pos) {
			pos = 50
		}
		if pos < 0 {
			pos = 0
		}
		if pos > 100 {
			pos = 100
		}
	}

	switch {
	case pos > 70:
		return model.RangePosition{Percent: pos, Zone: model.ZoneTop, Note: "near resistance, consider profit-taking"}
	case pos < 30:
		return model.RangePosition{Percent: pos, Zone: model.ZoneBottom, Note: "near support, potential entry"}
	default:
		return model.RangePosition{Percent: pos, Zone: model.ZoneMiddle, Note: "neutral zone, await confirmation"}
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
