package calculator

import "MarketPulse/internal/model"

// PivotLevels computes classic floor-trader pivots from high, low and close.
// Inputs that are not finite, or that overflow, yield all-zero levels.
func PivotLevels(high, low, close float64) model.PivotLevels {
	p := (high + low + close) / 3
	levels := model.PivotLevels{
		Pivot:       p,
		Resistance1: 2*p - low,
		Resistance2: p + (high - low),
		Support1:    2*p - high,
		Support2:    p - (high - low),
	}
	for _, v := range []float64{levels.Pivot, levels.Resistance1, levels.Resistance2, levels.Support1, levels.Support2} {
		if !isFinite(v) {
			return model.PivotLevels{}
		}
	}
	return levels
}
