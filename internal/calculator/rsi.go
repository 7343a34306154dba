package calculator

import (
	"math"

	"MarketPulse/internal/model"
)

const (
	overboughtLevel = 70
	oversoldLevel   = 30
)

// RelativeStrength estimates an RSI from a single percent change, treating it
// as a one-shot gain or loss. It is a directional proxy for the 14-period RSI,
// not the textbook indicator.
func RelativeStrength(changePercent float64) model.RelativeStrength {
	gain := math.Max(changePercent, 0)
	loss := math.Abs(math.Min(changePercent, 0))

	var rs float64
	switch {
	case loss == 0 && gain == 0:
		rs = 0
	case loss == 0:
		rs = 100
	default:
		rs = gain / loss
	}
	rsi := 100.0 - 100.0/(1.0+rs)

	out := model.RelativeStrength{Value: int(math.Round(rsi))}
	switch {
	case rsi > overboughtLevel:
		out.Label, out.Bias = model.LabelOverbought, model.BiasSell
	case rsi < oversoldLevel:
		out.Label, out.Bias = model.LabelOversold, model.BiasBuy
	default:
		out.Label, out.Bias = model.LabelNeutral, model.BiasNeutral
	}
	return out
}
