package strategy

import (
	"MarketPulse/internal/calculator"
	"MarketPulse/internal/model"
)

// Tiers maps a minimum score to its classification, highest first.
var Tiers = []struct {
	MinScore       int
	Classification model.Classification
}{
	{70, model.StrongBuy},
	{55, model.Buy},
	{45, model.Neutral},
	{30, model.Sell},
}

// DefaultClassification applies to scores below every tier.
const DefaultClassification = model.StrongSell

// Classify maps a composite score to a classification.
func Classify(score int) model.Classification {
	for _, t := range Tiers {
		if score >= t.MinScore {
			return t.Classification
		}
	}
	return DefaultClassification
}

// Analyze runs the indicator bank, the composite scorer and the summary over a
// quote. It returns nil when the quote is missing or its change is not a number.
// Analyze holds no state and is safe for concurrent use.
func Analyze(q *model.Quote) *model.AnalysisResult {
	if !q.HasChange() {
		return nil
	}

	rs := calculator.RelativeStrength(q.ChangePercent)
	rp := calculator.RangePosition(q.Price, q.DayHigh, q.DayLow)

	factors := []model.FactorScore{
		scoreRelativeStrength(rs),
		scoreChange(q.ChangePercent),
		scoreRangePosition(rp),
	}
	score := compositeScore(factors)

	res := &model.AnalysisResult{
		RelativeStrength: rs,
		Volatility:       calculator.Volatility(q.DayHigh, q.DayLow, q.Price),
		Pivots:           calculator.PivotLevels(q.DayHigh, q.DayLow, q.Price),
		RangePosition:    rp,
		Force:            calculator.MovementForce(q.ChangePercent, q.Volume, q.AverageVolume),
		Momentum:         calculator.Momentum(q.ChangePercent),
		Score:            score,
		Classification:   Classify(score),
		Factors:          factors,
	}
	res.Summary = Summarize(res)
	return res
}
