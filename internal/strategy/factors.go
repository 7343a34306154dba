package strategy

import (
	"fmt"
	"math"

	"MarketPulse/internal/model"
)

const baseScore = 50

// scoreRelativeStrength adds 20 points for a buy bias and removes 20 for a sell bias.
func scoreRelativeStrength(rs model.RelativeStrength) model.FactorScore {
	var points int
	switch rs.Bias {
	case model.BiasBuy:
		points = 20
	case model.BiasSell:
		points = -20
	}
	return model.FactorScore{
		Name:       "Relative strength",
		Points:     points,
		Commentary: fmt.Sprintf("RSI~%d %s", rs.Value, rs.Label),
	}
}

// scoreChange rewards or penalises the size of the day's move, up to 20 points.
func scoreChange(changePercent float64) model.FactorScore {
	var points int
	switch {
	case changePercent > 2:
		points = 20
	case changePercent > 0.5:
		points = 10
	case changePercent < -2:
		points = -20
	case changePercent < -0.5:
		points = -10
	}
	return model.FactorScore{
		Name:       "Daily change",
		Points:     points,
		Commentary: fmt.Sprintf("%+.2f%%", changePercent),
	}
}

// scoreRangePosition favours the bottom of the range and penalises the top.
// The position is scored at the one-decimal precision it is reported with,
// so 29.96% reads as 30.0% and earns nothing.
func scoreRangePosition(rp model.RangePosition) model.FactorScore {
	pct := math.Round(rp.Percent*10) / 10
	var points int
	switch {
	case pct < 30:
		points = 10
	case pct > 70:
		points = -10
	}
	return model.FactorScore{
		Name:       "Range position",
		Points:     points,
		Commentary: fmt.Sprintf("%.1f%% of range", pct),
	}
}

// compositeScore sums the factors on top of the neutral base and clamps to 0..100.
func compositeScore(factors []model.FactorScore) int {
	score := baseScore
	for _, f := range factors {
		score += f.Points
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
