package calculator

import (
	"math"

	"MarketPulse/internal/model"
)

// MovementForce grades the day's move. averageVolume is an optional baseline;
// when it is not positive the volume factor is neutral (1).
func MovementForce(changePercent, volume, averageVolume float64) model.MovementForce {
	absChange := math.Abs(changePercent)

	volumeFactor := 1.0
	if averageVolume > 0 && isFinite(volume) {
		volumeFactor = volume / averageVolume
	}
	if !isFinite(volumeFactor) {
		volumeFactor = 1
	}

	f := model.MovementForce{RelativeVolume: volumeFactor, Direction: direction(changePercent)}
	switch {
	case absChange > 2 && volumeFactor > 1.2:
		f.Strength, f.Confidence = model.StrengthVeryStrong, model.ConfidenceHigh
	case absChange > 1 && volumeFactor > 1:
		f.Strength, f.Confidence = model.StrengthStrong, model.ConfidenceGood
	case absChange > 0.5:
		f.Strength, f.Confidence = model.StrengthModerate, model.ConfidenceModerate
	default:
		f.Strength, f.Confidence = model.StrengthWeak, model.ConfidenceLow
	}
	return f
}

func direction(changePercent float64) model.Direction {
	switch {
	case changePercent > 0:
		return model.DirectionUp
	case changePercent < 0:
		return model.DirectionDown
	default:
		return model.DirectionFlat
	}
}
