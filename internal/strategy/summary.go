package strategy

import (
	"fmt"
	"strings"

	"MarketPulse/internal/model"
)

// Summarize renders the one-line recommendation for an analysis.
func Summarize(r *model.AnalysisResult) string {
	return fmt.Sprintf("Score: %d/100 (%s). %s. Relative-strength at %d indicates %s. Price is %s — %s.",
		r.Score, r.Classification,
		r.Momentum.Advice,
		r.RelativeStrength.Value, strings.ToLower(r.RelativeStrength.Label),
		strings.ToLower(string(r.RangePosition.Zone)), r.RangePosition.Note,
	)
}
