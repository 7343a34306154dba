package news

import (
	"strings"

	"MarketPulse/internal/model"
)

var (
	positiveWords = []string{
		"alta", "crescimento", "lucro", "recorde", "positivo", "valoriza", "sobe", "dividendos",
		"rally", "gain", "profit", "record", "surge",
	}
	negativeWords = []string{
		"queda", "crise", "prejuízo", "negativo", "desvaloriza", "cai", "risco",
		"loss", "crisis", "plunge", "risk",
	}
)

// Impact tags text as positive or negative when only one side's keywords
// appear, and neutral otherwise.
func Impact(text string) model.Impact {
	lower := strings.ToLower(text)
	pos := containsAny(lower, positiveWords)
	neg := containsAny(lower, negativeWords)
	switch {
	case pos && !neg:
		return model.ImpactPositive
	case neg && !pos:
		return model.ImpactNegative
	default:
		return model.ImpactNeutral
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
