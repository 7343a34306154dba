package model

// Bias is the trading lean implied by the relative-strength estimate.
type Bias string

const (
	BiasBuy     Bias = "buy"
	BiasSell    Bias = "sell"
	BiasNeutral Bias = "neutral"
)

// RelativeStrength is a single-snapshot RSI approximation.
type RelativeStrength struct {
	Value int    `json:"value"`
	Label string `json:"label"`
	Bias  Bias   `json:"bias"`
}

const (
	LabelOverbought = "Overbought"
	LabelOversold   = "Oversold"
	LabelNeutral    = "Neutral"
)

// Volatility approximates ATR from one day's range.
type Volatility struct {
	Range        float64 `json:"range"`
	RangePercent float64 `json:"range_percent"`
	Label        string  `json:"label"`
}

const (
	VolatilityHigh     = "High"
	VolatilityModerate = "Moderate"
	VolatilityLow      = "Low"
)

// PivotLevels holds classic floor-trader levels at full precision.
type PivotLevels struct {
	Pivot       float64 `json:"pivot"`
	Resistance1 float64 `json:"resistance1"`
	Resistance2 float64 `json:"resistance2"`
	Support1    float64 `json:"support1"`
	Support2    float64 `json:"support2"`
}

// Zone is where the price sits inside the day's range.
type Zone string

const (
	ZoneTop    Zone = "Top"
	ZoneMiddle Zone = "Middle"
	ZoneBottom Zone = "Bottom"
)

// RangePosition places the price in the day's range, 0 at the low and 100 at the high.
type RangePosition struct {
	Percent float64 `json:"percent"`
	Zone    Zone    `json:"zone"`
	Note    string  `json:"note"`
}

// Direction is the sign of the day's change.
type Direction string

const (
	DirectionUp   Direction = "Up"
	DirectionDown Direction = "Down"
	DirectionFlat Direction = "Flat"
)

// MovementForce grades the move by magnitude and relative volume.
type MovementForce struct {
	Strength       string    `json:"strength"`
	Confidence     string    `json:"confidence"`
	RelativeVolume float64   `json:"relative_volume"`
	Direction      Direction `json:"direction"`
}

const (
	StrengthVeryStrong = "Very Strong"
	StrengthStrong     = "Strong"
	StrengthModerate   = "Moderate"
	StrengthWeak       = "Weak"

	ConfidenceHigh     = "High"
	ConfidenceGood     = "Good"
	ConfidenceModerate = "Moderate"
	ConfidenceLow      = "Low"
)

// TrendBias is the momentum reading of the day's change.
type TrendBias string

const (
	TrendBullish         TrendBias = "Bullish"
	TrendSlightlyBullish TrendBias = "Slightly Bullish"
	TrendNeutral         TrendBias = "Neutral"
	TrendSlightlyBearish TrendBias = "Slightly Bearish"
	TrendBearish         TrendBias = "Bearish"
)

// Momentum is derived from the change alone, volume plays no part.
type Momentum struct {
	Label            string    `json:"label"`
	TrendBias        TrendBias `json:"trend_bias"`
	Advice           string    `json:"advice"`
	IntensityPercent float64   `json:"intensity_percent"`
}

// Classification is the discrete reading of the composite score.
type Classification string

const (
	StrongBuy  Classification = "Strong Buy"
	Buy        Classification = "Buy"
	Neutral    Classification = "Neutral"
	Sell       Classification = "Sell"
	StrongSell Classification = "Strong Sell"
)

// Tone maps a classification to positive, negative or neutral for colour coding.
func (c Classification) Tone() string {
	switch c {
	case StrongBuy, Buy:
		return "positive"
	case Sell, StrongSell:
		return "negative"
	default:
		return "neutral"
	}
}

// FactorScore is one contribution to the composite score.
type FactorScore struct {
	Name       string `json:"name"`
	Points     int    `json:"points"`
	Commentary string `json:"commentary"`
}

// AnalysisResult is the engine output. A fresh value is built for every quote.
type AnalysisResult struct {
	RelativeStrength RelativeStrength `json:"relative_strength"`
	Volatility       Volatility       `json:"volatility"`
	Pivots           PivotLevels      `json:"pivots"`
	RangePosition    RangePosition    `json:"range_position"`
	Force            MovementForce    `json:"force"`
	Momentum         Momentum         `json:"momentum"`
	Score            int              `json:"score"`
	Classification   Classification   `json:"classification"`
	Factors          []FactorScore    `json:"factors"`
	Summary          string           `json:"summary"`
}
