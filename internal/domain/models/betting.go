package models

import "time"

// ConfidenceTier buckets a value bet by (edge, model probability).
type ConfidenceTier string

const (
	TierLow    ConfidenceTier = "low"
	TierMedium ConfidenceTier = "medium"
	TierHigh   ConfidenceTier = "high"
)

// ValueBet marks a market where the modeled probability diverges favorably
// from the bookmaker's odds. Derived and immutable; recomputed per odds
// snapshot.
type ValueBet struct {
	FixtureID        string         `json:"fixtureId"`
	LeagueID         string         `json:"leagueId"`
	Market           Market         `json:"market"`
	ModelProbability float64        `json:"modelProbability"`
	MarketOdds       float64        `json:"marketOdds"`
	Edge             float64        `json:"edge"`
	Tier             ConfidenceTier `json:"tier"`
}

// RiskCategory selects the coupon builder's probability floor and target
// combined-odds range.
type RiskCategory string

const (
	RiskSafe       RiskCategory = "safe"
	RiskBalanced   RiskCategory = "balanced"
	RiskAggressive RiskCategory = "aggressive"
)

// Selection is one leg of a coupon.
type Selection struct {
	FixtureID   string  `json:"fixtureId"`
	Market      Market  `json:"market"`
	Probability float64 `json:"probability"`
	Odds        float64 `json:"odds"`
}

// Coupon is a combined ticket. At most one selection per fixture; combined
// probability is the product of the legs, assuming cross-fixture independence.
type Coupon struct {
	Selections          []Selection  `json:"selections"`
	CombinedOdds        float64      `json:"combinedOdds"`
	CombinedProbability float64      `json:"combinedProbability"`
	Stake               float64      `json:"stake"`
	Risk                RiskCategory `json:"risk"`
	CreatedAt           time.Time    `json:"createdAt"`
}

// FixtureFailure marks one fixture that could not be analyzed in a batch.
// Failures are isolated; they never abort the batch.
type FixtureFailure struct {
	FixtureID string `json:"fixtureId"`
	Reason    string `json:"reason"`
}

// BatchResult is the outcome of analyzing one day's fixtures.
type BatchResult struct {
	Date        time.Time        `json:"date"`
	Predictions []*Prediction    `json:"predictions"`
	ValueBets   []ValueBet       `json:"valueBets"`
	Failures    []FixtureFailure `json:"failures"`
}
