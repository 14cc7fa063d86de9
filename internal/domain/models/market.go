package models

import (
	"fmt"
	"strings"
	"time"
)

// Market names a bettable proposition, e.g. "1X2:HOME", "OU2.5:OVER",
// "BTTS:YES", "HTFT:1/2", "CS:2-1". The prefix before the colon is the
// market group; outcomes within one group form a mutually exclusive
// partition whose probabilities must sum to 1.
type Market string

const (
	Market1X2Home Market = "1X2:HOME"
	Market1X2Draw Market = "1X2:DRAW"
	Market1X2Away Market = "1X2:AWAY"

	MarketBTTSYes Market = "BTTS:YES"
	MarketBTTSNo  Market = "BTTS:NO"
)

// OverMarket builds an over/under market name for a goal-line threshold.
func OverMarket(threshold float64) Market {
	return Market(fmt.Sprintf("OU%.1f:OVER", threshold))
}

// UnderMarket is the complement of OverMarket.
func UnderMarket(threshold float64) Market {
	return Market(fmt.Sprintf("OU%.1f:UNDER", threshold))
}

// HTFTMarket builds one of the nine half-time/full-time outcomes, where each
// stage is "1" (home leads/wins), "X" (level/draw) or "2" (away).
func HTFTMarket(halfTime, fullTime string) Market {
	return Market(fmt.Sprintf("HTFT:%s/%s", halfTime, fullTime))
}

// CorrectScoreMarket names an exact scoreline outcome.
func CorrectScoreMarket(home, away int) Market {
	return Market(fmt.Sprintf("CS:%d-%d", home, away))
}

// Group returns the market group prefix ("1X2", "OU2.5", "BTTS", "HTFT", "CS").
func (m Market) Group() string {
	if i := strings.IndexByte(string(m), ':'); i > 0 {
		return string(m)[:i]
	}
	return string(m)
}

// ScorelineMatrix is the dense joint probability table over (home goals,
// away goals) up to MaxGoals inclusive. After truncation-renormalization the
// total mass is 1 within tolerance.
type ScorelineMatrix struct {
	MaxGoals int
	P        [][]float64
}

// NewScorelineMatrix allocates a zeroed (maxGoals+1)x(maxGoals+1) table.
func NewScorelineMatrix(maxGoals int) *ScorelineMatrix {
	p := make([][]float64, maxGoals+1)
	for i := range p {
		p[i] = make([]float64, maxGoals+1)
	}
	return &ScorelineMatrix{MaxGoals: maxGoals, P: p}
}

// At returns the probability of the exact scoreline (home, away).
// Out-of-range scorelines have zero mass.
func (m *ScorelineMatrix) At(home, away int) float64 {
	if home < 0 || away < 0 || home > m.MaxGoals || away > m.MaxGoals {
		return 0
	}
	return m.P[home][away]
}

// Sum returns the total probability mass of the table.
func (m *ScorelineMatrix) Sum() float64 {
	var total float64
	for i := range m.P {
		for j := range m.P[i] {
			total += m.P[i][j]
		}
	}
	return total
}

// Prediction is the full model output for one fixture: expected goal rates,
// the scoreline matrix and all derived market probabilities. Immutable once
// produced; rendering is the presentation collaborator's concern.
type Prediction struct {
	FixtureID   string             `json:"fixtureId"`
	LeagueID    string             `json:"leagueId"`
	GeneratedAt time.Time          `json:"generatedAt"`
	LambdaHome  float64            `json:"lambdaHome"`
	LambdaAway  float64            `json:"lambdaAway"`
	Matrix      *ScorelineMatrix   `json:"-"`
	Markets     map[Market]float64 `json:"markets"`

	// HomeAdvantage is the calibration value baked into LambdaHome, and
	// LambdaHomeBase is the home goal rate before home advantage and rate
	// clamping were applied. The base is carried explicitly because dividing
	// the advantage back out of a clamped LambdaHome does not recover it.
	HomeAdvantage  float64 `json:"homeAdvantage"`
	LambdaHomeBase float64 `json:"lambdaHomeBase"`

	// Odds is the decimal-odds snapshot seen at generation time, if any.
	// Used later to fit market blend weights; empty when odds were missing.
	Odds map[Market]float64 `json:"odds,omitempty"`
}

// Probability returns the modeled probability for a market, or 0 if the
// market was not derived.
func (p *Prediction) Probability(m Market) float64 {
	return p.Markets[m]
}
