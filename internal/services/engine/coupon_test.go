package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
)

func candidate(fixtureID string, market models.Market, prob, odds float64) models.ValueBet {
	return models.ValueBet{
		FixtureID:        fixtureID,
		LeagueID:         "TR1",
		Market:           market,
		ModelProbability: prob,
		MarketOdds:       odds,
		Edge:             prob*odds - 1,
	}
}

func TestBuildSafeCoupon(t *testing.T) {
	b := NewBuilder()
	candidates := []models.ValueBet{
		candidate("fx-1", models.Market1X2Home, 0.70, 1.5),
		candidate("fx-2", models.UnderMarket(3.5), 0.75, 1.4),
	}

	coupon, err := b.Build(candidates, models.RiskSafe, 100, 4)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if coupon.CombinedOdds < 1.5 || coupon.CombinedOdds > 3 {
		t.Fatalf("combined odds %v outside safe window", coupon.CombinedOdds)
	}
	wantProb := 0.70 * 0.75
	if math.Abs(coupon.CombinedProbability-wantProb) > 1e-9 {
		t.Fatalf("combined probability = %v, want %v", coupon.CombinedProbability, wantProb)
	}
}

func TestBuildOneSelectionPerFixture(t *testing.T) {
	b := NewBuilder()
	candidates := []models.ValueBet{
		candidate("fx-1", models.Market1X2Home, 0.70, 1.6),
		candidate("fx-1", models.OverMarket(1.5), 0.80, 1.3),
		candidate("fx-2", models.MarketBTTSNo, 0.68, 1.5),
	}

	coupon, err := b.Build(candidates, models.RiskSafe, 50, 4)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	seen := make(map[string]int)
	for _, sel := range coupon.Selections {
		seen[sel.FixtureID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Fatalf("fixture %s picked %d times", id, n)
		}
	}
}

func TestBuildRespectsMaxSelections(t *testing.T) {
	b := NewBuilder()
	candidates := []models.ValueBet{
		candidate("fx-1", models.Market1X2Home, 0.70, 1.4),
		candidate("fx-2", models.Market1X2Home, 0.70, 1.4),
		candidate("fx-3", models.Market1X2Home, 0.70, 1.4),
	}

	coupon, err := b.Build(candidates, models.RiskSafe, 10, 2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(coupon.Selections) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(coupon.Selections))
	}
}

func TestBuildNoValidCoupon(t *testing.T) {
	b := NewBuilder()

	if _, err := b.Build(nil, models.RiskSafe, 10, 4); !errors.Is(err, ErrNoValidCoupon) {
		t.Fatalf("expected ErrNoValidCoupon, got %v", err)
	}

	// Probabilities below the safe floor leave nothing eligible.
	longshots := []models.ValueBet{candidate("fx-1", models.Market1X2Away, 0.30, 4.0)}
	if _, err := b.Build(longshots, models.RiskSafe, 10, 4); !errors.Is(err, ErrNoValidCoupon) {
		t.Fatalf("expected ErrNoValidCoupon, got %v", err)
	}

	// A single short-priced leg cannot reach the aggressive window.
	short := []models.ValueBet{candidate("fx-1", models.Market1X2Home, 0.70, 1.4)}
	if _, err := b.Build(short, models.RiskAggressive, 10, 4); !errors.Is(err, ErrNoValidCoupon) {
		t.Fatalf("expected ErrNoValidCoupon, got %v", err)
	}
}

func TestBuildInvalidInput(t *testing.T) {
	b := NewBuilder()
	candidates := []models.ValueBet{candidate("fx-1", models.Market1X2Home, 0.70, 1.5)}

	if _, err := b.Build(candidates, models.RiskCategory("reckless"), 10, 4); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := b.Build(candidates, models.RiskSafe, 0, 4); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBuildDeterministic(t *testing.T) {
	b := NewBuilder()
	candidates := []models.ValueBet{
		candidate("fx-2", models.Market1X2Home, 0.70, 1.5),
		candidate("fx-1", models.Market1X2Home, 0.70, 1.5),
	}

	first, err := b.Build(candidates, models.RiskSafe, 10, 4)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	second, err := b.Build(candidates, models.RiskSafe, 10, 4)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(first.Selections) != len(second.Selections) {
		t.Fatalf("selection counts differ")
	}
	for i := range first.Selections {
		if first.Selections[i] != second.Selections[i] {
			t.Fatalf("selection order differs at %d", i)
		}
	}
	if first.Selections[0].FixtureID != "fx-1" {
		t.Fatalf("equal-probability ties must break on fixture ID, got %s", first.Selections[0].FixtureID)
	}
}
