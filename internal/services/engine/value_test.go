package engine

import (
	"math"
	"testing"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
)

func valuePrediction() *models.Prediction {
	return &models.Prediction{
		FixtureID: "fx-1",
		LeagueID:  "TR1",
		Markets: map[models.Market]float64{
			models.Market1X2Home: 0.60,
			models.Market1X2Draw: 0.25,
			models.Market1X2Away: 0.15,
		},
	}
}

func TestFindFlagsPositiveEdge(t *testing.T) {
	f := NewFinder(ValueParams{}, nil)
	odds := map[models.Market]float64{models.Market1X2Home: 2.0}

	bets := f.Find(valuePrediction(), odds)
	if len(bets) != 1 {
		t.Fatalf("expected 1 bet, got %d", len(bets))
	}
	if math.Abs(bets[0].Edge-0.2) > 1e-9 {
		t.Fatalf("edge = %v, want 0.2", bets[0].Edge)
	}
	if bets[0].Tier != models.TierHigh {
		t.Fatalf("tier = %v, want high", bets[0].Tier)
	}
}

func TestFindSkipsNegativeEdge(t *testing.T) {
	f := NewFinder(ValueParams{}, nil)
	odds := map[models.Market]float64{models.Market1X2Home: 1.5} // fair would be 1.67

	if bets := f.Find(valuePrediction(), odds); len(bets) != 0 {
		t.Fatalf("expected no bets, got %v", bets)
	}
}

func TestFindRejectsMalformedOdds(t *testing.T) {
	f := NewFinder(ValueParams{}, nil)
	odds := map[models.Market]float64{
		models.Market1X2Home: 1.0, // no payout, malformed
		models.Market1X2Away: 0.8,
	}
	if bets := f.Find(valuePrediction(), odds); len(bets) != 0 {
		t.Fatalf("expected no bets, got %v", bets)
	}
}

func TestFindBlendTowardMarket(t *testing.T) {
	// With blend weight 0 the probability collapses to the fair implied one,
	// and no edge can survive a booked market.
	marketOnly := func(string, string) float64 { return 0 }
	f := NewFinder(ValueParams{}, marketOnly)

	odds := map[models.Market]float64{
		models.Market1X2Home: 2.0,
		models.Market1X2Draw: 3.4,
		models.Market1X2Away: 4.5,
	}
	if bets := f.Find(valuePrediction(), odds); len(bets) != 0 {
		t.Fatalf("fully market-blended probabilities cannot have edge, got %v", bets)
	}
}

func TestFindSortedByEdge(t *testing.T) {
	f := NewFinder(ValueParams{MinProbability: 0.01}, nil)
	pred := valuePrediction()
	odds := map[models.Market]float64{
		models.Market1X2Home: 1.8, // edge 0.08
		models.Market1X2Draw: 5.0, // edge 0.25
	}

	bets := f.Find(pred, odds)
	if len(bets) != 2 {
		t.Fatalf("expected 2 bets, got %d", len(bets))
	}
	if bets[0].Market != models.Market1X2Draw {
		t.Fatalf("expected best edge first, got %v", bets[0].Market)
	}
}

func TestFairProbabilitiesRemoveVig(t *testing.T) {
	odds := map[models.Market]float64{
		models.MarketBTTSYes: 1.9,
		models.MarketBTTSNo:  1.9,
	}
	fair := fairProbabilities(odds)
	if math.Abs(fair[models.MarketBTTSYes]-0.5) > 1e-9 {
		t.Fatalf("fair yes = %v, want 0.5", fair[models.MarketBTTSYes])
	}
	if math.Abs(fair[models.MarketBTTSYes]+fair[models.MarketBTTSNo]-1) > 1e-9 {
		t.Fatalf("fair probabilities must sum to 1")
	}
}
