package engine

import (
	"math"
	"testing"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
)

func testCalibration() *models.LeagueCalibration {
	return &models.LeagueCalibration{
		LeagueID:      "TR1",
		HomeAdvantage: 1.25,
		AvgGoalsHome:  1.5,
		AvgGoalsAway:  1.0,
	}
}

func homeMatches(goalsFor, goalsAgainst, n int) []models.MatchResult {
	out := make([]models.MatchResult, n)
	for i := range out {
		out[i] = models.MatchResult{
			Venue:        models.VenueHome,
			GoalsFor:     goalsFor,
			GoalsAgainst: goalsAgainst,
		}
	}
	return out
}

func TestEstimateNoHistory(t *testing.T) {
	e := NewEstimator(StrengthParams{})
	got := e.Estimate(&models.TeamForm{Venue: models.VenueHome}, testCalibration())
	if got.Attack != 1 || got.Defense != 1 {
		t.Fatalf("expected league-average indices, got %+v", got)
	}
	if got.SampleSize != 0 || got.ShrinkWeight != 0 {
		t.Fatalf("expected empty sample, got %+v", got)
	}
}

func TestEstimateShrinkage(t *testing.T) {
	e := NewEstimator(StrengthParams{PriorMatches: 8})
	form := &models.TeamForm{Venue: models.VenueHome, Matches: homeMatches(3, 1, 4)}

	got := e.Estimate(form, testCalibration())

	// raw attack = (3/1.5) = 2, w = 4/12, attack = 2*w + (1-w)
	wantW := 4.0 / 12.0
	wantAttack := 2*wantW + (1 - wantW)
	if math.Abs(got.ShrinkWeight-wantW) > 1e-12 {
		t.Fatalf("shrink weight = %v, want %v", got.ShrinkWeight, wantW)
	}
	if math.Abs(got.Attack-wantAttack) > 1e-12 {
		t.Fatalf("attack = %v, want %v", got.Attack, wantAttack)
	}
	if got.SampleSize != 4 {
		t.Fatalf("sample size = %d", got.SampleSize)
	}
}

func TestEstimateMoreMatchesLessShrink(t *testing.T) {
	e := NewEstimator(StrengthParams{})
	cal := testCalibration()

	small := e.Estimate(&models.TeamForm{Venue: models.VenueHome, Matches: homeMatches(3, 0, 2)}, cal)
	large := e.Estimate(&models.TeamForm{Venue: models.VenueHome, Matches: homeMatches(3, 0, 10)}, cal)

	if large.ShrinkWeight <= small.ShrinkWeight {
		t.Fatalf("shrink weight should grow with sample: %v vs %v", small.ShrinkWeight, large.ShrinkWeight)
	}
	if large.Attack <= small.Attack {
		t.Fatalf("above-average team should move further from baseline: %v vs %v", small.Attack, large.Attack)
	}
}

func TestEstimateOpponentAdjustment(t *testing.T) {
	e := NewEstimator(StrengthParams{})
	cal := testCalibration()

	vsStrong := &models.TeamForm{Venue: models.VenueHome, Matches: []models.MatchResult{
		{Venue: models.VenueHome, GoalsFor: 2, OpponentDefense: 0.5, OpponentAttack: 1},
	}}
	vsWeak := &models.TeamForm{Venue: models.VenueHome, Matches: []models.MatchResult{
		{Venue: models.VenueHome, GoalsFor: 2, OpponentDefense: 2.0, OpponentAttack: 1},
	}}

	strong := e.Estimate(vsStrong, cal)
	weak := e.Estimate(vsWeak, cal)
	if strong.Attack <= weak.Attack {
		t.Fatalf("goals against a tight defense should count for more: %v vs %v", strong.Attack, weak.Attack)
	}
}

func TestEstimateClamp(t *testing.T) {
	e := NewEstimator(StrengthParams{MinIndex: 0.1, MaxIndex: 5})
	form := &models.TeamForm{Venue: models.VenueHome, Matches: homeMatches(30, 0, 20)}

	got := e.Estimate(form, testCalibration())
	if got.Attack > 5 {
		t.Fatalf("attack not clamped: %v", got.Attack)
	}
	if got.Defense < 0.1 {
		t.Fatalf("defense not clamped: %v", got.Defense)
	}
}

func TestEstimateAwayVenueBaseline(t *testing.T) {
	e := NewEstimator(StrengthParams{})
	cal := testCalibration()

	// Scoring 1.0 per match away equals the away average, not the home one.
	form := &models.TeamForm{Venue: models.VenueAway, Matches: []models.MatchResult{
		{Venue: models.VenueAway, GoalsFor: 1, GoalsAgainst: 1},
	}}
	got := e.Estimate(form, cal)

	w := got.ShrinkWeight
	want := 1*w + (1 - w) // raw attack exactly 1 against the away baseline
	if math.Abs(got.Attack-want) > 1e-12 {
		t.Fatalf("attack = %v, want %v", got.Attack, want)
	}
}
