package engine

import (
	"math"
	"testing"
	"time"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
)

func finishedFixture(id string, hg, ag int) models.Fixture {
	return models.Fixture{
		ID:        id,
		LeagueID:  "TR1",
		Status:    models.StatusFinished,
		HomeGoals: hg,
		AwayGoals: ag,
	}
}

func storedPrediction(fixtureID string) *models.Prediction {
	return &models.Prediction{
		FixtureID:     fixtureID,
		LeagueID:      "TR1",
		LambdaHome:    1.8,
		LambdaAway:    1.0,
		HomeAdvantage: 1.2,
		Markets: map[models.Market]float64{
			models.Market1X2Home:        0.55,
			models.Market1X2Draw:        0.25,
			models.Market1X2Away:        0.20,
			models.OverMarket(2.5):      0.52,
			models.UnderMarket(2.5):     0.48,
			models.MarketBTTSYes:        0.50,
			models.MarketBTTSNo:         0.50,
			models.HTFTMarket("1", "1"): 0.30,
		},
	}
}

func TestScoreSettlesMarkets(t *testing.T) {
	s := NewScorer()
	fixtures := []models.Fixture{finishedFixture("fx-1", 2, 1)}
	lookup := func(id string) *models.Prediction { return storedPrediction(id) }

	records, report := s.Score(fixtures, lookup, time.Now())

	if report.Scored != 1 || report.Skipped != 0 {
		t.Fatalf("scored=%d skipped=%d", report.Scored, report.Skipped)
	}
	// Seven settleable markets; HT/FT has no half-time score to settle against.
	if len(records) != 7 {
		t.Fatalf("expected 7 records, got %d", len(records))
	}

	byMarket := make(map[models.Market]models.CalibrationRecord, len(records))
	for _, r := range records {
		byMarket[r.Market] = r
	}
	if _, has := byMarket[models.HTFTMarket("1", "1")]; has {
		t.Fatalf("HT/FT must not be settled from full-time data")
	}
	if byMarket[models.Market1X2Home].Outcome != 1 {
		t.Fatalf("2-1 is a home win")
	}
	if byMarket[models.OverMarket(2.5)].Outcome != 1 {
		t.Fatalf("3 goals settles over 2.5")
	}
	if byMarket[models.MarketBTTSYes].Outcome != 1 {
		t.Fatalf("2-1 settles BTTS yes")
	}
	if byMarket[models.Market1X2Draw].Outcome != 0 {
		t.Fatalf("2-1 is not a draw")
	}

	// The stored prediction carries no explicit base rate; the scorer falls
	// back to dividing the advantage out.
	wantBase := 1.8 / 1.2
	if math.Abs(byMarket[models.Market1X2Home].LambdaHomeBase-wantBase) > 1e-9 {
		t.Fatalf("lambda base = %v, want %v", byMarket[models.Market1X2Home].LambdaHomeBase, wantBase)
	}
}

func TestScoreCarriesPreClampBaseRate(t *testing.T) {
	s := NewScorer()
	pred := storedPrediction("fx-1")
	// Rate capping bounded LambdaHome at generation time, so dividing the
	// advantage out would claim 8/1.25 = 6.4 instead of the true base.
	pred.LambdaHome = 8
	pred.HomeAdvantage = 1.25
	pred.LambdaHomeBase = 13.5
	lookup := func(string) *models.Prediction { return pred }

	records, _ := s.Score([]models.Fixture{finishedFixture("fx-1", 2, 1)}, lookup, time.Now())
	if len(records) == 0 {
		t.Fatalf("expected settled records")
	}
	for _, r := range records {
		if r.LambdaHomeBase != 13.5 {
			t.Fatalf("lambda base = %v, want the stored 13.5", r.LambdaHomeBase)
		}
	}
}

func TestScoreSkipsUnsettledFixtures(t *testing.T) {
	s := NewScorer()
	fixtures := []models.Fixture{
		{ID: "fx-1", LeagueID: "TR1", Status: models.StatusPostponed, HomeGoals: -1, AwayGoals: -1},
		{ID: "fx-2", LeagueID: "TR1", Status: models.StatusScheduled, HomeGoals: -1, AwayGoals: -1},
		finishedFixture("fx-3", 0, 0),
	}
	lookup := func(id string) *models.Prediction {
		if id == "fx-3" {
			return nil // no stored prediction
		}
		return storedPrediction(id)
	}

	records, report := s.Score(fixtures, lookup, time.Now())
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
	if report.Scored != 0 || report.Skipped != 3 {
		t.Fatalf("scored=%d skipped=%d", report.Scored, report.Skipped)
	}
}

func TestScoreAggregates(t *testing.T) {
	s := NewScorer()
	fixtures := []models.Fixture{
		finishedFixture("fx-1", 2, 1),
		finishedFixture("fx-2", 0, 0),
	}
	lookup := func(id string) *models.Prediction { return storedPrediction(id) }

	records, report := s.Score(fixtures, lookup, time.Now())
	if report.Scored != 2 {
		t.Fatalf("scored = %d", report.Scored)
	}
	if report.Brier <= 0 || report.Brier > 1 {
		t.Fatalf("brier = %v", report.Brier)
	}
	if report.LogLoss <= 0 {
		t.Fatalf("log loss = %v", report.LogLoss)
	}
	if len(report.Buckets) == 0 {
		t.Fatalf("expected populated calibration buckets")
	}
	var bucketCount int
	for _, b := range report.Buckets {
		bucketCount += b.Count
		if b.MeanPredicted < b.Low || b.MeanPredicted >= b.High {
			t.Fatalf("bucket mean %v outside [%v, %v)", b.MeanPredicted, b.Low, b.High)
		}
	}
	if bucketCount != len(records) {
		t.Fatalf("bucket counts %d != records %d", bucketCount, len(records))
	}
}

func TestScoreRecordOrderStable(t *testing.T) {
	s := NewScorer()
	fixtures := []models.Fixture{finishedFixture("fx-1", 1, 1)}
	lookup := func(id string) *models.Prediction { return storedPrediction(id) }

	first, _ := s.Score(fixtures, lookup, time.Unix(0, 0))
	second, _ := s.Score(fixtures, lookup, time.Unix(0, 0))
	if len(first) != len(second) {
		t.Fatalf("record counts differ")
	}
	for i := range first {
		if first[i].Market != second[i].Market {
			t.Fatalf("record order differs at %d", i)
		}
	}
}
