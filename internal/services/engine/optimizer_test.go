package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
)

// fitRecords builds a settled record set where the home side won a fixed
// share of fixtures, enough signal for the grid search to move.
func fitRecords(n int, homeWins int) []models.CalibrationRecord {
	out := make([]models.CalibrationRecord, 0, n)
	for i := 0; i < n; i++ {
		hg, ag := 0, 1
		if i < homeWins {
			hg, ag = 2, 0
		}
		out = append(out, models.CalibrationRecord{
			FixtureID:            fmt.Sprintf("fx-%d", i),
			LeagueID:             "TR1",
			Market:               models.Market1X2Home,
			PredictedProbability: 0.5,
			Outcome:              boolToOutcome(hg > ag),
			Timestamp:            time.Now(),
			LambdaHomeBase:       1.2,
			LambdaAway:           1.1,
			ActualHomeGoals:      hg,
			ActualAwayGoals:      ag,
		})
	}
	return out
}

func TestFitInsufficientSample(t *testing.T) {
	f := NewFitter(OptimizerParams{})
	_, err := f.Fit(context.Background(), "TR1", fitRecords(10, 5), nil)
	if !errors.Is(err, ErrInsufficientSample) {
		t.Fatalf("expected ErrInsufficientSample, got %v", err)
	}
}

func TestFitStaysOnGridAndAdvancesVersion(t *testing.T) {
	f := NewFitter(OptimizerParams{})
	prior := &models.LeagueCalibration{LeagueID: "TR1", HomeAdvantage: 1.25, Version: 3}

	got, err := f.Fit(context.Background(), "TR1", fitRecords(60, 45), prior)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if got.HomeAdvantage < 1.0 || got.HomeAdvantage > 1.8 {
		t.Fatalf("home advantage %v outside search range", got.HomeAdvantage)
	}
	if r := math.Mod(got.HomeAdvantage+1e-9, 0.05); r > 2e-9 {
		t.Fatalf("home advantage %v not on the 0.05 grid", got.HomeAdvantage)
	}
	if got.Version != 4 {
		t.Fatalf("version = %d, want 4", got.Version)
	}
	if got.SampleCount != 60 {
		t.Fatalf("sample count = %d, want 60", got.SampleCount)
	}
}

func TestFitIdempotent(t *testing.T) {
	f := NewFitter(OptimizerParams{})
	records := fitRecords(60, 40)

	first, err := f.Fit(context.Background(), "TR1", records, nil)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	second, err := f.Fit(context.Background(), "TR1", records, first)
	if err != nil {
		t.Fatalf("refit: %v", err)
	}
	if first.HomeAdvantage != second.HomeAdvantage {
		t.Fatalf("refit moved home advantage: %v -> %v", first.HomeAdvantage, second.HomeAdvantage)
	}
	if first.AvgGoalsHome != second.AvgGoalsHome || first.AvgGoalsAway != second.AvgGoalsAway {
		t.Fatalf("refit moved goal averages")
	}
}

func TestFitRefreshesGoalAverages(t *testing.T) {
	f := NewFitter(OptimizerParams{})
	records := fitRecords(40, 30) // 30 fixtures at 2-0, 10 at 0-1

	got, err := f.Fit(context.Background(), "TR1", records, nil)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if math.Abs(got.AvgGoalsHome-1.5) > 1e-9 {
		t.Fatalf("avg home goals = %v, want 1.5", got.AvgGoalsHome)
	}
	if math.Abs(got.AvgGoalsAway-0.25) > 1e-9 {
		t.Fatalf("avg away goals = %v, want 0.25", got.AvgGoalsAway)
	}
}

func TestFitLossMatchesServedProbabilities(t *testing.T) {
	const rho = -0.08
	f := NewFitter(OptimizerParams{MaxGoals: 10, DrawCorrelation: rho})
	serving := NewPoisson(PoissonParams{MaxGoals: 10, DrawCorrelation: rho})

	rec := models.CalibrationRecord{
		FixtureID:       "fx-1",
		LeagueID:        "TR1",
		Market:          models.Market1X2Draw,
		Outcome:         1,
		LambdaHomeBase:  1.2,
		LambdaAway:      1.1,
		ActualHomeGoals: 1,
		ActualAwayGoals: 1,
	}
	const ha = 1.25
	served := matchOutcomes(serving.buildMatrix(rec.LambdaHomeBase*ha, rec.LambdaAway)).draw

	loss := f.homeAdvantageLoss([]models.CalibrationRecord{rec}, ha)
	if math.Abs(loss+math.Log(served)) > 1e-12 {
		t.Fatalf("loss at serving parameters = %v, want -log(%v)", loss, served)
	}

	// A fitter without the draw correction scores a model the engine never
	// serves; its objective must diverge on a draw outcome.
	plain := NewFitter(OptimizerParams{MaxGoals: 10})
	if other := plain.homeAdvantageLoss([]models.CalibrationRecord{rec}, ha); math.Abs(other-loss) < 1e-6 {
		t.Fatalf("draw correction has no effect on the objective: %v vs %v", other, loss)
	}
}

func TestFitCountsFixturesNotRecords(t *testing.T) {
	// Seven markets per fixture push the record count past the minimum while
	// only five fixtures have settled.
	markets := []models.Market{
		models.Market1X2Home, models.Market1X2Draw, models.Market1X2Away,
		models.MarketBTTSYes, models.MarketBTTSNo,
		models.OverMarket(2.5), models.UnderMarket(2.5),
	}
	var records []models.CalibrationRecord
	for i := 0; i < 5; i++ {
		for _, m := range markets {
			records = append(records, models.CalibrationRecord{
				FixtureID:            fmt.Sprintf("fx-%d", i),
				LeagueID:             "TR1",
				Market:               m,
				PredictedProbability: 0.5,
				ImpliedProbability:   0.5,
				LambdaHomeBase:       1.2,
				LambdaAway:           1.1,
				ActualHomeGoals:      2,
				ActualAwayGoals:      1,
			})
		}
	}

	f := NewFitter(OptimizerParams{})
	if _, err := f.Fit(context.Background(), "TR1", records, nil); !errors.Is(err, ErrInsufficientSample) {
		t.Fatalf("expected ErrInsufficientSample for 5 fixtures, got %v", err)
	}
	if _, err := f.FitBlend(context.Background(), "TR1", "1X2", records, nil); !errors.Is(err, ErrInsufficientSample) {
		t.Fatalf("expected ErrInsufficientSample for 5 fixtures, got %v", err)
	}
}

func TestFitCanceledContext(t *testing.T) {
	f := NewFitter(OptimizerParams{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Fit(ctx, "TR1", fitRecords(60, 40), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func blendRecords(n int, modelSharp bool) []models.CalibrationRecord {
	out := make([]models.CalibrationRecord, 0, n)
	for i := 0; i < n; i++ {
		outcome := i % 2
		predicted, implied := 0.5, 0.5
		if modelSharp {
			// The model nails every outcome while the market sits on the fence.
			predicted = 0.95*float64(outcome) + 0.025
		} else {
			implied = 0.95*float64(outcome) + 0.025
		}
		out = append(out, models.CalibrationRecord{
			FixtureID:            fmt.Sprintf("fx-%d", i),
			LeagueID:             "TR1",
			Market:               models.Market1X2Home,
			PredictedProbability: predicted,
			ImpliedProbability:   implied,
			Outcome:              outcome,
		})
	}
	return out
}

func TestFitBlendPrefersSharperSource(t *testing.T) {
	f := NewFitter(OptimizerParams{})

	modelWins, err := f.FitBlend(context.Background(), "TR1", "1X2", blendRecords(60, true), nil)
	if err != nil {
		t.Fatalf("fit blend: %v", err)
	}
	if modelWins.BlendWeight != 1 {
		t.Fatalf("expected full model weight, got %v", modelWins.BlendWeight)
	}

	marketWins, err := f.FitBlend(context.Background(), "TR1", "1X2", blendRecords(60, false), nil)
	if err != nil {
		t.Fatalf("fit blend: %v", err)
	}
	if marketWins.BlendWeight != 0 {
		t.Fatalf("expected full market weight, got %v", marketWins.BlendWeight)
	}
}

func TestFitBlendFiltersGroup(t *testing.T) {
	f := NewFitter(OptimizerParams{})
	// Records belong to 1X2; fitting BTTS has nothing to work with.
	_, err := f.FitBlend(context.Background(), "TR1", "BTTS", blendRecords(60, true), nil)
	if !errors.Is(err, ErrInsufficientSample) {
		t.Fatalf("expected ErrInsufficientSample, got %v", err)
	}
}
