package service

import (
	"context"
	"time"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
)

// StrengthEstimator derives per-team, per-venue strength indices from a
// recent-form window. Pure computation: never performs I/O.
type StrengthEstimator interface {
	Estimate(form *models.TeamForm, cal *models.LeagueCalibration) models.StrengthIndex
}

// Predictor turns strengths plus league calibration into a scoreline matrix
// and derived market probabilities for one fixture.
type Predictor interface {
	Predict(fixture *models.Fixture, home, away models.StrengthIndex, cal *models.LeagueCalibration) (*models.Prediction, error)
}

// ValueFinder compares modeled probabilities against bookmaker odds.
// Pure function of its inputs; safe to cache by (fixture, odds snapshot).
type ValueFinder interface {
	Find(pred *models.Prediction, odds map[models.Market]float64) []models.ValueBet
}

// CouponBuilder assembles a risk-bounded ticket from candidate value bets.
type CouponBuilder interface {
	Build(candidates []models.ValueBet, risk models.RiskCategory, stake float64, maxSelections int) (*models.Coupon, error)
}

// Optimizer refits league/market calibration parameters against historical
// calibration records. Runs on a schedule, never inline with prediction.
type Optimizer interface {
	Fit(ctx context.Context, leagueID string, records []models.CalibrationRecord, prior *models.LeagueCalibration) (*models.LeagueCalibration, error)
	FitBlend(ctx context.Context, leagueID, marketGroup string, records []models.CalibrationRecord, prior *models.MarketCalibration) (*models.MarketCalibration, error)
}

// Backtester scores stored predictions against settled results.
type Backtester interface {
	Score(fixtures []models.Fixture, lookup func(fixtureID string) *models.Prediction, now time.Time) ([]models.CalibrationRecord, *models.BacktestReport)
}
