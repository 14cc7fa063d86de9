package repository

import (
	"context"
	"time"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
)

// MatchDataProvider is the external fixture/odds source. It may return empty
// or partial results; callers degrade (fallback strengths, skipped value
// evaluation) rather than failing a whole batch.
type MatchDataProvider interface {
	GetFixturesByDate(ctx context.Context, date time.Time) ([]models.Fixture, error)
	GetTeamRecentMatches(ctx context.Context, teamID string, venue models.Venue, window int) ([]models.MatchResult, error)
	GetOdds(ctx context.Context, fixtureID string) (map[models.Market]float64, error)
}

// CalibrationStore persists calibration parameters, append-only calibration
// records and generated predictions.
type CalibrationStore interface {
	LoadCalibration(ctx context.Context, leagueID string) (*models.LeagueCalibration, error)
	SaveCalibration(ctx context.Context, cal *models.LeagueCalibration) error
	LoadMarketCalibration(ctx context.Context, leagueID, marketGroup string) (*models.MarketCalibration, error)
	SaveMarketCalibration(ctx context.Context, cal *models.MarketCalibration) error

	AppendCalibrationRecords(ctx context.Context, records []models.CalibrationRecord) error
	LoadCalibrationRecords(ctx context.Context, leagueID string, since time.Time) ([]models.CalibrationRecord, error)

	SavePredictions(ctx context.Context, preds []*models.Prediction) error
	LoadPrediction(ctx context.Context, fixtureID string) (*models.Prediction, error)

	Health(ctx context.Context) error
	Close() error
}

// Publisher hands finished output records to the posting/presentation
// collaborators. Records are plain and immutable; no formatting here.
type Publisher interface {
	PublishPredictions(ctx context.Context, preds []*models.Prediction) error
	PublishValueBets(ctx context.Context, bets []models.ValueBet) error
	PublishCoupon(ctx context.Context, coupon *models.Coupon) error
	Close() error
}

// Metrics records engine observability signals.
type Metrics interface {
	RecordPrediction(leagueID string)
	RecordInvariantViolation(leagueID string)
	RecordValueBet(tier string)
	RecordOptimizerFit(leagueID, result string)
	RecordCacheEvent(hit bool)
	RecordBatchDuration(seconds float64)
	RecordDrift(leagueID string, brier, logLoss float64)
}
