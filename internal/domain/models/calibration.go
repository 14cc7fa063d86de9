package models

import "time"

// LeagueCalibration holds the tunable per-league parameters of the Poisson
// model. Records are immutable: each optimizer fit produces a new record with
// a fresh version, and readers always bind to the latest committed one.
// Owned exclusively by the calibration optimizer; read-only elsewhere.
type LeagueCalibration struct {
	LeagueID      string    `json:"leagueId"`
	HomeAdvantage float64   `json:"homeAdvantage"` // >= 1
	AvgGoalsHome  float64   `json:"avgGoalsHome"`
	AvgGoalsAway  float64   `json:"avgGoalsAway"`
	Version       int64     `json:"version"`
	FittedAt      time.Time `json:"fittedAt"`
	SampleCount   int       `json:"sampleCount"`
}

// MarketCalibration is the per-(league, market group) blend weight applied
// when mixing the model probability with a market-implied baseline.
// Same ownership and versioning rules as LeagueCalibration.
type MarketCalibration struct {
	LeagueID    string    `json:"leagueId"`
	MarketGroup string    `json:"marketGroup"`
	BlendWeight float64   `json:"blendWeight"` // model share in [0,1]
	Version     int64     `json:"version"`
	FittedAt    time.Time `json:"fittedAt"`
	SampleCount int       `json:"sampleCount"`
}

// CalibrationRecord pairs one stored prediction with its settled outcome.
// Append-only; the optimizer's objective and the backtester's scores are
// computed over these.
type CalibrationRecord struct {
	FixtureID            string    `json:"fixtureId"`
	LeagueID             string    `json:"leagueId"`
	Market               Market    `json:"market"`
	PredictedProbability float64   `json:"predictedProbability"`
	Outcome              int       `json:"outcome"` // 1 if the proposition settled true, else 0
	Timestamp            time.Time `json:"timestamp"`

	// Goal-rate components at generation time, with home advantage divided
	// out of the home rate. These make the optimizer's objective a real
	// function of the candidate parameters instead of a frozen number.
	LambdaHomeBase float64 `json:"lambdaHomeBase"`
	LambdaAway     float64 `json:"lambdaAway"`

	// Fair market-implied probability at generation (overround removed);
	// 0 when no odds were available. Input to blend-weight fitting.
	ImpliedProbability float64 `json:"impliedProbability"`

	// Settled scoreline, carried so league goal averages can be refit from
	// the same record set.
	ActualHomeGoals int `json:"actualHomeGoals"`
	ActualAwayGoals int `json:"actualAwayGoals"`
}

// CalibrationBucket is one decile of the calibration curve: predictions whose
// probability fell in [Low, High) against the frequency actually observed.
type CalibrationBucket struct {
	Low           float64 `json:"low"`
	High          float64 `json:"high"`
	Count         int     `json:"count"`
	MeanPredicted float64 `json:"meanPredicted"`
	ObservedRate  float64 `json:"observedRate"`
}

// BacktestReport aggregates prediction-vs-outcome scoring for one league
// over a settlement pass.
type BacktestReport struct {
	LeagueID string              `json:"leagueId"`
	Scored   int                 `json:"scored"`
	Skipped  int                 `json:"skipped"`
	Brier    float64             `json:"brier"`
	LogLoss  float64             `json:"logLoss"`
	Buckets  []CalibrationBucket `json:"buckets"`
}
