package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/repository"
)

// ClickHouseCalibrationStore implements CalibrationStore for ClickHouse.
// Calibrations are append-only versioned rows; readers always take the
// highest committed version, so a fit in progress never shows a half-written
// parameter set.
type ClickHouseCalibrationStore struct {
	db *sql.DB
}

// NewClickHouseCalibrationStore creates ClickHouse-backed calibration storage.
func NewClickHouseCalibrationStore(db *sql.DB) repository.CalibrationStore {
	return &ClickHouseCalibrationStore{db: db}
}

// Schema returns the idempotent DDL for all tables.
func Schema(database string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.league_calibrations (
			league_id String,
			home_advantage Float64,
			avg_goals_home Float64,
			avg_goals_away Float64,
			version Int64,
			fitted_at DateTime64(3),
			sample_count Int32
		) ENGINE = MergeTree() ORDER BY (league_id, version)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.market_calibrations (
			league_id String,
			market_group String,
			blend_weight Float64,
			version Int64,
			fitted_at DateTime64(3),
			sample_count Int32
		) ENGINE = MergeTree() ORDER BY (league_id, market_group, version)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.calibration_records (
			fixture_id String,
			league_id String,
			market String,
			predicted_probability Float64,
			outcome UInt8,
			ts DateTime64(3),
			lambda_home_base Float64,
			lambda_away Float64,
			implied_probability Float64,
			actual_home_goals Int32,
			actual_away_goals Int32
		) ENGINE = MergeTree() ORDER BY (league_id, ts, fixture_id)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.predictions (
			fixture_id String,
			league_id String,
			generated_at DateTime64(3),
			lambda_home Float64,
			lambda_away Float64,
			home_advantage Float64,
			lambda_home_base Float64,
			markets String,
			odds String
		) ENGINE = ReplacingMergeTree(generated_at) ORDER BY fixture_id`, database),
	}
}

func (s *ClickHouseCalibrationStore) LoadCalibration(ctx context.Context, leagueID string) (*models.LeagueCalibration, error) {
	q := `SELECT league_id, home_advantage, avg_goals_home, avg_goals_away, version, fitted_at, sample_count
		FROM league_calibrations WHERE league_id = ? ORDER BY version DESC LIMIT 1`

	var cal models.LeagueCalibration
	err := s.db.QueryRowContext(ctx, q, leagueID).Scan(
		&cal.LeagueID, &cal.HomeAdvantage, &cal.AvgGoalsHome, &cal.AvgGoalsAway,
		&cal.Version, &cal.FittedAt, &cal.SampleCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load calibration %s: %w", leagueID, err)
	}
	return &cal, nil
}

func (s *ClickHouseCalibrationStore) SaveCalibration(ctx context.Context, cal *models.LeagueCalibration) error {
	q := `INSERT INTO league_calibrations
		(league_id, home_advantage, avg_goals_home, avg_goals_away, version, fitted_at, sample_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		cal.LeagueID, cal.HomeAdvantage, cal.AvgGoalsHome, cal.AvgGoalsAway,
		cal.Version, cal.FittedAt, cal.SampleCount,
	)
	return err
}

func (s *ClickHouseCalibrationStore) LoadMarketCalibration(ctx context.Context, leagueID, marketGroup string) (*models.MarketCalibration, error) {
	q := `SELECT league_id, market_group, blend_weight, version, fitted_at, sample_count
		FROM market_calibrations WHERE league_id = ? AND market_group = ? ORDER BY version DESC LIMIT 1`

	var cal models.MarketCalibration
	err := s.db.QueryRowContext(ctx, q, leagueID, marketGroup).Scan(
		&cal.LeagueID, &cal.MarketGroup, &cal.BlendWeight,
		&cal.Version, &cal.FittedAt, &cal.SampleCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load market calibration %s/%s: %w", leagueID, marketGroup, err)
	}
	return &cal, nil
}

func (s *ClickHouseCalibrationStore) SaveMarketCalibration(ctx context.Context, cal *models.MarketCalibration) error {
	q := `INSERT INTO market_calibrations
		(league_id, market_group, blend_weight, version, fitted_at, sample_count)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		cal.LeagueID, cal.MarketGroup, cal.BlendWeight,
		cal.Version, cal.FittedAt, cal.SampleCount,
	)
	return err
}

func (s *ClickHouseCalibrationStore) AppendCalibrationRecords(ctx context.Context, records []models.CalibrationRecord) error {
	if len(records) == 0 {
		return nil
	}
	// Multi-row VALUES insert, chunked to bound statement size.
	const chunkSize = 2000
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*11)
		for _, r := range records[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.FixtureID, r.LeagueID, string(r.Market),
				r.PredictedProbability, uint8(r.Outcome), r.Timestamp,
				r.LambdaHomeBase, r.LambdaAway, r.ImpliedProbability,
				r.ActualHomeGoals, r.ActualAwayGoals,
			)
		}
		q := fmt.Sprintf(`INSERT INTO calibration_records
			(fixture_id, league_id, market, predicted_probability, outcome, ts,
			lambda_home_base, lambda_away, implied_probability, actual_home_goals, actual_away_goals)
			VALUES %s`, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("append calibration records: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseCalibrationStore) LoadCalibrationRecords(ctx context.Context, leagueID string, since time.Time) ([]models.CalibrationRecord, error) {
	q := `SELECT fixture_id, league_id, market, predicted_probability, outcome, ts,
		lambda_home_base, lambda_away, implied_probability, actual_home_goals, actual_away_goals
		FROM calibration_records WHERE league_id = ? AND ts >= ? ORDER BY ts, fixture_id, market`

	rows, err := s.db.QueryContext(ctx, q, leagueID, since)
	if err != nil {
		return nil, fmt.Errorf("load calibration records: %w", err)
	}
	defer rows.Close()

	var records []models.CalibrationRecord
	for rows.Next() {
		var (
			r       models.CalibrationRecord
			market  string
			outcome uint8
		)
		if err := rows.Scan(
			&r.FixtureID, &r.LeagueID, &market, &r.PredictedProbability, &outcome, &r.Timestamp,
			&r.LambdaHomeBase, &r.LambdaAway, &r.ImpliedProbability,
			&r.ActualHomeGoals, &r.ActualAwayGoals,
		); err != nil {
			return nil, err
		}
		r.Market = models.Market(market)
		r.Outcome = int(outcome)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *ClickHouseCalibrationStore) SavePredictions(ctx context.Context, preds []*models.Prediction) error {
	if len(preds) == 0 {
		return nil
	}
	values := make([]string, 0, len(preds))
	args := make([]interface{}, 0, len(preds)*8)
	for _, p := range preds {
		if p == nil {
			continue
		}
		markets, err := json.Marshal(p.Markets)
		if err != nil {
			return fmt.Errorf("marshal markets for %s: %w", p.FixtureID, err)
		}
		odds, err := json.Marshal(p.Odds)
		if err != nil {
			return fmt.Errorf("marshal odds for %s: %w", p.FixtureID, err)
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			p.FixtureID, p.LeagueID, p.GeneratedAt,
			p.LambdaHome, p.LambdaAway, p.HomeAdvantage, p.LambdaHomeBase,
			string(markets), string(odds),
		)
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf(`INSERT INTO predictions
		(fixture_id, league_id, generated_at, lambda_home, lambda_away, home_advantage, lambda_home_base, markets, odds)
		VALUES %s`, strings.Join(values, ","))
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *ClickHouseCalibrationStore) LoadPrediction(ctx context.Context, fixtureID string) (*models.Prediction, error) {
	q := `SELECT fixture_id, league_id, generated_at, lambda_home, lambda_away, home_advantage, lambda_home_base, markets, odds
		FROM predictions WHERE fixture_id = ? ORDER BY generated_at DESC LIMIT 1`

	var (
		p       models.Prediction
		markets string
		odds    string
	)
	err := s.db.QueryRowContext(ctx, q, fixtureID).Scan(
		&p.FixtureID, &p.LeagueID, &p.GeneratedAt,
		&p.LambdaHome, &p.LambdaAway, &p.HomeAdvantage, &p.LambdaHomeBase,
		&markets, &odds,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load prediction %s: %w", fixtureID, err)
	}
	if err := json.Unmarshal([]byte(markets), &p.Markets); err != nil {
		return nil, fmt.Errorf("unmarshal markets for %s: %w", fixtureID, err)
	}
	if odds != "" && odds != "null" {
		if err := json.Unmarshal([]byte(odds), &p.Odds); err != nil {
			return nil, fmt.Errorf("unmarshal odds for %s: %w", fixtureID, err)
		}
	}
	return &p, nil
}

func (s *ClickHouseCalibrationStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseCalibrationStore) Close() error {
	return nil // pool managed by pkg/clickhouse
}
