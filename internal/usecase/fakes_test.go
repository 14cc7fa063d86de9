package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
)

type fakeProvider struct {
	fixtures []models.Fixture
	forms    map[string][]models.MatchResult // teamID|venue
	odds     map[string]map[models.Market]float64
	formErr  map[string]error
}

func (f *fakeProvider) GetFixturesByDate(_ context.Context, _ time.Time) ([]models.Fixture, error) {
	return f.fixtures, nil
}

func (f *fakeProvider) GetTeamRecentMatches(_ context.Context, teamID string, venue models.Venue, _ int) ([]models.MatchResult, error) {
	if err := f.formErr[teamID]; err != nil {
		return nil, err
	}
	return f.forms[teamID+"|"+string(venue)], nil
}

func (f *fakeProvider) GetOdds(_ context.Context, fixtureID string) (map[models.Market]float64, error) {
	odds, ok := f.odds[fixtureID]
	if !ok {
		return map[models.Market]float64{}, nil
	}
	return odds, nil
}

type fakeStore struct {
	mu          sync.Mutex
	calibration map[string]*models.LeagueCalibration
	market      map[string]*models.MarketCalibration
	records     []models.CalibrationRecord
	predictions map[string]*models.Prediction
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		calibration: make(map[string]*models.LeagueCalibration),
		market:      make(map[string]*models.MarketCalibration),
		predictions: make(map[string]*models.Prediction),
	}
}

func (s *fakeStore) LoadCalibration(_ context.Context, leagueID string) (*models.LeagueCalibration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calibration[leagueID], nil
}

func (s *fakeStore) SaveCalibration(_ context.Context, cal *models.LeagueCalibration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calibration[cal.LeagueID] = cal
	return nil
}

func (s *fakeStore) LoadMarketCalibration(_ context.Context, leagueID, group string) (*models.MarketCalibration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market[leagueID+"|"+group], nil
}

func (s *fakeStore) SaveMarketCalibration(_ context.Context, cal *models.MarketCalibration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.market[cal.LeagueID+"|"+cal.MarketGroup] = cal
	return nil
}

func (s *fakeStore) AppendCalibrationRecords(_ context.Context, records []models.CalibrationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

func (s *fakeStore) LoadCalibrationRecords(_ context.Context, leagueID string, _ time.Time) ([]models.CalibrationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CalibrationRecord
	for _, r := range s.records {
		if r.LeagueID == leagueID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) SavePredictions(_ context.Context, preds []*models.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range preds {
		s.predictions[p.FixtureID] = p
	}
	return nil
}

func (s *fakeStore) LoadPrediction(_ context.Context, fixtureID string) (*models.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.predictions[fixtureID], nil
}

func (s *fakeStore) Health(_ context.Context) error { return nil }
func (s *fakeStore) Close() error                   { return nil }

type fakePublisher struct {
	mu          sync.Mutex
	predictions int
	valueBets   int
	coupons     int
}

func (p *fakePublisher) PublishPredictions(_ context.Context, preds []*models.Prediction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.predictions += len(preds)
	return nil
}

func (p *fakePublisher) PublishValueBets(_ context.Context, bets []models.ValueBet) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.valueBets += len(bets)
	return nil
}

func (p *fakePublisher) PublishCoupon(_ context.Context, _ *models.Coupon) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.coupons++
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	mu          sync.Mutex
	predictions int
	violations  int
	valueBets   int
	cacheHits   int
	cacheMisses int
	fits        map[string]int
	drift       map[string]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{fits: make(map[string]int), drift: make(map[string]float64)}
}

func (m *fakeMetrics) RecordPrediction(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *fakeMetrics) RecordInvariantViolation(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.violations++
}

func (m *fakeMetrics) RecordValueBet(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valueBets++
}

func (m *fakeMetrics) RecordOptimizerFit(leagueID, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fits[fmt.Sprintf("%s:%s", leagueID, result)]++
}

func (m *fakeMetrics) RecordCacheEvent(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
}

func (m *fakeMetrics) RecordBatchDuration(float64) {}

func (m *fakeMetrics) RecordDrift(leagueID string, brier, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drift[leagueID] = brier
}
