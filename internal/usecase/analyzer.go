package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
	drepo "github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/repository"
	domsvc "github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/service"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/services/engine"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/store"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/cache"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/logger"
)

// AnalyzerConfig bounds one batch run.
type AnalyzerConfig struct {
	Concurrency   int
	FormWindow    int
	PredictionTTL time.Duration
	CouponStake   float64
	MaxSelections int
}

// Analyzer runs the daily batch: fixtures -> strengths -> predictions ->
// value bets -> coupons. Fixture failures are isolated and reported in the
// batch result; a batch only fails as a whole when the fixture list itself
// cannot be fetched.
type Analyzer struct {
	provider  drepo.MatchDataProvider
	calStore  drepo.CalibrationStore
	memo      cache.Service
	cals      *store.CalibrationCache
	estimator domsvc.StrengthEstimator
	predictor domsvc.Predictor
	finder    domsvc.ValueFinder
	coupons   domsvc.CouponBuilder
	pub       drepo.Publisher
	metrics   drepo.Metrics
	log       *logger.Logger
	cfg       AnalyzerConfig
}

// NewAnalyzer creates the batch analyzer.
func NewAnalyzer(
	provider drepo.MatchDataProvider,
	calStore drepo.CalibrationStore,
	memo cache.Service,
	cals *store.CalibrationCache,
	estimator domsvc.StrengthEstimator,
	predictor domsvc.Predictor,
	finder domsvc.ValueFinder,
	coupons domsvc.CouponBuilder,
	pub drepo.Publisher,
	metrics drepo.Metrics,
	log *logger.Logger,
	cfg AnalyzerConfig,
) *Analyzer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.FormWindow <= 0 {
		cfg.FormWindow = 10
	}
	return &Analyzer{
		provider:  provider,
		calStore:  calStore,
		memo:      memo,
		cals:      cals,
		estimator: estimator,
		predictor: predictor,
		finder:    finder,
		coupons:   coupons,
		pub:       pub,
		metrics:   metrics,
		log:       log,
		cfg:       cfg,
	}
}

// AnalyzeDate predicts every scheduled fixture of the day and flags value
// bets. Individual fixture failures never abort the batch.
func (a *Analyzer) AnalyzeDate(ctx context.Context, date time.Time) (*models.BatchResult, error) {
	start := time.Now()

	fixtures, err := a.provider.GetFixturesByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("fixtures for %s: %w", date.Format("2006-01-02"), err)
	}

	result := &models.BatchResult{Date: date}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, a.cfg.Concurrency)
	)
	for i := range fixtures {
		fx := fixtures[i]
		if fx.Status != models.StatusScheduled {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			pred, bets, ferr := a.analyzeFixture(ctx, &fx)

			mu.Lock()
			defer mu.Unlock()
			if ferr != nil {
				result.Failures = append(result.Failures, models.FixtureFailure{
					FixtureID: fx.ID,
					Reason:    ferr.Error(),
				})
				return
			}
			result.Predictions = append(result.Predictions, pred)
			result.ValueBets = append(result.ValueBets, bets...)
		}()
	}
	wg.Wait()

	if err := a.persistAndPublish(ctx, result); err != nil {
		a.log.Error("batch output delivery failed", logger.Error(err))
	}
	a.buildCoupons(ctx, result)

	a.metrics.RecordBatchDuration(time.Since(start).Seconds())
	a.log.Info("batch analysis finished",
		logger.String("date", date.Format("2006-01-02")),
		logger.Int("predictions", len(result.Predictions)),
		logger.Int("value_bets", len(result.ValueBets)),
		logger.Int("failures", len(result.Failures)),
		logger.Duration("took", time.Since(start)))
	return result, nil
}

func (a *Analyzer) analyzeFixture(ctx context.Context, fx *models.Fixture) (*models.Prediction, []models.ValueBet, error) {
	key := "pred:" + fx.ID

	var pred models.Prediction
	if err := a.memo.Get(ctx, key, &pred); err == nil {
		a.metrics.RecordCacheEvent(true)
		return &pred, a.findValue(ctx, &pred), nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		a.log.Warn("prediction cache read failed", logger.String("fixture", fx.ID), logger.Error(err))
	}
	a.metrics.RecordCacheEvent(false)

	homeForm, err := a.teamForm(ctx, fx.HomeTeamID, models.VenueHome)
	if err != nil {
		return nil, nil, fmt.Errorf("home form: %w", err)
	}
	awayForm, err := a.teamForm(ctx, fx.AwayTeamID, models.VenueAway)
	if err != nil {
		return nil, nil, fmt.Errorf("away form: %w", err)
	}

	cal := a.cals.League(ctx, fx.LeagueID)
	home := a.estimator.Estimate(homeForm, cal)
	away := a.estimator.Estimate(awayForm, cal)

	p, err := a.predictor.Predict(fx, home, away, cal)
	if err != nil {
		if errors.Is(err, engine.ErrInvariantViolation) {
			a.metrics.RecordInvariantViolation(fx.LeagueID)
			a.log.Error("prediction discarded", logger.String("fixture", fx.ID), logger.Error(err))
		}
		return nil, nil, err
	}
	a.metrics.RecordPrediction(fx.LeagueID)

	// Odds are optional; without them the prediction still stands, only
	// value evaluation is skipped.
	if odds, oerr := a.provider.GetOdds(ctx, fx.ID); oerr != nil {
		a.log.Warn("odds unavailable", logger.String("fixture", fx.ID), logger.Error(oerr))
	} else {
		p.Odds = odds
	}

	if err := a.memo.Set(ctx, key, p, a.cfg.PredictionTTL); err != nil {
		a.log.Warn("prediction cache write failed", logger.String("fixture", fx.ID), logger.Error(err))
	}

	return p, a.findValue(ctx, p), nil
}

func (a *Analyzer) findValue(_ context.Context, pred *models.Prediction) []models.ValueBet {
	if len(pred.Odds) == 0 {
		return nil
	}
	bets := a.finder.Find(pred, pred.Odds)
	for _, b := range bets {
		a.metrics.RecordValueBet(string(b.Tier))
	}
	return bets
}

func (a *Analyzer) teamForm(ctx context.Context, teamID string, venue models.Venue) (*models.TeamForm, error) {
	matches, err := a.provider.GetTeamRecentMatches(ctx, teamID, venue, a.cfg.FormWindow)
	if err != nil {
		return nil, fmt.Errorf("%w: recent matches for %s: %v", engine.ErrDataUnavailable, teamID, err)
	}
	// Empty history is fine; the estimator falls back to the league average.
	return &models.TeamForm{TeamID: teamID, Venue: venue, Matches: matches}, nil
}

func (a *Analyzer) persistAndPublish(ctx context.Context, result *models.BatchResult) error {
	if len(result.Predictions) == 0 {
		return nil
	}
	if err := a.calStore.SavePredictions(ctx, result.Predictions); err != nil {
		return fmt.Errorf("save predictions: %w", err)
	}
	if err := a.pub.PublishPredictions(ctx, result.Predictions); err != nil {
		return fmt.Errorf("publish predictions: %w", err)
	}
	if len(result.ValueBets) > 0 {
		if err := a.pub.PublishValueBets(ctx, result.ValueBets); err != nil {
			return fmt.Errorf("publish value bets: %w", err)
		}
	}
	return nil
}

// buildCoupons assembles one coupon per risk category from the day's value
// bets. A category with no viable subset is simply skipped.
func (a *Analyzer) buildCoupons(ctx context.Context, result *models.BatchResult) {
	if len(result.ValueBets) == 0 {
		return
	}
	for _, risk := range []models.RiskCategory{models.RiskSafe, models.RiskBalanced, models.RiskAggressive} {
		coupon, err := a.coupons.Build(result.ValueBets, risk, a.cfg.CouponStake, a.cfg.MaxSelections)
		if err != nil {
			if !errors.Is(err, engine.ErrNoValidCoupon) {
				a.log.Error("coupon build failed", logger.String("risk", string(risk)), logger.Error(err))
			}
			continue
		}
		if err := a.pub.PublishCoupon(ctx, coupon); err != nil {
			a.log.Error("coupon publish failed", logger.String("risk", string(risk)), logger.Error(err))
		}
	}
}
