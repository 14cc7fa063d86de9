package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
	drepo "github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/repository"
	domsvc "github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/service"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/services/engine"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/store"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/cache"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/logger"
)

// refitGroups are the market groups that get their own blend weight.
var refitGroups = []string{"1X2", "OU2.5", "BTTS"}

// SettlerConfig bounds settlement and refitting.
type SettlerConfig struct {
	LookbackDays int
	LockTTL      time.Duration
}

// Settler closes the loop: settled fixtures are scored against their stored
// predictions, records appended, and league calibrations refit on schedule.
type Settler struct {
	provider drepo.MatchDataProvider
	calStore drepo.CalibrationStore
	cals     *store.CalibrationCache
	scorer   domsvc.Backtester
	fitter   domsvc.Optimizer
	locks    cache.Service
	metrics  drepo.Metrics
	log      *logger.Logger
	cfg      SettlerConfig
}

// NewSettler creates the settlement usecase.
func NewSettler(
	provider drepo.MatchDataProvider,
	calStore drepo.CalibrationStore,
	cals *store.CalibrationCache,
	scorer domsvc.Backtester,
	fitter domsvc.Optimizer,
	locks cache.Service,
	metrics drepo.Metrics,
	log *logger.Logger,
	cfg SettlerConfig,
) *Settler {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 180
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &Settler{
		provider: provider,
		calStore: calStore,
		cals:     cals,
		scorer:   scorer,
		fitter:   fitter,
		locks:    locks,
		metrics:  metrics,
		log:      log,
		cfg:      cfg,
	}
}

// SettleDate scores the day's finished fixtures against stored predictions
// and appends the resulting calibration records, league by league.
func (s *Settler) SettleDate(ctx context.Context, date time.Time) error {
	fixtures, err := s.provider.GetFixturesByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("fixtures for %s: %w", date.Format("2006-01-02"), err)
	}

	byLeague := make(map[string][]models.Fixture)
	for _, fx := range fixtures {
		byLeague[fx.LeagueID] = append(byLeague[fx.LeagueID], fx)
	}

	now := time.Now().UTC()
	for leagueID, group := range byLeague {
		records, report := s.scorer.Score(group, func(fixtureID string) *models.Prediction {
			pred, lerr := s.calStore.LoadPrediction(ctx, fixtureID)
			if lerr != nil {
				s.log.Warn("stored prediction load failed",
					logger.String("fixture", fixtureID), logger.Error(lerr))
				return nil
			}
			return pred
		}, now)

		if len(records) == 0 {
			continue
		}
		if err := s.calStore.AppendCalibrationRecords(ctx, records); err != nil {
			s.log.Error("append calibration records failed",
				logger.String("league", leagueID), logger.Error(err))
			continue
		}

		s.metrics.RecordDrift(leagueID, report.Brier, report.LogLoss)
		s.log.Info("settlement pass",
			logger.String("league", leagueID),
			logger.Int("scored", report.Scored),
			logger.Int("skipped", report.Skipped),
			logger.Float64("brier", report.Brier),
			logger.Float64("log_loss", report.LogLoss))
	}
	return nil
}

// RefitLeague refits a league's calibration and blend weights from the
// record history. A distributed lock keeps concurrent instances from
// fitting the same league; losing the lock is a silent skip.
func (s *Settler) RefitLeague(ctx context.Context, leagueID string) error {
	lockKey := "refit:" + leagueID
	acquired, err := s.locks.TryLock(ctx, lockKey, s.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("refit lock for %s: %w", leagueID, err)
	}
	if !acquired {
		s.log.Debug("refit already in progress", logger.String("league", leagueID))
		return nil
	}
	defer func() {
		if uerr := s.locks.Unlock(ctx, lockKey); uerr != nil {
			s.log.Warn("refit unlock failed", logger.String("league", leagueID), logger.Error(uerr))
		}
	}()

	since := time.Now().UTC().AddDate(0, 0, -s.cfg.LookbackDays)
	records, err := s.calStore.LoadCalibrationRecords(ctx, leagueID, since)
	if err != nil {
		s.metrics.RecordOptimizerFit(leagueID, "error")
		return fmt.Errorf("load records for %s: %w", leagueID, err)
	}

	prior := s.cals.League(ctx, leagueID)
	fitted, err := s.fitter.Fit(ctx, leagueID, records, prior)
	if err != nil {
		if errors.Is(err, engine.ErrInsufficientSample) {
			// Keep the prior; the league simply has not played enough.
			s.metrics.RecordOptimizerFit(leagueID, "skipped")
			s.log.Info("refit skipped", logger.String("league", leagueID), logger.Error(err))
			return nil
		}
		s.metrics.RecordOptimizerFit(leagueID, "error")
		return fmt.Errorf("fit %s: %w", leagueID, err)
	}

	if err := s.calStore.SaveCalibration(ctx, fitted); err != nil {
		s.metrics.RecordOptimizerFit(leagueID, "error")
		return fmt.Errorf("save calibration for %s: %w", leagueID, err)
	}
	s.cals.Swap(fitted)
	s.metrics.RecordOptimizerFit(leagueID, "ok")
	s.log.Info("calibration refit",
		logger.String("league", leagueID),
		logger.Int64("version", fitted.Version),
		logger.Float64("home_advantage", fitted.HomeAdvantage),
		logger.Int("samples", fitted.SampleCount))

	s.refitBlends(ctx, leagueID, records)
	return nil
}

func (s *Settler) refitBlends(ctx context.Context, leagueID string, records []models.CalibrationRecord) {
	for _, group := range refitGroups {
		prior, err := s.calStore.LoadMarketCalibration(ctx, leagueID, group)
		if err != nil {
			s.log.Warn("market calibration load failed",
				logger.String("league", leagueID), logger.String("group", group), logger.Error(err))
			continue
		}

		fitted, err := s.fitter.FitBlend(ctx, leagueID, group, records, prior)
		if err != nil {
			if !errors.Is(err, engine.ErrInsufficientSample) {
				s.log.Error("blend refit failed",
					logger.String("league", leagueID), logger.String("group", group), logger.Error(err))
			}
			continue
		}
		if err := s.calStore.SaveMarketCalibration(ctx, fitted); err != nil {
			s.log.Error("blend save failed",
				logger.String("league", leagueID), logger.String("group", group), logger.Error(err))
			continue
		}
		s.cals.SwapMarket(fitted)
		s.log.Info("blend refit",
			logger.String("league", leagueID),
			logger.String("group", group),
			logger.Float64("weight", fitted.BlendWeight))
	}
}
