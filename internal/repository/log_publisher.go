package repository

import (
	"context"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/repository"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/logger"
)

// LogPublisher implements Publisher by logging output summaries. Used when
// Kafka is disabled (local runs, tests against live data).
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher creates a log-only publisher.
func NewLogPublisher(log *logger.Logger) repository.Publisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishPredictions(_ context.Context, preds []*models.Prediction) error {
	p.log.Info("predictions ready", logger.Int("count", len(preds)))
	return nil
}

func (p *LogPublisher) PublishValueBets(_ context.Context, bets []models.ValueBet) error {
	for _, b := range bets {
		p.log.Info("value bet",
			logger.String("fixture", b.FixtureID),
			logger.String("market", string(b.Market)),
			logger.Float64("probability", b.ModelProbability),
			logger.Float64("odds", b.MarketOdds),
			logger.Float64("edge", b.Edge),
			logger.String("tier", string(b.Tier)))
	}
	return nil
}

func (p *LogPublisher) PublishCoupon(_ context.Context, coupon *models.Coupon) error {
	p.log.Info("coupon ready",
		logger.String("risk", string(coupon.Risk)),
		logger.Int("selections", len(coupon.Selections)),
		logger.Float64("combined_odds", coupon.CombinedOdds),
		logger.Float64("combined_probability", coupon.CombinedProbability))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
