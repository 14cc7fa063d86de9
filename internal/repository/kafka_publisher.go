package repository

import (
	"context"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/repository"
	pkgkafka "github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka. Messages are keyed by
// fixture so consumers see per-fixture ordering.
type KafkaPublisher struct {
	producer        *pkgkafka.Producer
	predictionTopic string
	valueBetTopic   string
	couponTopic     string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, predictionTopic, valueBetTopic, couponTopic string) repository.Publisher {
	return &KafkaPublisher{
		producer:        producer,
		predictionTopic: predictionTopic,
		valueBetTopic:   valueBetTopic,
		couponTopic:     couponTopic,
	}
}

func (p *KafkaPublisher) PublishPredictions(ctx context.Context, preds []*models.Prediction) error {
	if len(preds) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(preds))
	for _, pred := range preds {
		if pred == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(pred.FixtureID),
			Value: pred,
		})
	}
	return p.producer.PublishBatch(ctx, p.predictionTopic, msgs)
}

func (p *KafkaPublisher) PublishValueBets(ctx context.Context, bets []models.ValueBet) error {
	if len(bets) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(bets))
	for i, bet := range bets {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(bet.FixtureID),
			Value: bet,
		}
	}
	return p.producer.PublishBatch(ctx, p.valueBetTopic, msgs)
}

func (p *KafkaPublisher) PublishCoupon(ctx context.Context, coupon *models.Coupon) error {
	if coupon == nil || len(coupon.Selections) == 0 {
		return nil
	}
	return p.producer.Publish(ctx, p.couponTopic, []byte(coupon.Selections[0].FixtureID), coupon)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
