package di

import (
	"context"
	"fmt"
	"time"

	drepo "github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/repository"
	domsvc "github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/service"
	internalrepo "github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/repository"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/service/sportsdata"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/services/engine"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/store"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/usecase"
	pkgcache "github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/cache"
	pkgch "github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/clickhouse"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/config"
	pkgkafka "github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/kafka"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/logger"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/metrics"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideCalibrationStore creates ClickHouse-backed calibration storage.
func ProvideCalibrationStore(chClient *pkgch.Client) drepo.CalibrationStore {
	return internalrepo.NewClickHouseCalibrationStore(chClient.DB())
}

// ProvidePublisher creates the output publisher: Kafka when enabled, a
// log-only publisher otherwise.
func ProvidePublisher(cfg *config.Config, log *logger.Logger) (drepo.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NewLogPublisher(log), nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return internalrepo.NewKafkaPublisher(
		producer,
		cfg.Kafka.PredictionTopic,
		cfg.Kafka.ValueBetTopic,
		cfg.Kafka.CouponTopic,
	), nil
}

// ProvideCache creates the shared cache: Redis when enabled, in-process
// memory otherwise. It backs both prediction memoization and refit locks.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideCalibrationCache creates the in-memory calibration view.
func ProvideCalibrationCache(calStore drepo.CalibrationStore, log *logger.Logger) *store.CalibrationCache {
	return store.NewCalibrationCache(calStore, log)
}

// ProvideMatchDataProvider creates the sports data API client.
func ProvideMatchDataProvider(cfg *config.Config) drepo.MatchDataProvider {
	return sportsdata.New(
		cfg.Provider.BaseURL,
		cfg.Provider.APIKey,
		cfg.Provider.Timeout,
		cfg.Provider.RateLimit,
		cfg.Provider.RateBurst,
	)
}

// ProvideEstimator creates the team strength estimator.
func ProvideEstimator(cfg *config.Config) domsvc.StrengthEstimator {
	return engine.NewEstimator(engine.StrengthParams{
		PriorMatches: cfg.Engine.PriorMatches,
	})
}

// ProvidePredictor creates the scoreline model.
func ProvidePredictor(cfg *config.Config) domsvc.Predictor {
	return engine.NewPoisson(engine.PoissonParams{
		MaxGoals:           cfg.Engine.MaxGoals,
		DrawCorrelation:    cfg.Engine.DrawCorrelation,
		FirstHalfShare:     cfg.Engine.FirstHalfShare,
		OverUnderLines:     cfg.Engine.OverUnderLines,
		CorrectScoreTop:    cfg.Engine.CorrectScoreTop,
		LambdaFloor:        cfg.Engine.LambdaFloor,
		LambdaCap:          cfg.Engine.LambdaCap,
		PartitionTolerance: cfg.Engine.PartitionTolerance,
	})
}

// ProvideValueFinder creates the value detector. Blend weights come from the
// calibration cache so refits take effect without a restart.
func ProvideValueFinder(cfg *config.Config, cals *store.CalibrationCache) domsvc.ValueFinder {
	return engine.NewFinder(engine.ValueParams{
		MinEdge:        cfg.Value.MinEdge,
		MinProbability: cfg.Value.MinProbability,
		MinOdds:        cfg.Value.MinOdds,
		MaxOdds:        cfg.Value.MaxOdds,
	}, cals.BlendWeight)
}

// ProvideCouponBuilder creates the coupon builder.
func ProvideCouponBuilder() domsvc.CouponBuilder {
	return engine.NewBuilder()
}

// ProvideFitter creates the calibration optimizer.
func ProvideFitter(cfg *config.Config) domsvc.Optimizer {
	return engine.NewFitter(engine.OptimizerParams{
		MinSamples:      cfg.Optimizer.MinSamples,
		MaxGoals:        cfg.Engine.MaxGoals,
		DrawCorrelation: cfg.Engine.DrawCorrelation,
	})
}

// ProvideScorer creates the backtest scorer.
func ProvideScorer() domsvc.Backtester {
	return engine.NewScorer()
}

// ProvideAnalyzer creates the batch analysis use case.
func ProvideAnalyzer(
	provider drepo.MatchDataProvider,
	calStore drepo.CalibrationStore,
	memo pkgcache.Service,
	cals *store.CalibrationCache,
	estimator domsvc.StrengthEstimator,
	predictor domsvc.Predictor,
	finder domsvc.ValueFinder,
	coupons domsvc.CouponBuilder,
	pub drepo.Publisher,
	m drepo.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.Analyzer {
	return usecase.NewAnalyzer(
		provider, calStore, memo, cals,
		estimator, predictor, finder, coupons,
		pub, m, log,
		usecase.AnalyzerConfig{
			Concurrency:   cfg.Batch.Concurrency,
			FormWindow:    cfg.Provider.FormWindow,
			PredictionTTL: cfg.Batch.PredictionTTL,
			CouponStake:   cfg.Coupon.DefaultStake,
			MaxSelections: cfg.Coupon.MaxSelections,
		},
	)
}

// ProvideSettler creates the settlement and refit use case. The shared cache
// doubles as the distributed refit lock.
func ProvideSettler(
	provider drepo.MatchDataProvider,
	calStore drepo.CalibrationStore,
	cals *store.CalibrationCache,
	scorer domsvc.Backtester,
	fitter domsvc.Optimizer,
	locks pkgcache.Service,
	m drepo.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.Settler {
	return usecase.NewSettler(
		provider, calStore, cals, scorer, fitter, locks, m, log,
		usecase.SettlerConfig{
			LookbackDays: cfg.Optimizer.LookbackDays,
			LockTTL:      cfg.Optimizer.LockTTL,
		},
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	analyzer *usecase.Analyzer,
	settler *usecase.Settler,
	cals *store.CalibrationCache,
	chClient *pkgch.Client,
	pub drepo.Publisher,
	memo pkgcache.Service,
) *server.App {
	return server.New(cfg, log, analyzer, settler, cals, chClient, pub, memo)
}
