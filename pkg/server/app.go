package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	drepo "github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/repository"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/store"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/usecase"
	pkgcache "github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/cache"
	pkgch "github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/clickhouse"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/config"
	applogger "github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/logger"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/util"
)

// App encapsulates the entire application lifecycle: scheduled analysis
// batches, daily settlement, periodic calibration refits and the metrics
// endpoint.
type App struct {
	cfg      *config.Config
	log      *applogger.Logger
	analyzer *usecase.Analyzer
	settler  *usecase.Settler
	cals     *store.CalibrationCache
	chClient *pkgch.Client
	pub      drepo.Publisher
	memo     pkgcache.Service

	metricsSrv *http.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	analyzer *usecase.Analyzer,
	settler *usecase.Settler,
	cals *store.CalibrationCache,
	chClient *pkgch.Client,
	pub drepo.Publisher,
	memo pkgcache.Service,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		analyzer: analyzer,
		settler:  settler,
		cals:     cals,
		chClient: chClient,
		pub:      pub,
		memo:     memo,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.cals.WarmUp(ctx, a.cfg.Provider.Leagues)
	a.log.Info("calibrations warmed", applogger.Strings("leagues", a.cfg.Provider.Leagues))

	if a.cfg.Metrics.Enabled {
		a.startMetrics()
	}

	go a.analysisLoop(ctx)
	go a.settlementLoop(ctx)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// analysisLoop runs a batch immediately, then on the configured interval.
func (a *App) analysisLoop(ctx context.Context) {
	a.runBatch(ctx)

	ticker := time.NewTicker(a.cfg.Batch.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runBatch(ctx)
		}
	}
}

func (a *App) runBatch(ctx context.Context) {
	if _, err := a.analyzer.AnalyzeDate(ctx, time.Now().UTC()); err != nil {
		a.log.Error("batch analysis failed", applogger.Error(err))
	}
}

// settlementLoop settles yesterday's fixtures and refits calibrations on the
// optimizer interval. Settlement always precedes the refit so fresh records
// are part of the fit.
func (a *App) settlementLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Optimizer.RefitInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Settle by calendar day so reruns within the interval cover
			// the same fixture set.
			yesterday, _ := util.DayBounds(time.Now().UTC().AddDate(0, 0, -1))
			if err := a.settler.SettleDate(ctx, yesterday); err != nil {
				a.log.Error("settlement failed", applogger.Error(err))
			}
			for _, leagueID := range a.cfg.Provider.Leagues {
				if err := a.settler.RefitLeague(ctx, leagueID); err != nil {
					a.log.Error("refit failed", applogger.String("league", leagueID), applogger.Error(err))
				}
			}
		}
	}
}

func (a *App) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle(a.cfg.Metrics.Path, promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if a.chClient != nil {
			if err := a.chClient.Health(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	a.metricsSrv = &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux}
	go func() {
		if err := a.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("metrics server error", applogger.Error(err))
		}
	}()
	a.log.Info("metrics server started", applogger.String("addr", a.cfg.Metrics.Addr))
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	if a.metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metricsSrv.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("metrics shutdown error", applogger.Error(err))
		}
	}

	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.memo != nil {
		if err := a.memo.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
