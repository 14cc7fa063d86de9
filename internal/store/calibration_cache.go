package store

import (
	"context"
	"sync"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/repository"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/logger"
)

// DefaultCalibration is the global fallback for leagues never fitted before.
// A fresh league predicts with these until the optimizer has enough records.
var DefaultCalibration = models.LeagueCalibration{
	HomeAdvantage: 1.25,
	AvgGoalsHome:  1.35,
	AvgGoalsAway:  1.1,
	Version:       0,
}

// CalibrationCache is the in-process view of league and market calibrations.
// Updates replace whole records under the write lock, so a reader binds to
// exactly one committed version for the duration of a prediction; there is no
// partially updated state to observe. Read-through to the persistent store on
// miss, global default when the store has nothing either.
type CalibrationCache struct {
	store repository.CalibrationStore
	log   *logger.Logger

	mu      sync.RWMutex
	leagues map[string]*models.LeagueCalibration
	markets map[string]*models.MarketCalibration
}

// NewCalibrationCache creates the cache. store may be nil in tests; every
// lookup then resolves to the default.
func NewCalibrationCache(store repository.CalibrationStore, log *logger.Logger) *CalibrationCache {
	return &CalibrationCache{
		store:   store,
		log:     log,
		leagues: make(map[string]*models.LeagueCalibration),
		markets: make(map[string]*models.MarketCalibration),
	}
}

// League returns the committed calibration for a league. Never fails: a
// store error or absent row degrades to the global default, logged once per
// lookup. The returned pointer is shared and must be treated as read-only.
func (c *CalibrationCache) League(ctx context.Context, leagueID string) *models.LeagueCalibration {
	c.mu.RLock()
	cal, ok := c.leagues[leagueID]
	c.mu.RUnlock()
	if ok {
		return cal
	}

	loaded := c.loadLeague(ctx, leagueID)

	c.mu.Lock()
	// Another goroutine may have won the read-through; keep the newer one.
	if cur, ok := c.leagues[leagueID]; ok && cur.Version >= loaded.Version {
		loaded = cur
	} else {
		c.leagues[leagueID] = loaded
	}
	c.mu.Unlock()
	return loaded
}

// BlendWeight returns the committed model/market blend weight for a league
// and market group, or 1 (trust the model fully) when none was ever fitted.
func (c *CalibrationCache) BlendWeight(leagueID, marketGroup string) float64 {
	c.mu.RLock()
	cal, ok := c.markets[leagueID+"|"+marketGroup]
	c.mu.RUnlock()
	if !ok {
		return 1
	}
	return cal.BlendWeight
}

// Swap commits a new league calibration. Stale versions are rejected so a
// slow refit can never clobber a newer one.
func (c *CalibrationCache) Swap(cal *models.LeagueCalibration) bool {
	if cal == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.leagues[cal.LeagueID]; ok && cur.Version >= cal.Version {
		if c.log != nil {
			c.log.Warn("stale calibration swap rejected",
				logger.String("league", cal.LeagueID),
				logger.Int64("current", cur.Version),
				logger.Int64("offered", cal.Version))
		}
		return false
	}
	c.leagues[cal.LeagueID] = cal
	return true
}

// SwapMarket commits a new market calibration with the same staleness rule.
func (c *CalibrationCache) SwapMarket(cal *models.MarketCalibration) bool {
	if cal == nil {
		return false
	}
	key := cal.LeagueID + "|" + cal.MarketGroup

	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.markets[key]; ok && cur.Version >= cal.Version {
		return false
	}
	c.markets[key] = cal
	return true
}

// WarmUp preloads calibrations for the configured leagues so the first batch
// does not pay read-through latency per fixture.
func (c *CalibrationCache) WarmUp(ctx context.Context, leagueIDs []string) {
	for _, id := range leagueIDs {
		c.League(ctx, id)
		if c.store == nil {
			continue
		}
		for _, group := range []string{"1X2", "OU2.5", "BTTS"} {
			mc, err := c.store.LoadMarketCalibration(ctx, id, group)
			if err != nil || mc == nil {
				continue
			}
			c.SwapMarket(mc)
		}
	}
}

func (c *CalibrationCache) loadLeague(ctx context.Context, leagueID string) *models.LeagueCalibration {
	if c.store != nil {
		cal, err := c.store.LoadCalibration(ctx, leagueID)
		if err != nil && c.log != nil {
			c.log.Warn("calibration load failed, using default",
				logger.String("league", leagueID), logger.Error(err))
		}
		if err == nil && cal != nil {
			return cal
		}
	}
	def := DefaultCalibration
	def.LeagueID = leagueID
	return &def
}
