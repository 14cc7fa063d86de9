package store

import (
	"context"
	"testing"
	"time"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
)

func TestLeagueFallsBackToDefault(t *testing.T) {
	c := NewCalibrationCache(nil, nil)

	cal := c.League(context.Background(), "XX9")
	if cal.LeagueID != "XX9" {
		t.Fatalf("league id = %s", cal.LeagueID)
	}
	if cal.HomeAdvantage != DefaultCalibration.HomeAdvantage {
		t.Fatalf("expected default home advantage, got %v", cal.HomeAdvantage)
	}
	if cal.Version != 0 {
		t.Fatalf("default must carry version 0, got %d", cal.Version)
	}
}

func TestSwapRejectsStaleVersion(t *testing.T) {
	c := NewCalibrationCache(nil, nil)

	v2 := &models.LeagueCalibration{LeagueID: "TR1", HomeAdvantage: 1.3, Version: 2, FittedAt: time.Now()}
	if !c.Swap(v2) {
		t.Fatalf("fresh swap rejected")
	}
	v1 := &models.LeagueCalibration{LeagueID: "TR1", HomeAdvantage: 1.1, Version: 1}
	if c.Swap(v1) {
		t.Fatalf("stale swap accepted")
	}

	got := c.League(context.Background(), "TR1")
	if got.Version != 2 || got.HomeAdvantage != 1.3 {
		t.Fatalf("reader sees %+v, want version 2", got)
	}
}

func TestSwapIsWholeRecord(t *testing.T) {
	c := NewCalibrationCache(nil, nil)
	c.Swap(&models.LeagueCalibration{LeagueID: "TR1", HomeAdvantage: 1.2, AvgGoalsHome: 1.4, Version: 1})

	before := c.League(context.Background(), "TR1")
	c.Swap(&models.LeagueCalibration{LeagueID: "TR1", HomeAdvantage: 1.5, AvgGoalsHome: 1.6, Version: 2})

	// The pointer handed out before the swap still shows the old record in
	// full; it never mutates under the reader.
	if before.HomeAdvantage != 1.2 || before.AvgGoalsHome != 1.4 {
		t.Fatalf("pre-swap record mutated: %+v", before)
	}
	after := c.League(context.Background(), "TR1")
	if after.HomeAdvantage != 1.5 || after.AvgGoalsHome != 1.6 {
		t.Fatalf("post-swap record incomplete: %+v", after)
	}
}

func TestBlendWeightDefaultsToModel(t *testing.T) {
	c := NewCalibrationCache(nil, nil)
	if w := c.BlendWeight("TR1", "1X2"); w != 1 {
		t.Fatalf("unfitted blend weight = %v, want 1", w)
	}

	c.SwapMarket(&models.MarketCalibration{LeagueID: "TR1", MarketGroup: "1X2", BlendWeight: 0.7, Version: 1})
	if w := c.BlendWeight("TR1", "1X2"); w != 0.7 {
		t.Fatalf("blend weight = %v, want 0.7", w)
	}
	if w := c.BlendWeight("TR1", "BTTS"); w != 1 {
		t.Fatalf("other group must stay at 1, got %v", w)
	}
}
