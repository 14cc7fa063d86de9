package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/service"
)

// Scorer settles stored predictions against finished fixtures and emits the
// append-only records the optimizer fits on, plus an aggregate report.
type Scorer struct{}

func NewScorer() *Scorer { return &Scorer{} }

// Score walks the fixtures, resolves every settleable market of each stored
// prediction and accumulates Brier / log-loss / calibration buckets.
// Postponed and abandoned fixtures, and fixtures with no stored prediction,
// are counted as skipped, never as errors.
func (s *Scorer) Score(fixtures []models.Fixture, lookup func(fixtureID string) *models.Prediction, now time.Time) ([]models.CalibrationRecord, *models.BacktestReport) {
	report := &models.BacktestReport{}
	buckets := newBuckets()

	var (
		records        []models.CalibrationRecord
		sumBrier       float64
		sumLogLoss     float64
		scoredOutcomes int
	)

	for _, fx := range fixtures {
		if !fx.Scorable() {
			report.Skipped++
			continue
		}
		pred := lookup(fx.ID)
		if pred == nil {
			report.Skipped++
			continue
		}
		if report.LeagueID == "" {
			report.LeagueID = fx.LeagueID
		}

		// Older stored predictions predate the explicit base rate; recover
		// it by division there, accepting the clamp error.
		lambdaBase := pred.LambdaHomeBase
		if lambdaBase <= 0 && pred.HomeAdvantage > 0 {
			lambdaBase = pred.LambdaHome / pred.HomeAdvantage
		}
		fair := fairProbabilities(pred.Odds)

		settledAny := false
		for _, market := range sortedMarkets(pred.Markets) {
			outcome, ok := settleMarket(market, fx.HomeGoals, fx.AwayGoals)
			if !ok {
				continue
			}
			prob := pred.Markets[market]

			records = append(records, models.CalibrationRecord{
				FixtureID:            fx.ID,
				LeagueID:             fx.LeagueID,
				Market:               market,
				PredictedProbability: prob,
				Outcome:              outcome,
				Timestamp:            now,
				LambdaHomeBase:       lambdaBase,
				LambdaAway:           pred.LambdaAway,
				ImpliedProbability:   fair[market],
				ActualHomeGoals:      fx.HomeGoals,
				ActualAwayGoals:      fx.AwayGoals,
			})

			diff := prob - float64(outcome)
			sumBrier += diff * diff
			sumLogLoss += logLoss(prob, outcome)
			buckets.add(prob, outcome)
			scoredOutcomes++
			settledAny = true
		}

		if settledAny {
			report.Scored++
		} else {
			report.Skipped++
		}
	}

	if scoredOutcomes > 0 {
		report.Brier = sumBrier / float64(scoredOutcomes)
		report.LogLoss = sumLogLoss / float64(scoredOutcomes)
	}
	report.Buckets = buckets.finalize()
	return records, report
}

// settleMarket resolves a market proposition against the final score.
// HT/FT cannot be settled without a half-time score and reports false.
func settleMarket(market models.Market, homeGoals, awayGoals int) (int, bool) {
	group := market.Group()
	switch {
	case group == "1X2":
		switch market {
		case models.Market1X2Home:
			return boolToOutcome(homeGoals > awayGoals), true
		case models.Market1X2Draw:
			return boolToOutcome(homeGoals == awayGoals), true
		case models.Market1X2Away:
			return boolToOutcome(homeGoals < awayGoals), true
		}
		return 0, false

	case group == "BTTS":
		both := homeGoals > 0 && awayGoals > 0
		if market == models.MarketBTTSYes {
			return boolToOutcome(both), true
		}
		return boolToOutcome(!both), true

	case strings.HasPrefix(group, "OU"):
		line, err := strconv.ParseFloat(group[2:], 64)
		if err != nil {
			return 0, false
		}
		over := float64(homeGoals+awayGoals) > line
		if market == models.OverMarket(line) {
			return boolToOutcome(over), true
		}
		return boolToOutcome(!over), true

	case group == "CS":
		var h, a int
		if _, err := fmt.Sscanf(string(market), "CS:%d-%d", &h, &a); err != nil {
			return 0, false
		}
		return boolToOutcome(homeGoals == h && awayGoals == a), true
	}
	return 0, false
}

func boolToOutcome(b bool) int {
	if b {
		return 1
	}
	return 0
}

// sortedMarkets fixes the record emission order; map iteration is not stable.
func sortedMarkets(markets map[models.Market]float64) []models.Market {
	keys := make([]models.Market, 0, len(markets))
	for m := range markets {
		keys = append(keys, m)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a] < keys[b] })
	return keys
}

// calibrationBuckets accumulates the decile calibration curve.
type calibrationBuckets struct {
	count   [10]int
	sumPred [10]float64
	sumHit  [10]int
}

func newBuckets() *calibrationBuckets { return &calibrationBuckets{} }

func (c *calibrationBuckets) add(prob float64, outcome int) {
	idx := int(prob * 10)
	if idx > 9 {
		idx = 9
	}
	if idx < 0 {
		idx = 0
	}
	c.count[idx]++
	c.sumPred[idx] += prob
	c.sumHit[idx] += outcome
}

// finalize emits only populated deciles.
func (c *calibrationBuckets) finalize() []models.CalibrationBucket {
	out := make([]models.CalibrationBucket, 0, 10)
	for i := 0; i < 10; i++ {
		if c.count[i] == 0 {
			continue
		}
		n := float64(c.count[i])
		out = append(out, models.CalibrationBucket{
			Low:           float64(i) / 10,
			High:          float64(i+1) / 10,
			Count:         c.count[i],
			MeanPredicted: c.sumPred[i] / n,
			ObservedRate:  float64(c.sumHit[i]) / n,
		})
	}
	return out
}

var _ service.Backtester = (*Scorer)(nil)
