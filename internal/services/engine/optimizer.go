package engine

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/service"
)

// logLossEpsilon clamps probabilities before taking logs so a confidently
// wrong prediction scores a large finite penalty instead of +Inf.
const logLossEpsilon = 1e-6

// OptimizerParams tunes the calibration fitter.
type OptimizerParams struct {
	// MinSamples is the settled-fixture count below which a refit is refused
	// and the prior calibration kept. Fixtures, not records: one fixture
	// contributes several market records.
	MinSamples int

	// Home-advantage search grid. The step granularity also defines the
	// idempotence guarantee: refitting on unchanged records lands on the
	// same grid point.
	HomeAdvantageMin  float64
	HomeAdvantageMax  float64
	HomeAdvantageStep float64

	// BlendStep is the [0,1] grid granularity for market blend weights.
	BlendStep float64

	// MaxGoals and DrawCorrelation shape the scoreline tables rebuilt during
	// the search. They must match the serving engine's parameters; otherwise
	// the objective scores a different model than the one generating
	// predictions.
	MaxGoals        int
	DrawCorrelation float64
}

// Fitter refits per-league model parameters by deterministic grid search,
// minimizing mean log-loss over stored prediction/outcome records. Ties
// resolve to the smaller candidate so repeated fits on the same data are
// stable.
type Fitter struct {
	params OptimizerParams

	// rescorer rebuilds scoreline tables from stored base rates under
	// candidate parameters, with the serving engine's draw correction.
	rescorer *Poisson
}

func NewFitter(params OptimizerParams) *Fitter {
	if params.MinSamples <= 0 {
		params.MinSamples = 30
	}
	if params.HomeAdvantageMin < 1 {
		params.HomeAdvantageMin = 1.0
	}
	if params.HomeAdvantageMax <= params.HomeAdvantageMin {
		params.HomeAdvantageMax = 1.8
	}
	if params.HomeAdvantageStep <= 0 {
		params.HomeAdvantageStep = 0.05
	}
	if params.BlendStep <= 0 {
		params.BlendStep = 0.05
	}
	if params.MaxGoals < 8 {
		params.MaxGoals = 10
	}
	return &Fitter{
		params: params,
		rescorer: NewPoisson(PoissonParams{
			MaxGoals:        params.MaxGoals,
			DrawCorrelation: params.DrawCorrelation,
		}),
	}
}

// Fit searches the home-advantage grid and refreshes the league goal
// averages from settled scores. The prior is never mutated; the result is a
// new record with the version advanced.
func (f *Fitter) Fit(ctx context.Context, leagueID string, records []models.CalibrationRecord, prior *models.LeagueCalibration) (*models.LeagueCalibration, error) {
	usable := usableRecords(records)
	avgHome, avgAway, fixtures := leagueGoalAverages(usable)
	if fixtures < f.params.MinSamples {
		return nil, fmt.Errorf("%w: league %s has %d settled fixtures, need %d",
			ErrInsufficientSample, leagueID, fixtures, f.params.MinSamples)
	}

	bestHA, bestLoss := f.params.HomeAdvantageMin, math.Inf(1)
	for ha := f.params.HomeAdvantageMin; ha <= f.params.HomeAdvantageMax+1e-9; ha += f.params.HomeAdvantageStep {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loss := f.homeAdvantageLoss(usable, ha)
		if loss < bestLoss {
			bestHA, bestLoss = ha, loss
		}
	}

	version := int64(1)
	if prior != nil {
		version = prior.Version + 1
	}
	return &models.LeagueCalibration{
		LeagueID:      leagueID,
		HomeAdvantage: roundToStep(bestHA, f.params.HomeAdvantageStep),
		AvgGoalsHome:  avgHome,
		AvgGoalsAway:  avgAway,
		Version:       version,
		FittedAt:      time.Now().UTC(),
		SampleCount:   fixtures,
	}, nil
}

// FitBlend searches the blend grid for one (league, market group). Records
// without a market-implied probability carry no blend signal and are skipped.
func (f *Fitter) FitBlend(ctx context.Context, leagueID, marketGroup string, records []models.CalibrationRecord, prior *models.MarketCalibration) (*models.MarketCalibration, error) {
	var usable []models.CalibrationRecord
	for _, r := range records {
		if r.Market.Group() == marketGroup && r.ImpliedProbability > 0 {
			usable = append(usable, r)
		}
	}
	if n := distinctFixtures(usable); n < f.params.MinSamples {
		return nil, fmt.Errorf("%w: league %s group %s has %d settled fixtures with odds, need %d",
			ErrInsufficientSample, leagueID, marketGroup, n, f.params.MinSamples)
	}

	bestW, bestLoss := 0.0, math.Inf(1)
	for w := 0.0; w <= 1+1e-9; w += f.params.BlendStep {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var total float64
		for _, r := range usable {
			blended := w*r.PredictedProbability + (1-w)*r.ImpliedProbability
			total += logLoss(blended, r.Outcome)
		}
		if loss := total / float64(len(usable)); loss < bestLoss {
			bestW, bestLoss = w, loss
		}
	}

	version := int64(1)
	if prior != nil {
		version = prior.Version + 1
	}
	return &models.MarketCalibration{
		LeagueID:    leagueID,
		MarketGroup: marketGroup,
		BlendWeight: roundToStep(clamp01(bestW), f.params.BlendStep),
		Version:     version,
		FittedAt:    time.Now().UTC(),
		SampleCount: len(usable),
	}, nil
}

// homeAdvantageLoss re-evaluates each record's market under a candidate home
// advantage by rebuilding the scoreline table from the stored base rates.
func (f *Fitter) homeAdvantageLoss(records []models.CalibrationRecord, ha float64) float64 {
	var total float64
	n := 0
	for _, r := range records {
		matrix := f.rescorer.buildMatrix(r.LambdaHomeBase*ha, r.LambdaAway)
		prob, ok := marketProbability(matrix, r.Market)
		if !ok {
			continue
		}
		total += logLoss(prob, r.Outcome)
		n++
	}
	if n == 0 {
		return math.Inf(1)
	}
	return total / float64(n)
}

// usableRecords drops records that cannot be re-evaluated: missing base
// rates, unsettled scores, or market groups the search does not rescore.
func usableRecords(records []models.CalibrationRecord) []models.CalibrationRecord {
	out := make([]models.CalibrationRecord, 0, len(records))
	for _, r := range records {
		if r.LambdaHomeBase <= 0 || r.LambdaAway <= 0 {
			continue
		}
		if r.ActualHomeGoals < 0 || r.ActualAwayGoals < 0 {
			continue
		}
		if !rescorable(r.Market) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func rescorable(m models.Market) bool {
	group := m.Group()
	return group == "1X2" || group == "BTTS" || group == "CS" || strings.HasPrefix(group, "OU")
}

func distinctFixtures(records []models.CalibrationRecord) int {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		seen[r.FixtureID] = struct{}{}
	}
	return len(seen)
}

// leagueGoalAverages refreshes the per-venue scoring baselines from settled
// scores, counting each fixture once regardless of how many markets were
// recorded for it.
func leagueGoalAverages(records []models.CalibrationRecord) (avgHome, avgAway float64, fixtures int) {
	seen := make(map[string]struct{}, len(records))
	var homeGoals, awayGoals int
	for _, r := range records {
		if _, dup := seen[r.FixtureID]; dup {
			continue
		}
		seen[r.FixtureID] = struct{}{}
		homeGoals += r.ActualHomeGoals
		awayGoals += r.ActualAwayGoals
	}
	fixtures = len(seen)
	if fixtures == 0 {
		return 1.35, 1.1, 0
	}
	return float64(homeGoals) / float64(fixtures), float64(awayGoals) / float64(fixtures), fixtures
}

// marketProbability reads one market's probability off a scoreline table.
// HT/FT is not rescorable from full-time data and reports false.
func marketProbability(m *models.ScorelineMatrix, market models.Market) (float64, bool) {
	group := market.Group()
	switch {
	case group == "1X2":
		t := matchOutcomes(m)
		switch market {
		case models.Market1X2Home:
			return t.home, true
		case models.Market1X2Draw:
			return t.draw, true
		case models.Market1X2Away:
			return t.away, true
		}
		return 0, false

	case group == "BTTS":
		var btts float64
		for i := 1; i <= m.MaxGoals; i++ {
			for j := 1; j <= m.MaxGoals; j++ {
				btts += m.P[i][j]
			}
		}
		if market == models.MarketBTTSYes {
			return btts, true
		}
		return 1 - btts, true

	case strings.HasPrefix(group, "OU"):
		line, err := strconv.ParseFloat(group[2:], 64)
		if err != nil {
			return 0, false
		}
		var over float64
		for i := range m.P {
			for j := range m.P[i] {
				if float64(i+j) > line {
					over += m.P[i][j]
				}
			}
		}
		if market == models.OverMarket(line) {
			return over, true
		}
		return 1 - over, true

	case group == "CS":
		var h, a int
		if _, err := fmt.Sscanf(string(market), "CS:%d-%d", &h, &a); err != nil {
			return 0, false
		}
		return m.At(h, a), true
	}
	return 0, false
}

func logLoss(prob float64, outcome int) float64 {
	if prob < logLossEpsilon {
		prob = logLossEpsilon
	}
	if prob > 1-logLossEpsilon {
		prob = 1 - logLossEpsilon
	}
	if outcome == 1 {
		return -math.Log(prob)
	}
	return -math.Log(1 - prob)
}

// roundToStep snaps a grid-walked value back onto an exact multiple of step,
// canceling float accumulation error from the walk.
func roundToStep(v, step float64) float64 {
	return math.Round(v/step) * step
}

var _ service.Optimizer = (*Fitter)(nil)
