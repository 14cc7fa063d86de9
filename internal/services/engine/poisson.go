package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/service"
)

// PoissonParams tunes the prediction engine.
type PoissonParams struct {
	// MaxGoals caps the scoreline table per side (>= 8 per the model's
	// truncation bound; mass beyond it is folded back by renormalization).
	MaxGoals int

	// DrawCorrelation is the Dixon-Coles rho correcting the independence
	// model's known bias on draws and low scores. Negative values boost
	// 0-0 and 1-1. Zero disables the correction.
	DrawCorrelation float64

	// FirstHalfShare is the fraction of a match's goal rate realized before
	// half time; drives the HT/FT sub-model.
	FirstHalfShare float64

	// OverUnderLines are the goal-line thresholds to derive, e.g. 0.5..4.5.
	OverUnderLines []float64

	// CorrectScoreTop is how many of the likeliest exact scorelines to emit.
	CorrectScoreTop int

	// LambdaFloor and LambdaCap bound the goal rates. The floor must be
	// strictly positive to avoid degenerate zero-rate distributions.
	LambdaFloor float64
	LambdaCap   float64

	// PartitionTolerance is the allowed deviation of a mutually exclusive
	// partition's probability sum from 1.
	PartitionTolerance float64
}

// Poisson is the prediction engine: independent Poisson scoreline model with
// a low-score dependence correction, truncation-renormalization and market
// derivation. Stateless and deterministic given its inputs.
type Poisson struct {
	params PoissonParams
}

// NewPoisson builds the engine with bounds applied to the parameters.
func NewPoisson(params PoissonParams) *Poisson {
	if params.MaxGoals < 8 {
		params.MaxGoals = 8
	}
	if params.FirstHalfShare <= 0 || params.FirstHalfShare >= 1 {
		params.FirstHalfShare = 0.45
	}
	if len(params.OverUnderLines) == 0 {
		params.OverUnderLines = []float64{0.5, 1.5, 2.5, 3.5, 4.5}
	}
	if params.CorrectScoreTop <= 0 {
		params.CorrectScoreTop = 5
	}
	if params.LambdaFloor <= 0 {
		params.LambdaFloor = 0.05
	}
	if params.LambdaCap <= params.LambdaFloor {
		params.LambdaCap = 8
	}
	if params.PartitionTolerance <= 0 {
		params.PartitionTolerance = 1e-6
	}
	return &Poisson{params: params}
}

// Predict builds the scoreline matrix and all derived markets for a fixture.
// The caller supplies strengths and a league calibration; unknown-league
// fallback is resolved upstream in the calibration store, so cal is never
// nil on the happy path.
func (p *Poisson) Predict(fixture *models.Fixture, home, away models.StrengthIndex, cal *models.LeagueCalibration) (*models.Prediction, error) {
	if fixture == nil || cal == nil {
		return nil, fmt.Errorf("%w: nil fixture or calibration", ErrInvalidInput)
	}
	if home.Attack <= 0 || home.Defense <= 0 || away.Attack <= 0 || away.Defense <= 0 {
		return nil, fmt.Errorf("%w: non-positive strength index for fixture %s", ErrInvalidInput, fixture.ID)
	}

	lambdaHomeBase := home.Attack * away.Defense * cal.AvgGoalsHome
	lambdaHome := p.clampLambda(lambdaHomeBase * cal.HomeAdvantage)
	lambdaAway := p.clampLambda(away.Attack * home.Defense * cal.AvgGoalsAway)

	matrix := p.buildMatrix(lambdaHome, lambdaAway)

	markets := p.deriveMarkets(matrix, lambdaHome, lambdaAway)
	if err := p.checkPartitions(markets); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", fixture.ID, err)
	}

	return &models.Prediction{
		FixtureID:      fixture.ID,
		LeagueID:       fixture.LeagueID,
		GeneratedAt:    time.Now().UTC(),
		LambdaHome:     lambdaHome,
		LambdaAway:     lambdaAway,
		HomeAdvantage:  cal.HomeAdvantage,
		LambdaHomeBase: lambdaHomeBase,
		Matrix:         matrix,
		Markets:        markets,
	}, nil
}

// buildMatrix constructs the joint table, applies the low-score correction
// and renormalizes the truncated mass back to 1.
func (p *Poisson) buildMatrix(lambdaHome, lambdaAway float64) *models.ScorelineMatrix {
	homeProbs := poissonVector(lambdaHome, p.params.MaxGoals)
	awayProbs := poissonVector(lambdaAway, p.params.MaxGoals)

	m := models.NewScorelineMatrix(p.params.MaxGoals)
	for i := range m.P {
		for j := range m.P[i] {
			m.P[i][j] = homeProbs[i] * awayProbs[j]
		}
	}

	if rho := p.params.DrawCorrelation; rho != 0 {
		m.P[0][0] *= 1 - lambdaHome*lambdaAway*rho
		m.P[0][1] *= 1 + lambdaHome*rho
		m.P[1][0] *= 1 + lambdaAway*rho
		m.P[1][1] *= 1 - rho
	}

	renormalize(m)
	return m
}

func (p *Poisson) clampLambda(v float64) float64 {
	if v < p.params.LambdaFloor {
		return p.params.LambdaFloor
	}
	if v > p.params.LambdaCap {
		return p.params.LambdaCap
	}
	return v
}

// checkPartitions verifies every mutually exclusive market partition sums to
// 1 within tolerance. A failure is fatal for the prediction.
func (p *Poisson) checkPartitions(markets map[models.Market]float64) error {
	tol := p.params.PartitionTolerance

	partitions := [][]models.Market{
		{models.Market1X2Home, models.Market1X2Draw, models.Market1X2Away},
		{models.MarketBTTSYes, models.MarketBTTSNo},
	}
	for _, line := range p.params.OverUnderLines {
		partitions = append(partitions, []models.Market{models.OverMarket(line), models.UnderMarket(line)})
	}
	htft := make([]models.Market, 0, 9)
	for _, ht := range []string{"1", "X", "2"} {
		for _, ft := range []string{"1", "X", "2"} {
			htft = append(htft, models.HTFTMarket(ht, ft))
		}
	}
	partitions = append(partitions, htft)

	for _, part := range partitions {
		var sum float64
		for _, mk := range part {
			sum += markets[mk]
		}
		if math.Abs(sum-1) > tol {
			return fmt.Errorf("%w: %s sums to %.9f", ErrInvariantViolation, part[0].Group(), sum)
		}
	}
	return nil
}

// poissonVector returns P(X=k) for k in [0, maxGoals] using the stable
// iterative recurrence p_k = p_{k-1} * lambda / k.
func poissonVector(lambda float64, maxGoals int) []float64 {
	probs := make([]float64, maxGoals+1)
	probs[0] = math.Exp(-lambda)
	for k := 1; k <= maxGoals; k++ {
		probs[k] = probs[k-1] * lambda / float64(k)
	}
	return probs
}

func renormalize(m *models.ScorelineMatrix) {
	total := m.Sum()
	if total <= 0 {
		return
	}
	for i := range m.P {
		for j := range m.P[i] {
			m.P[i][j] /= total
		}
	}
}

var _ service.Predictor = (*Poisson)(nil)
