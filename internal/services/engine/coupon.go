package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/service"
)

// riskProfile bounds one coupon risk category: the per-leg probability floor
// and the target combined-odds window.
type riskProfile struct {
	minProbability float64
	minCombined    float64
	maxCombined    float64
}

var riskProfiles = map[models.RiskCategory]riskProfile{
	models.RiskSafe:       {minProbability: 0.65, minCombined: 1.5, maxCombined: 3},
	models.RiskBalanced:   {minProbability: 0.50, minCombined: 3, maxCombined: 10},
	models.RiskAggressive: {minProbability: 0.35, minCombined: 10, maxCombined: 100},
}

// Builder assembles coupons from flagged value bets. Selection is greedy and
// deterministic: legs are ranked by probability, one leg per fixture, and
// added while the combined odds stay inside the risk window.
type Builder struct{}

func NewBuilder() *Builder { return &Builder{} }

// Build assembles a coupon or returns ErrNoValidCoupon when no subset of the
// candidates lands in the risk category's combined-odds window.
func (b *Builder) Build(candidates []models.ValueBet, risk models.RiskCategory, stake float64, maxSelections int) (*models.Coupon, error) {
	profile, ok := riskProfiles[risk]
	if !ok {
		return nil, fmt.Errorf("%w: unknown risk category %q", ErrInvalidInput, risk)
	}
	if stake <= 0 {
		return nil, fmt.Errorf("%w: stake must be positive", ErrInvalidInput)
	}
	if maxSelections <= 0 {
		maxSelections = 4
	}

	legs := b.eligible(candidates, profile)
	if len(legs) == 0 {
		return nil, ErrNoValidCoupon
	}

	var (
		picked       []models.Selection
		combinedOdds = 1.0
		combinedProb = 1.0
	)
	for _, leg := range legs {
		if len(picked) == maxSelections {
			break
		}
		if combinedOdds*leg.MarketOdds > profile.maxCombined {
			continue
		}
		picked = append(picked, models.Selection{
			FixtureID:   leg.FixtureID,
			Market:      leg.Market,
			Probability: leg.ModelProbability,
			Odds:        leg.MarketOdds,
		})
		combinedOdds *= leg.MarketOdds
		combinedProb *= leg.ModelProbability
	}

	if len(picked) == 0 || combinedOdds < profile.minCombined {
		return nil, ErrNoValidCoupon
	}

	return &models.Coupon{
		Selections:          picked,
		CombinedOdds:        combinedOdds,
		CombinedProbability: combinedProb,
		Stake:               stake,
		Risk:                risk,
		CreatedAt:           time.Now().UTC(),
	}, nil
}

// eligible filters by the probability floor, keeps the best leg per fixture
// (correlated legs on one fixture would break the independence assumption
// behind the combined probability) and ranks by probability descending.
func (b *Builder) eligible(candidates []models.ValueBet, profile riskProfile) []models.ValueBet {
	bestPerFixture := make(map[string]models.ValueBet, len(candidates))
	for _, c := range candidates {
		if c.ModelProbability < profile.minProbability || c.MarketOdds <= 1 {
			continue
		}
		cur, seen := bestPerFixture[c.FixtureID]
		if !seen || c.Edge > cur.Edge || (c.Edge == cur.Edge && c.Market < cur.Market) {
			bestPerFixture[c.FixtureID] = c
		}
	}

	legs := make([]models.ValueBet, 0, len(bestPerFixture))
	for _, c := range bestPerFixture {
		legs = append(legs, c)
	}
	sort.Slice(legs, func(a, b int) bool {
		if legs[a].ModelProbability != legs[b].ModelProbability {
			return legs[a].ModelProbability > legs[b].ModelProbability
		}
		return legs[a].FixtureID < legs[b].FixtureID
	})
	return legs
}

var _ service.CouponBuilder = (*Builder)(nil)
