package engine

import (
	"sort"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/service"
)

// ValueParams tunes value-bet detection.
type ValueParams struct {
	// MinEdge is the minimum edge (modelProb*odds - 1) to flag a bet.
	MinEdge float64

	// MinProbability filters out longshots whose edge is mostly model noise.
	MinProbability float64

	// MinOdds and MaxOdds bound the acceptable decimal odds per selection.
	MinOdds float64
	MaxOdds float64

	// HighEdge/HighProbability and MediumEdge/MediumProbability set the
	// confidence tier cutoffs.
	HighEdge          float64
	HighProbability   float64
	MediumEdge        float64
	MediumProbability float64
}

// BlendFunc resolves the model-vs-market blend weight for a league and
// market group. 1 means trust the model fully.
type BlendFunc func(leagueID, marketGroup string) float64

// Finder flags markets where the blended model probability beats the
// bookmaker's fair (vig-removed) price.
type Finder struct {
	params   ValueParams
	blendFor BlendFunc
}

// NewFinder builds a finder. blendFor may be nil, in which case the model
// probability is used unblended.
func NewFinder(params ValueParams, blendFor BlendFunc) *Finder {
	if params.MinEdge <= 0 {
		params.MinEdge = 0.03
	}
	if params.MinProbability <= 0 {
		params.MinProbability = 0.05
	}
	if params.MinOdds <= 1 {
		params.MinOdds = 1.1
	}
	if params.MaxOdds <= params.MinOdds {
		params.MaxOdds = 15
	}
	if params.HighEdge <= 0 {
		params.HighEdge = 0.10
	}
	if params.HighProbability <= 0 {
		params.HighProbability = 0.50
	}
	if params.MediumEdge <= 0 {
		params.MediumEdge = 0.05
	}
	if params.MediumProbability <= 0 {
		params.MediumProbability = 0.30
	}
	return &Finder{params: params, blendFor: blendFor}
}

// Find compares the prediction against an odds snapshot and returns the
// flagged bets, best edge first. Markets with no quoted odds are skipped;
// odds <= 1 are rejected as malformed.
func (f *Finder) Find(pred *models.Prediction, odds map[models.Market]float64) []models.ValueBet {
	if pred == nil || len(odds) == 0 {
		return nil
	}

	fair := fairProbabilities(odds)

	bets := make([]models.ValueBet, 0, 4)
	for market, quoted := range odds {
		if quoted <= 1 || quoted < f.params.MinOdds || quoted > f.params.MaxOdds {
			continue
		}
		modelProb, ok := pred.Markets[market]
		if !ok {
			continue
		}

		prob := modelProb
		if f.blendFor != nil {
			if implied, has := fair[market]; has && implied > 0 {
				w := clamp01(f.blendFor(pred.LeagueID, market.Group()))
				prob = w*modelProb + (1-w)*implied
			}
		}
		if prob < f.params.MinProbability {
			continue
		}

		edge := prob*quoted - 1
		if edge < f.params.MinEdge {
			continue
		}

		bets = append(bets, models.ValueBet{
			FixtureID:        pred.FixtureID,
			LeagueID:         pred.LeagueID,
			Market:           market,
			ModelProbability: prob,
			MarketOdds:       quoted,
			Edge:             edge,
			Tier:             f.tier(edge, prob),
		})
	}

	sort.Slice(bets, func(a, b int) bool {
		if bets[a].Edge != bets[b].Edge {
			return bets[a].Edge > bets[b].Edge
		}
		return bets[a].Market < bets[b].Market
	})
	return bets
}

func (f *Finder) tier(edge, prob float64) models.ConfidenceTier {
	switch {
	case edge >= f.params.HighEdge && prob >= f.params.HighProbability:
		return models.TierHigh
	case edge >= f.params.MediumEdge && prob >= f.params.MediumProbability:
		return models.TierMedium
	default:
		return models.TierLow
	}
}

// fairProbabilities removes the bookmaker's overround group by group: raw
// implied probabilities (1/odds) within each market group are scaled to sum
// to 1. Groups priced incompletely (e.g. only one side quoted) are scaled by
// whatever is present, which still cancels the margin on two-way markets.
func fairProbabilities(odds map[models.Market]float64) map[models.Market]float64 {
	groupSums := make(map[string]float64, 4)
	raw := make(map[models.Market]float64, len(odds))
	for market, quoted := range odds {
		if quoted <= 1 {
			continue
		}
		implied := 1 / quoted
		raw[market] = implied
		groupSums[market.Group()] += implied
	}

	fair := make(map[models.Market]float64, len(raw))
	for market, implied := range raw {
		if sum := groupSums[market.Group()]; sum > 0 {
			fair[market] = implied / sum
		}
	}
	return fair
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ service.ValueFinder = (*Finder)(nil)
