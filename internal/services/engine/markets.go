package engine

import (
	"sort"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
)

// outcomeTriple is the (home, draw, away) partition of one match stage.
type outcomeTriple struct {
	home, draw, away float64
}

// deriveMarkets reads every supported market off the scoreline matrix.
// All values are pure sums over matrix cells except HT/FT, which needs a
// second matrix at the first-half goal rates.
func (p *Poisson) deriveMarkets(m *models.ScorelineMatrix, lambdaHome, lambdaAway float64) map[models.Market]float64 {
	markets := make(map[models.Market]float64, 16+2*len(p.params.OverUnderLines)+p.params.CorrectScoreTop)

	full := matchOutcomes(m)
	markets[models.Market1X2Home] = full.home
	markets[models.Market1X2Draw] = full.draw
	markets[models.Market1X2Away] = full.away

	for _, line := range p.params.OverUnderLines {
		var over float64
		for i := range m.P {
			for j := range m.P[i] {
				if float64(i+j) > line {
					over += m.P[i][j]
				}
			}
		}
		markets[models.OverMarket(line)] = over
		markets[models.UnderMarket(line)] = 1 - over
	}

	var btts float64
	for i := 1; i <= m.MaxGoals; i++ {
		for j := 1; j <= m.MaxGoals; j++ {
			btts += m.P[i][j]
		}
	}
	markets[models.MarketBTTSYes] = btts
	markets[models.MarketBTTSNo] = 1 - btts

	// HT/FT treats the two stages as independent outcome draws: the half-time
	// state comes from a matrix at the first-half share of each goal rate.
	share := p.params.FirstHalfShare
	halfMatrix := p.buildHalfMatrix(lambdaHome*share, lambdaAway*share)
	half := matchOutcomes(halfMatrix)
	for _, ht := range []struct {
		code string
		p    float64
	}{{"1", half.home}, {"X", half.draw}, {"2", half.away}} {
		for _, ft := range []struct {
			code string
			p    float64
		}{{"1", full.home}, {"X", full.draw}, {"2", full.away}} {
			markets[models.HTFTMarket(ht.code, ft.code)] = ht.p * ft.p
		}
	}

	for _, cs := range topScorelines(m, p.params.CorrectScoreTop) {
		markets[models.CorrectScoreMarket(cs.home, cs.away)] = cs.prob
	}

	return markets
}

// buildHalfMatrix is buildMatrix without the low-score correction; the
// Dixon-Coles adjustment is fit on full-time scores only.
func (p *Poisson) buildHalfMatrix(lambdaHome, lambdaAway float64) *models.ScorelineMatrix {
	homeProbs := poissonVector(lambdaHome, p.params.MaxGoals)
	awayProbs := poissonVector(lambdaAway, p.params.MaxGoals)

	m := models.NewScorelineMatrix(p.params.MaxGoals)
	for i := range m.P {
		for j := range m.P[i] {
			m.P[i][j] = homeProbs[i] * awayProbs[j]
		}
	}
	renormalize(m)
	return m
}

// matchOutcomes folds a scoreline table into the win/draw/win triple.
func matchOutcomes(m *models.ScorelineMatrix) outcomeTriple {
	var t outcomeTriple
	for i := range m.P {
		for j := range m.P[i] {
			switch {
			case i > j:
				t.home += m.P[i][j]
			case i == j:
				t.draw += m.P[i][j]
			default:
				t.away += m.P[i][j]
			}
		}
	}
	return t
}

type scoreline struct {
	home, away int
	prob       float64
}

// topScorelines returns the n likeliest exact scores, probability descending.
// Ties break on the lower scoreline so output order is deterministic.
func topScorelines(m *models.ScorelineMatrix, n int) []scoreline {
	all := make([]scoreline, 0, (m.MaxGoals+1)*(m.MaxGoals+1))
	for i := range m.P {
		for j := range m.P[i] {
			all = append(all, scoreline{home: i, away: j, prob: m.P[i][j]})
		}
	}
	sort.Slice(all, func(a, b int) bool {
		if all[a].prob != all[b].prob {
			return all[a].prob > all[b].prob
		}
		if all[a].home != all[b].home {
			return all[a].home < all[b].home
		}
		return all[a].away < all[b].away
	})
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}
