package engine

import (
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/service"
)

// StrengthParams tunes the shrinkage estimator.
type StrengthParams struct {
	// PriorMatches is the k in w = n/(n+k); roughly how many matches a team
	// needs before its own sample outweighs the league average.
	PriorMatches float64

	// MinIndex and MaxIndex clamp the resulting multipliers. The floor keeps
	// indices strictly positive so downstream goal rates never degenerate.
	MinIndex float64
	MaxIndex float64
}

// Estimator derives per-venue attack/defense multipliers from a team's
// recent-form window, shrunk toward the league average.
type Estimator struct {
	params StrengthParams
}

// NewEstimator builds an estimator, applying sane bounds to the parameters.
func NewEstimator(params StrengthParams) *Estimator {
	if params.PriorMatches <= 0 {
		params.PriorMatches = 8
	}
	if params.MinIndex <= 0 {
		params.MinIndex = 0.1
	}
	if params.MaxIndex <= params.MinIndex {
		params.MaxIndex = 5
	}
	return &Estimator{params: params}
}

// Estimate computes the StrengthIndex for one team at one venue.
//
// Rates are opponent-adjusted: a goal scored against a stingy defense counts
// for more than one against a leaky defense, and a goal conceded to a strong
// attack is blamed less. The adjusted rates are normalized by the league
// scoring averages so 1.0 always means "league average", then blended with
// that baseline by w = n/(n+k). A team with no history comes out at exactly
// the baseline (w=0), so estimation never fails on unseen teams.
func (e *Estimator) Estimate(form *models.TeamForm, cal *models.LeagueCalibration) models.StrengthIndex {
	avgFor, avgAgainst := venueAverages(form, cal)

	n := 0
	var adjFor, adjAgainst float64
	if form != nil {
		for _, m := range form.Matches {
			if m.GoalsFor < 0 || m.GoalsAgainst < 0 {
				continue // unsettled entries; a recorded 0 is a valid count
			}
			oppDefense := m.OpponentDefense
			if oppDefense <= 0 {
				oppDefense = 1
			}
			oppAttack := m.OpponentAttack
			if oppAttack <= 0 {
				oppAttack = 1
			}
			adjFor += float64(m.GoalsFor) / oppDefense
			adjAgainst += float64(m.GoalsAgainst) / oppAttack
			n++
		}
	}

	if n == 0 {
		// Pure league average: multiplier 1 on both sides.
		return models.StrengthIndex{Attack: 1, Defense: 1, SampleSize: 0, ShrinkWeight: 0}
	}

	rawAttack := (adjFor / float64(n)) / avgFor
	rawDefense := (adjAgainst / float64(n)) / avgAgainst

	w := float64(n) / (float64(n) + e.params.PriorMatches)
	attack := rawAttack*w + (1 - w)
	defense := rawDefense*w + (1 - w)

	return models.StrengthIndex{
		Attack:       e.clamp(attack),
		Defense:      e.clamp(defense),
		SampleSize:   n,
		ShrinkWeight: w,
	}
}

func (e *Estimator) clamp(v float64) float64 {
	if v < e.params.MinIndex {
		return e.params.MinIndex
	}
	if v > e.params.MaxIndex {
		return e.params.MaxIndex
	}
	return v
}

// venueAverages picks the league scoring baselines for the form's venue.
// Home and away windows never contaminate each other; a home form window is
// normalized only against home scoring rates.
func venueAverages(form *models.TeamForm, cal *models.LeagueCalibration) (avgFor, avgAgainst float64) {
	avgFor, avgAgainst = 1.35, 1.1
	if cal != nil && cal.AvgGoalsHome > 0 && cal.AvgGoalsAway > 0 {
		avgFor, avgAgainst = cal.AvgGoalsHome, cal.AvgGoalsAway
	}
	if form != nil && form.Venue == models.VenueAway {
		avgFor, avgAgainst = avgAgainst, avgFor
	}
	return avgFor, avgAgainst
}

var _ service.StrengthEstimator = (*Estimator)(nil)
