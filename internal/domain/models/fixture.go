package models

import "time"

// FixtureStatus follows the provider's lifecycle: scheduled -> live -> finished.
// Postponed and abandoned fixtures are excluded from scoring, never treated as losses.
type FixtureStatus string

const (
	StatusScheduled FixtureStatus = "scheduled"
	StatusLive      FixtureStatus = "live"
	StatusFinished  FixtureStatus = "finished"
	StatusPostponed FixtureStatus = "postponed"
	StatusAbandoned FixtureStatus = "abandoned"
)

// Venue distinguishes home and away samples; strength indices are estimated
// per venue with no cross-venue contamination.
type Venue string

const (
	VenueHome Venue = "home"
	VenueAway Venue = "away"
)

// Fixture identifies a single match. Immutable once created; status and final
// score are updated externally by the data provider.
type Fixture struct {
	ID         string        `json:"id"`
	HomeTeamID string        `json:"homeTeamId"`
	AwayTeamID string        `json:"awayTeamId"`
	LeagueID   string        `json:"leagueId"`
	Kickoff    time.Time     `json:"kickoff"`
	Status     FixtureStatus `json:"status"`

	// Final score; -1 until the fixture is finished.
	HomeGoals int `json:"homeGoals"`
	AwayGoals int `json:"awayGoals"`
}

// Finished reports whether the fixture has a settled result.
func (f *Fixture) Finished() bool {
	return f.Status == StatusFinished && f.HomeGoals >= 0 && f.AwayGoals >= 0
}

// Scorable reports whether the fixture may be scored by the backtester.
func (f *Fixture) Scorable() bool {
	return f.Finished() && f.Status != StatusPostponed && f.Status != StatusAbandoned
}

// MatchResult is one historical match from a team's perspective.
// A 0 goal count is a legal value, not missing data.
type MatchResult struct {
	FixtureID    string    `json:"fixtureId"`
	TeamID       string    `json:"teamId"`
	OpponentID   string    `json:"opponentId"`
	Venue        Venue     `json:"venue"`
	GoalsFor     int       `json:"goalsFor"`
	GoalsAgainst int       `json:"goalsAgainst"`
	PlayedAt     time.Time `json:"playedAt"`

	// Opponent strength at the time of the match; zero means unknown and is
	// normalized to the league baseline during estimation.
	OpponentAttack  float64 `json:"opponentAttack"`
	OpponentDefense float64 `json:"opponentDefense"`
}

// TeamForm is a bounded-recency window of a team's finished matches at one
// venue. Always derived fresh from provider data, never persisted.
type TeamForm struct {
	TeamID  string
	Venue   Venue
	Matches []MatchResult
}

// StrengthIndex holds per-venue attack/defense multipliers relative to the
// league average. Values are strictly positive; ShrinkWeight is the blend
// weight given to the raw sample (0 for unseen teams).
type StrengthIndex struct {
	Attack       float64 `json:"attack"`
	Defense      float64 `json:"defense"`
	SampleSize   int     `json:"sampleSize"`
	ShrinkWeight float64 `json:"shrinkWeight"`
}
