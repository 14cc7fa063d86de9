package sportsdata

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/models"
	drepo "github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/domain/repository"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/internal/service/ratelimit"
	pkghttp "github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/http"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/util"
)

// Client implements MatchDataProvider against the sports data REST API.
// Requests pass through a per-endpoint token bucket so batch analysis cannot
// trip the provider's quota.
type Client struct {
	baseURL string
	apiKey  string
	http    *pkghttp.Client
	limiter *ratelimit.Limiter
}

// New creates a new provider client.
func New(baseURL, apiKey string, timeout time.Duration, rateLimit float64, rateBurst int) drepo.MatchDataProvider {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		limiter: ratelimit.New(rateLimit, rateBurst),
	}
}

type apiFixture struct {
	ID         string `json:"id"`
	HomeTeamID string `json:"homeTeamId"`
	AwayTeamID string `json:"awayTeamId"`
	LeagueID   string `json:"leagueId"`
	Kickoff    string `json:"kickoff"` // RFC3339 or unix seconds, feed-dependent
	Status     string `json:"status"`
	HomeGoals  *int   `json:"homeGoals"`
	AwayGoals  *int   `json:"awayGoals"`
}

type apiMatch struct {
	FixtureID    string  `json:"fixtureId"`
	TeamID       string  `json:"teamId"`
	OpponentID   string  `json:"opponentId"`
	Venue        string  `json:"venue"`
	GoalsFor     int     `json:"goalsFor"`
	GoalsAgainst int     `json:"goalsAgainst"`
	PlayedAt     string  `json:"playedAt"`
	OppAttack    float64 `json:"opponentAttack"`
	OppDefense   float64 `json:"opponentDefense"`
}

type apiOdds struct {
	Markets map[string]float64 `json:"markets"` // market name -> decimal odds
}

// GetFixturesByDate lists fixtures kicking off on the given calendar day.
func (c *Client) GetFixturesByDate(ctx context.Context, date time.Time) ([]models.Fixture, error) {
	if err := c.limiter.Wait(ctx, "fixtures"); err != nil {
		return nil, err
	}

	var payload struct {
		Fixtures []apiFixture `json:"fixtures"`
	}
	req := &pkghttp.Request{
		URL:     c.baseURL + "/fixtures",
		Headers: c.authHeaders(),
		Query:   url.Values{"date": {date.UTC().Format("2006-01-02")}},
	}
	if err := c.http.GetJSON(ctx, req, &payload); err != nil {
		return nil, fmt.Errorf("fixtures by date: %w", err)
	}

	fixtures := make([]models.Fixture, 0, len(payload.Fixtures))
	for _, f := range payload.Fixtures {
		fixtures = append(fixtures, toFixture(f))
	}
	return fixtures, nil
}

// GetTeamRecentMatches returns the team's last finished matches at one venue,
// newest first, at most window entries.
func (c *Client) GetTeamRecentMatches(ctx context.Context, teamID string, venue models.Venue, window int) ([]models.MatchResult, error) {
	if err := c.limiter.Wait(ctx, "matches"); err != nil {
		return nil, err
	}

	var payload struct {
		Matches []apiMatch `json:"matches"`
	}
	req := &pkghttp.Request{
		URL:     fmt.Sprintf("%s/teams/%s/matches", c.baseURL, teamID),
		Headers: c.authHeaders(),
		Query: url.Values{
			"venue": {string(venue)},
			"limit": {fmt.Sprintf("%d", window)},
		},
	}
	if err := c.http.GetJSON(ctx, req, &payload); err != nil {
		return nil, fmt.Errorf("recent matches for %s: %w", teamID, err)
	}

	matches := make([]models.MatchResult, 0, len(payload.Matches))
	for _, m := range payload.Matches {
		matches = append(matches, models.MatchResult{
			FixtureID:       m.FixtureID,
			TeamID:          m.TeamID,
			OpponentID:      m.OpponentID,
			Venue:           models.Venue(m.Venue),
			GoalsFor:        m.GoalsFor,
			GoalsAgainst:    m.GoalsAgainst,
			PlayedAt:        util.ParseTimeDefault(m.PlayedAt, time.Time{}).UTC(),
			OpponentAttack:  m.OppAttack,
			OpponentDefense: m.OppDefense,
		})
	}
	return matches, nil
}

// GetOdds returns the bookmaker's decimal odds snapshot for a fixture.
// An empty map (fixture not priced yet) is not an error.
func (c *Client) GetOdds(ctx context.Context, fixtureID string) (map[models.Market]float64, error) {
	if err := c.limiter.Wait(ctx, "odds"); err != nil {
		return nil, err
	}

	var payload apiOdds
	req := &pkghttp.Request{
		URL:     fmt.Sprintf("%s/fixtures/%s/odds", c.baseURL, fixtureID),
		Headers: c.authHeaders(),
	}
	if err := c.http.GetJSON(ctx, req, &payload); err != nil {
		return nil, fmt.Errorf("odds for %s: %w", fixtureID, err)
	}

	odds := make(map[models.Market]float64, len(payload.Markets))
	for name, price := range payload.Markets {
		odds[models.Market(name)] = price
	}
	return odds, nil
}

func (c *Client) authHeaders() map[string]string {
	return map[string]string{"X-API-Key": c.apiKey}
}

func toFixture(f apiFixture) models.Fixture {
	fixture := models.Fixture{
		ID:         f.ID,
		HomeTeamID: f.HomeTeamID,
		AwayTeamID: f.AwayTeamID,
		LeagueID:   f.LeagueID,
		Kickoff:    util.ParseTimeDefault(f.Kickoff, time.Time{}).UTC(),
		Status:     models.FixtureStatus(f.Status),
		HomeGoals:  -1,
		AwayGoals:  -1,
	}
	if f.HomeGoals != nil {
		fixture.HomeGoals = *f.HomeGoals
	}
	if f.AwayGoals != nil {
		fixture.AwayGoals = *f.AwayGoals
	}
	return fixture
}
