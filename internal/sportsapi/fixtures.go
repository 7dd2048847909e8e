package sportsapi

import (
	"context"
	"time"

	"github.com/sakif/chatbet/internal/apperror"
	"github.com/sakif/chatbet/internal/model"
)

// fetchFixtures loads the pre-match fixture list for the user's sport.
// A zero timeout means the call is bounded only by ctx.
func (c *Client) fetchFixtures(ctx context.Context, prefs model.Preferences, op string, timeout time.Duration) ([]Fixture, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	params := sportParams(prefs)
	params.Set("type", "pre_match")
	params.Set("time_zone", "UTC")
	params.Set("language", "en")

	var fixtures []Fixture
	if err := c.getJSON(ctx, fixturesPath, params, &fixtures); err != nil {
		return nil, apperror.UpstreamUnavailable(op, err)
	}

	c.logger.Debug("fixtures fetched",
		"operation", op,
		"sport_id", prefs.SportID,
		"count", len(fixtures),
	)
	return fixtures, nil
}

// FixturesByTeams returns fixtures played between team1 and team2, in
// either home/away order. The lookup has no timeout of its own.
func (c *Client) FixturesByTeams(ctx context.Context, prefs model.Preferences, team1, team2 string) ([]Fixture, error) {
	fixtures, err := c.fetchFixtures(ctx, prefs, "fixtures by teams", 0)
	if err != nil {
		return nil, err
	}
	return FilterByTeams(fixtures, team1, team2), nil
}

// FixturesByTeam returns every fixture in which team plays home or away.
func (c *Client) FixturesByTeam(ctx context.Context, prefs model.Preferences, team string) ([]Fixture, error) {
	fixtures, err := c.fetchFixtures(ctx, prefs, "fixtures by team", c.timeout)
	if err != nil {
		return nil, err
	}
	return FilterByTeam(fixtures, team), nil
}

// FixturesByDate returns fixtures starting on date (YYYY-MM-DD, UTC).
func (c *Client) FixturesByDate(ctx context.Context, prefs model.Preferences, date string) ([]Fixture, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, apperror.ValidationFailed("date", "date must be formatted as YYYY-MM-DD")
	}

	fixtures, err := c.fetchFixtures(ctx, prefs, "fixtures by date", c.timeout)
	if err != nil {
		return nil, err
	}
	return c.filterByRange(fixtures, day, day), nil
}

// FixturesByDates returns fixtures starting on any day from date1 through
// date2, both inclusive.
func (c *Client) FixturesByDates(ctx context.Context, prefs model.Preferences, date1, date2 string) ([]Fixture, error) {
	from, err := time.Parse(DateLayout, date1)
	if err != nil {
		return nil, apperror.ValidationFailed("date_1", "date_1 must be formatted as YYYY-MM-DD")
	}
	to, err := time.Parse(DateLayout, date2)
	if err != nil {
		return nil, apperror.ValidationFailed("date_2", "date_2 must be formatted as YYYY-MM-DD")
	}
	if from.After(to) {
		return nil, apperror.ValidationFailed("date_1", "date_1 must not be after date_2")
	}

	fixtures, err := c.fetchFixtures(ctx, prefs, "fixtures by dates", c.timeout)
	if err != nil {
		return nil, err
	}
	return c.filterByRange(fixtures, from, to), nil
}

func (c *Client) filterByRange(fixtures []Fixture, from, to time.Time) []Fixture {
	matched, skipped := FilterByDateRange(fixtures, from, to, c.currentYear())
	if skipped > 0 {
		c.logger.Debug("fixtures with unparseable start time skipped", "count", skipped)
	}
	return matched
}

// FilterByTeams keeps fixtures whose {home, away} set equals {team1, team2}.
// Names are compared exactly.
func FilterByTeams(fixtures []Fixture, team1, team2 string) []Fixture {
	out := make([]Fixture, 0)
	for _, f := range fixtures {
		if (f.HomeTeam == team1 && f.AwayTeam == team2) || (f.HomeTeam == team2 && f.AwayTeam == team1) {
			out = append(out, f)
		}
	}
	return out
}

// FilterByTeam keeps fixtures in which team is the home or the away side.
func FilterByTeam(fixtures []Fixture, team string) []Fixture {
	out := make([]Fixture, 0)
	for _, f := range fixtures {
		if f.HomeTeam == team || f.AwayTeam == team {
			out = append(out, f)
		}
	}
	return out
}

// FilterByDateRange keeps fixtures that start on or after from (midnight)
// and before the end of the day to. Start times are resolved in year.
// It also reports how many fixtures had an unparseable start time.
func FilterByDateRange(fixtures []Fixture, from, to time.Time, year int) ([]Fixture, int) {
	start := midnight(from)
	end := midnight(to).AddDate(0, 0, 1)

	out := make([]Fixture, 0)
	skipped := 0
	for _, f := range fixtures {
		ts, err := f.StartsAt(year)
		if err != nil {
			skipped++
			continue
		}
		if !ts.Before(start) && ts.Before(end) {
			out = append(out, f)
		}
	}
	return out, skipped
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
