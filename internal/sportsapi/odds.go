package sportsapi

import (
	"context"

	"github.com/sakif/chatbet/internal/apperror"
	"github.com/sakif/chatbet/internal/model"
)

// Odds fetches and condenses the odds of one fixture. The result is nil when
// the upstream returned nothing worth keeping.
func (c *Client) Odds(ctx context.Context, prefs model.Preferences, f Fixture) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := sportParams(prefs)
	params.Set("fixtureId", f.ID)
	params.Set("tournamentId", f.TournamentID)
	params.Set("amount", "1")

	var payload any
	if err := c.getJSON(ctx, oddsPath, params, &payload); err != nil {
		return nil, apperror.UpstreamUnavailable("odds for fixture "+f.ID, err)
	}

	return Condense(payload), nil
}
