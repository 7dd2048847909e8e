package sportsapi

import (
	"context"
	"sync"

	"github.com/sakif/chatbet/internal/model"
)

// OddsForFixtures fetches odds for every fixture concurrently and returns
// the condensed payloads in completion order.
//
// A fixture whose request fails or times out is logged and left out; the
// caller sees N-K results for K failures. The only error returned is the
// cancellation of ctx itself.
func (c *Client) OddsForFixtures(ctx context.Context, prefs model.Preferences, fixtures []Fixture) ([]any, error) {
	results := make([]any, 0, len(fixtures))
	if len(fixtures) == 0 {
		return results, nil
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, f := range fixtures {
		wg.Add(1)
		go func(f Fixture) {
			defer wg.Done()

			payload, err := c.Odds(ctx, prefs, f)
			if err != nil {
				if ctx.Err() == nil {
					c.logger.Warn("odds unavailable, fixture dropped",
						"fixture_id", f.ID,
						"tournament_id", f.TournamentID,
						"error", err,
					)
				}
				return
			}
			if payload == nil {
				c.logger.Debug("empty odds payload dropped", "fixture_id", f.ID)
				return
			}

			mu.Lock()
			results = append(results, payload)
			mu.Unlock()
		}(f)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Debug("odds aggregated",
		"fixtures", len(fixtures),
		"results", len(results),
	)
	return results, nil
}
