package sportsapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFixtureList(n int) []Fixture {
	fixtures := make([]Fixture, 0, n)
	for i := 1; i <= n; i++ {
		fixtures = append(fixtures, Fixture{
			ID:           fmt.Sprint(i),
			TournamentID: "t1",
			HomeTeam:     fmt.Sprintf("Home %d", i),
			AwayTeam:     fmt.Sprintf("Away %d", i),
			StartTime:    "06-15 18:00",
		})
	}
	return fixtures
}

func oddsHandler(calls *atomic.Int32, fail map[string]int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		id := r.URL.Query().Get("fixtureId")
		if status, ok := fail[id]; ok {
			w.WriteHeader(status)
			return
		}
		fmt.Fprintf(w, `{"fixtureId": %s, "outcomes": [{"name": "1", "odds": 1.5, "profit": 1.5, "betId": %s0}]}`, id, id)
	}
}

func TestOddsRequest(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		io.WriteString(w, `{"name": "1", "odds": 2, "profit": 2, "betId": 77, "x": null}`)
	})

	payload, err := c.Odds(context.Background(), basketball, Fixture{ID: "101", TournamentID: "55"})
	require.NoError(t, err)

	q := got.URL.Query()
	assert.Equal(t, oddsPath, got.URL.Path)
	assert.Equal(t, "3", q.Get("sportId"))
	assert.Equal(t, "101", q.Get("fixtureId"))
	assert.Equal(t, "55", q.Get("tournamentId"))
	assert.Equal(t, "1", q.Get("amount"))
	assert.JSONEq(t, `{"name": "1", "odds": 2, "betId": 77}`, encode(t, payload))
}

func TestOddsForFixturesNoFixtures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, oddsHandler(&calls, nil))

	got, err := c.OddsForFixtures(context.Background(), basketball, nil)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, calls.Load())
}

func TestOddsForFixturesPartialFailure(t *testing.T) {
	tests := []struct {
		name string
		n    int
		fail map[string]int
	}{
		{name: "all succeed", n: 5},
		{name: "one fails", n: 5, fail: map[string]int{"3": http.StatusInternalServerError}},
		{name: "several fail", n: 6, fail: map[string]int{"1": http.StatusBadGateway, "4": http.StatusNotFound, "6": http.StatusServiceUnavailable}},
		{name: "all fail", n: 3, fail: map[string]int{"1": 500, "2": 500, "3": 500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, oddsHandler(&calls, tt.fail))

			got, err := c.OddsForFixtures(context.Background(), basketball, testFixtureList(tt.n))

			require.NoError(t, err)
			assert.Len(t, got, tt.n-len(tt.fail))
			assert.Equal(t, int32(tt.n), calls.Load(), "one request per fixture")
		})
	}
}

func TestOddsForFixturesDropsEmptyPayloads(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fixtureId") == "2" {
			io.WriteString(w, `{"markets": [], "info": null}`)
			return
		}
		io.WriteString(w, `{"ok": true}`)
	})

	got, err := c.OddsForFixtures(context.Background(), basketball, testFixtureList(3))

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestOddsForFixturesTimeoutDropsOnlySlowFixture(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fixtureId") == "2" {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		io.WriteString(w, `{"ok": true}`)
	})
	c.timeout = 50 * time.Millisecond

	got, err := c.OddsForFixtures(context.Background(), basketball, testFixtureList(3))

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestOddsForFixturesCancelled(t *testing.T) {
	started := make(chan struct{}, 3)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	got, err := c.OddsForFixtures(ctx, basketball, testFixtureList(3))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}
