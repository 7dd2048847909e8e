package sportsapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	// startTimeLayout is the upstream start time format. It has no year.
	startTimeLayout = "01-02 15:04"
	// DateLayout is the date format used by tool inputs.
	DateLayout = "2006-01-02"
)

// Fixture is a scheduled pre-match event. Only the fields used for filtering
// and odds lookups are decoded; the full upstream object is kept and
// marshalled back verbatim so the agent sees everything the API returned.
type Fixture struct {
	ID           string
	TournamentID string
	HomeTeam     string
	AwayTeam     string
	StartTime    string

	raw json.RawMessage
}

type wireTeam struct {
	Name struct {
		En string `json:"en"`
	} `json:"name"`
}

type wireFixture struct {
	ID           flexID   `json:"id"`
	TournamentID flexID   `json:"tournament_id"`
	StartTime    string   `json:"startTime"`
	HomeTeamData wireTeam `json:"home_team_data"`
	AwayTeamData wireTeam `json:"away_team_data"`
}

func (f *Fixture) UnmarshalJSON(data []byte) error {
	var w wireFixture
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding fixture: %w", err)
	}
	*f = Fixture{
		ID:           string(w.ID),
		TournamentID: string(w.TournamentID),
		HomeTeam:     w.HomeTeamData.Name.En,
		AwayTeam:     w.AwayTeamData.Name.En,
		StartTime:    w.StartTime,
		raw:          append(json.RawMessage(nil), data...),
	}
	return nil
}

func (f Fixture) MarshalJSON() ([]byte, error) {
	if len(f.raw) > 0 {
		return f.raw, nil
	}
	w := map[string]any{
		"id":             f.ID,
		"tournament_id":  f.TournamentID,
		"startTime":      f.StartTime,
		"home_team_data": map[string]any{"name": map[string]string{"en": f.HomeTeam}},
		"away_team_data": map[string]any{"name": map[string]string{"en": f.AwayTeam}},
	}
	return json.Marshal(w)
}

// StartsAt resolves the fixture's start time in the given year (UTC).
//
// The upstream reports only month, day and time; callers pass the current
// year, so fixtures that cross a year boundary resolve to the wrong year.
func (f Fixture) StartsAt(year int) (time.Time, error) {
	t, err := time.ParseInLocation(startTimeLayout, f.StartTime, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing start time %q: %w", f.StartTime, err)
	}
	ts := time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	// 02-29 parses in leap year 0 but does not exist in every year.
	if ts.Month() != t.Month() || ts.Day() != t.Day() {
		return time.Time{}, fmt.Errorf("start time %q does not exist in %d", f.StartTime, year)
	}
	return ts, nil
}

// flexID accepts an identifier encoded as either a JSON string or number.
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*id = flexID(s)
	default:
		*id = flexID(data)
	}
	return nil
}
