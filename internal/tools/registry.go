// Package tools exposes the sports-data operations to the agent as seven
// named tools with validated inputs.
//
// A Registry is built for a single chat turn. It captures that turn's user
// preferences by value, so concurrent turns for different users never share
// sport selection.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"time"

	adktool "google.golang.org/adk/tool"

	"github.com/sakif/chatbet/internal/apperror"
	"github.com/sakif/chatbet/internal/model"
	"github.com/sakif/chatbet/internal/sportsapi"
)

// Tool names, as the model sees them.
const (
	FixturesByTeams = "get_fixtures_by_teams"
	FixturesByTeam  = "get_fixtures_by_team"
	FixturesByDate  = "get_fixtures_by_date"
	FixturesByDates = "get_fixtures_by_dates"
	OddsByTeams     = "check_odds_by_teams"
	OddsByDate      = "check_odds_by_date"
	OddsByDates     = "check_odds_by_dates"
)

// FixtureSource is the upstream data the tools are built on.
// *sportsapi.Client implements it.
type FixtureSource interface {
	FixturesByTeams(ctx context.Context, prefs model.Preferences, team1, team2 string) ([]sportsapi.Fixture, error)
	FixturesByTeam(ctx context.Context, prefs model.Preferences, team string) ([]sportsapi.Fixture, error)
	FixturesByDate(ctx context.Context, prefs model.Preferences, date string) ([]sportsapi.Fixture, error)
	FixturesByDates(ctx context.Context, prefs model.Preferences, date1, date2 string) ([]sportsapi.Fixture, error)
	OddsForFixtures(ctx context.Context, prefs model.Preferences, fixtures []sportsapi.Fixture) ([]any, error)
}

var _ FixtureSource = (*sportsapi.Client)(nil)

// Definition describes a tool to the model.
type Definition struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Required    []string `json:"required"`
}

type entry struct {
	def    Definition
	invoke func(ctx context.Context, raw json.RawMessage) (any, error)
	adk    func(def Definition) (adktool.Tool, error)
}

// Registry holds the tools of one chat turn.
type Registry struct {
	source FixtureSource
	prefs  model.Preferences
	logger *slog.Logger

	entries []entry
	byName  map[string]entry

	mu  sync.Mutex
	err error
}

// NewRegistry builds the seven tools bound to source and prefs.
func NewRegistry(source FixtureSource, prefs model.Preferences, logger *slog.Logger) *Registry {
	r := &Registry{
		source: source,
		prefs:  prefs,
		logger: logger,
		byName: make(map[string]entry),
	}

	r.add(define(r, FixturesByTeams,
		"Get sports fixtures data for a match between two specified teams",
		func(ctx context.Context, in TeamPairInput) (any, error) {
			return r.source.FixturesByTeams(ctx, r.prefs, in.Team1, in.Team2)
		}))
	r.add(define(r, FixturesByTeam,
		"Get sports fixtures data for one specified team",
		func(ctx context.Context, in TeamInput) (any, error) {
			return r.source.FixturesByTeam(ctx, r.prefs, in.Team)
		}))
	r.add(define(r, FixturesByDate,
		"Get sports fixtures data for one specified date",
		func(ctx context.Context, in DateInput) (any, error) {
			return r.source.FixturesByDate(ctx, r.prefs, in.Date)
		}))
	r.add(define(r, FixturesByDates,
		"Get sports fixtures data within specified date range",
		func(ctx context.Context, in DateRangeInput) (any, error) {
			return r.source.FixturesByDates(ctx, r.prefs, in.Date1, in.Date2)
		}))
	r.add(define(r, OddsByTeams,
		"Get betting odds for specified teams",
		func(ctx context.Context, in TeamPairInput) (any, error) {
			fixtures, err := r.source.FixturesByTeams(ctx, r.prefs, in.Team1, in.Team2)
			if err != nil {
				return nil, err
			}
			return r.source.OddsForFixtures(ctx, r.prefs, fixtures)
		}))
	r.add(define(r, OddsByDate,
		"Get betting odds for specified date",
		func(ctx context.Context, in DateInput) (any, error) {
			fixtures, err := r.source.FixturesByDate(ctx, r.prefs, in.Date)
			if err != nil {
				return nil, err
			}
			return r.source.OddsForFixtures(ctx, r.prefs, fixtures)
		}))
	r.add(define(r, OddsByDates,
		"Get betting odds within specified date range",
		func(ctx context.Context, in DateRangeInput) (any, error) {
			fixtures, err := r.source.FixturesByDates(ctx, r.prefs, in.Date1, in.Date2)
			if err != nil {
				return nil, err
			}
			return r.source.OddsForFixtures(ctx, r.prefs, fixtures)
		}))

	return r
}

func (r *Registry) add(e entry) {
	r.entries = append(r.entries, e)
	r.byName[e.def.Name] = e
}

// Definitions lists the tools in registration order.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.entries))
	for _, e := range r.entries {
		defs = append(defs, e.def)
	}
	return defs
}

// Invoke runs the named tool with JSON-encoded arguments. Unknown tools,
// malformed or unexpected arguments and invalid values are rejected with
// apperror.ErrValidation before anything is fetched.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, apperror.ValidationFailed("tool", fmt.Sprintf("unknown tool %q", name))
	}
	return e.invoke(ctx, args)
}

// Err returns the first upstream failure seen by any tool of this registry.
// The turn that owns the registry fails when it is set.
func (r *Registry) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Registry) recordFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

// run validates in and calls fn, recording upstream failures.
func run[In Input](ctx context.Context, r *Registry, name string, in In, fn func(context.Context, In) (any, error)) (any, error) {
	if err := in.Validate(); err != nil {
		r.logger.Debug("tool input rejected", "tool", name, "error", err)
		return nil, err
	}

	start := time.Now()
	result, err := fn(ctx, in)
	if err != nil {
		if errors.Is(err, apperror.ErrUpstream) {
			r.recordFailure(err)
		}
		r.logger.Warn("tool failed", "tool", name, "error", err)
		return nil, err
	}

	r.logger.Info("tool invoked",
		"tool", name,
		"results", resultCount(result),
		"duration", time.Since(start),
	)
	return result, nil
}

func define[In Input](r *Registry, name, description string, fn func(context.Context, In) (any, error)) entry {
	var zero In
	return entry{
		def: Definition{
			Name:        name,
			Description: description,
			Required:    jsonFields(zero),
		},
		invoke: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in In
			if err := decodeStrict(raw, &in); err != nil {
				return nil, apperror.ValidationFailed("arguments", fmt.Sprintf("invalid arguments for %s: %v", name, err))
			}
			return run(ctx, r, name, in, fn)
		},
		adk: func(def Definition) (adktool.Tool, error) {
			return newADKTool[In](r, def)
		},
	}
}

func decodeStrict(raw json.RawMessage, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after arguments")
	}
	return nil
}

// jsonFields returns the JSON names of the struct fields of v.
func jsonFields(v any) []string {
	t := reflect.TypeOf(v)
	fields := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			fields = append(fields, name)
		}
	}
	return fields
}

func resultCount(v any) int {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		return rv.Len()
	}
	return 1
}
