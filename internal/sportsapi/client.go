// Package sportsapi talks to the upstream sports-data API: it fetches and
// filters pre-match fixtures, fetches per-fixture odds and condenses them into
// a compact structure the language model can read.
package sportsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/chatbet/internal/model"
)

const (
	fixturesPath = "/sports/sports-fixtures"
	oddsPath     = "/sports/odds"

	// DefaultTimeout bounds every upstream request except the team-pair
	// fixture lookup, which only inherits the turn's context.
	DefaultTimeout = 30 * time.Second
)

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger

	// Now supplies the current time; the upstream omits the year of a
	// fixture's start time and the current year is assumed.
	Now func() time.Time
}

// Client is safe for concurrent use. It holds no per-user state: the sport
// to query is passed in with every call.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		timeout:    timeout,
		httpClient: httpClient,
		logger:     logger,
		now:        now,
	}
}

// currentYear is the year assumed for fixture start times.
func (c *Client) currentYear() int {
	return c.now().UTC().Year()
}

// getJSON performs a GET and decodes the JSON body into out. Any non-2xx
// status is an error; numbers are decoded as json.Number when out is an any.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Path: path, StatusCode: resp.StatusCode, Body: string(body)}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// StatusError is returned for a non-2xx upstream response.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s: status=%d, body=%s", e.Path, e.StatusCode, e.Body)
}

// sportParams returns the query parameters shared by both endpoints.
// sportId is left out when the user has no favourite sport.
func sportParams(prefs model.Preferences) url.Values {
	params := url.Values{}
	if prefs.HasSport() {
		params.Set("sportId", strconv.FormatInt(prefs.SportID, 10))
	}
	return params
}
