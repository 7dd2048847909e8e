package tools

import (
	"strings"
	"time"

	"github.com/sakif/chatbet/internal/apperror"
	"github.com/sakif/chatbet/internal/sportsapi"
)

// Input is implemented by every tool argument struct.
type Input interface {
	Validate() error
}

// TeamPairInput selects fixtures played between two teams.
type TeamPairInput struct {
	Team1 string `json:"team_1" jsonschema:"Full name of the first team, exactly as the fixtures list spells it"`
	Team2 string `json:"team_2" jsonschema:"Full name of the second team, exactly as the fixtures list spells it"`
}

func (in TeamPairInput) Validate() error {
	if err := required("team_1", in.Team1); err != nil {
		return err
	}
	return required("team_2", in.Team2)
}

// TeamInput selects fixtures of a single team.
type TeamInput struct {
	Team string `json:"team" jsonschema:"Full name of the team"`
}

func (in TeamInput) Validate() error {
	return required("team", in.Team)
}

// DateInput selects fixtures starting on one day.
type DateInput struct {
	Date string `json:"date" jsonschema:"Day in YYYY-MM-DD format"`
}

func (in DateInput) Validate() error {
	_, err := parseDate("date", in.Date)
	return err
}

// DateRangeInput selects fixtures starting between two days, both included.
type DateRangeInput struct {
	Date1 string `json:"date_1" jsonschema:"First day of the range in YYYY-MM-DD format"`
	Date2 string `json:"date_2" jsonschema:"Last day of the range in YYYY-MM-DD format, not before date_1"`
}

func (in DateRangeInput) Validate() error {
	from, err := parseDate("date_1", in.Date1)
	if err != nil {
		return err
	}
	to, err := parseDate("date_2", in.Date2)
	if err != nil {
		return err
	}
	if from.After(to) {
		return apperror.ValidationFailed("date_1", "date_1 must not be after date_2")
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.ValidationFailed(field, field+" is required")
	}
	return nil
}

func parseDate(field, value string) (time.Time, error) {
	if err := required(field, value); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(sportsapi.DateLayout, value)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed(field, field+" must be formatted as YYYY-MM-DD")
	}
	return t, nil
}
