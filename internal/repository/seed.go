package repository

import "github.com/sakif/chatbet/internal/model"

// DefaultSports is the sports lookup table. IDs match the upstream API's sportId.
var DefaultSports = []model.Sport{
	{ID: 6, Name: "American Football"},
	{ID: 37, Name: "Rugby Union"},
	{ID: 36, Name: "Rugby League"},
	{ID: 3, Name: "Basketball"},
	{ID: 2, Name: "Ice Hockey"},
	{ID: 11, Name: "Baseball"},
	{ID: 1, Name: "Football"},
}

// DefaultUsers are the demo accounts.
var DefaultUsers = []SeedUser{
	{ID: 2, Name: "Edward", SportID: 1},
	{ID: 3, Name: "Richard", SportID: 1},
	{ID: 1, Name: "Juan", SportID: 1},
}
