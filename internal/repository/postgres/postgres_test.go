package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/chatbet/internal/apperror"
	"github.com/sakif/chatbet/internal/model"
	"github.com/sakif/chatbet/internal/repository"
)

// newTestDB connects to POSTGRES_TEST_URL and skips the test when unset.
// The database is seeded with the default sports and users.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_URL")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}
	db, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, db.SeedSports(ctx, repository.DefaultSports))
	require.NoError(t, db.SeedUsers(ctx, repository.DefaultUsers))
	return db
}

func TestUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, err := db.GetUserByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Juan", u.Name)
	require.NotNil(t, u.Sport)
	assert.Equal(t, "Football", u.Sport.Name)

	_, err = db.GetUserByID(ctx, 987654)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestThreadHistory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	thread := &model.Thread{UserID: 1}
	require.NoError(t, db.CreateThread(ctx, thread))
	require.Positive(t, thread.ID)

	got, err := db.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UserID)

	base := time.Date(2025, time.June, 14, 9, 0, 0, 0, time.UTC)
	for i, in := range []string{"one", "two", "three"} {
		entry := &model.HistoryEntry{
			ThreadID:      thread.ID,
			InputMessage:  in,
			OutputMessage: "re: " + in,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.AppendHistory(ctx, entry))
	}

	recent, err := db.RecentHistory(ctx, thread.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "three", recent[0].InputMessage)
	assert.Equal(t, "two", recent[1].InputMessage)

	_, err = db.GetThread(ctx, 0)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
