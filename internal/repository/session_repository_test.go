package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamngoc/student-portal/internal/models"
)

func TestMemorySessionRepositorySaveAndFind(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	state := models.SessionState{UserID: 1, Username: "admin", Role: models.RoleAdmin, FullName: "Site Admin"}
	require.NoError(t, repo.Save(ctx, "tok-1", state, time.Minute))

	got, err := repo.Find(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, state, *got)

	got, err = repo.Find(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemorySessionRepositoryExpiry(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	now := time.Now()
	repo.now = func() time.Time { return now }
	require.NoError(t, repo.Save(ctx, "tok-1", models.SessionState{UserID: 1}, 30*time.Minute))

	repo.now = func() time.Time { return now.Add(29 * time.Minute) }
	got, err := repo.Find(ctx, "tok-1")
	require.NoError(t, err)
	assert.NotNil(t, got)

	repo.now = func() time.Time { return now.Add(31 * time.Minute) }
	got, err = repo.Find(ctx, "tok-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemorySessionRepositoryTouchSlidesExpiry(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	now := time.Now()
	repo.now = func() time.Time { return now }
	require.NoError(t, repo.Save(ctx, "tok-1", models.SessionState{UserID: 1}, 30*time.Minute))

	// activity at minute 20 pushes expiry out to minute 50
	repo.now = func() time.Time { return now.Add(20 * time.Minute) }
	require.NoError(t, repo.Touch(ctx, "tok-1", 30*time.Minute))

	repo.now = func() time.Time { return now.Add(45 * time.Minute) }
	got, err := repo.Find(ctx, "tok-1")
	require.NoError(t, err)
	assert.NotNil(t, got)

	repo.now = func() time.Time { return now.Add(51 * time.Minute) }
	got, err = repo.Find(ctx, "tok-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemorySessionRepositoryTouchExpiredIsNoop(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	now := time.Now()
	repo.now = func() time.Time { return now }
	require.NoError(t, repo.Save(ctx, "tok-1", models.SessionState{UserID: 1}, time.Minute))

	repo.now = func() time.Time { return now.Add(2 * time.Minute) }
	require.NoError(t, repo.Touch(ctx, "tok-1", 30*time.Minute))

	got, err := repo.Find(ctx, "tok-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemorySessionRepositoryDelete(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "tok-1", models.SessionState{UserID: 1}, time.Minute))
	require.NoError(t, repo.Delete(ctx, "tok-1"))

	got, err := repo.Find(ctx, "tok-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// deleting an unknown token is not an error
	assert.NoError(t, repo.Delete(ctx, "unknown"))
}
