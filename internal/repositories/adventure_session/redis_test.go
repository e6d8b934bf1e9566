package adventuresession

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumblo/adventure-api/internal/entities/game"
	"github.com/dumblo/adventure-api/internal/errors"
	"github.com/dumblo/adventure-api/internal/pkg/clock"
	"github.com/dumblo/adventure-api/internal/testutils"
)

func testSession(id, userID string) *game.AdventureSession {
	return &game.AdventureSession{
		ID:         id,
		UserID:     userID,
		Type:       game.EncounterCombat,
		LocationID: "forest",
		Combat: &game.CombatState{
			Enemy:       game.EnemySnapshot{ID: "wolf", Name: "Wolf", HP: 30, MaxHP: 30},
			PlayerHP:    100,
			PlayerMaxHP: 100,
		},
	}
}

func setupRepo(t *testing.T) (Repository, *clock.Fixed, func()) {
	client, cleanup := testutils.CreateTestRedisClient(t)
	fixed := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	repo, err := NewRedisRepository(&Config{Client: client, Clock: fixed})
	require.NoError(t, err)

	return repo, fixed, cleanup
}

func TestRedisRepository_CreateAndGet(t *testing.T) {
	repo, fixed, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateInput{Session: testSession("sess_1", "user_1")})
	require.NoError(t, err)
	assert.Equal(t, fixed.Now(), created.Session.CreatedAt)
	assert.Equal(t, fixed.Now().Add(15*time.Minute), created.Session.ExpiresAt)

	got, err := repo.Get(ctx, GetInput{ID: "sess_1"})
	require.NoError(t, err)
	assert.Equal(t, "user_1", got.Session.UserID)
	assert.Equal(t, game.EncounterCombat, got.Session.Type)
	require.NotNil(t, got.Session.Combat)
	assert.Equal(t, 30, got.Session.Combat.Enemy.HP)

	marker, err := repo.GetMarker(ctx, GetMarkerInput{UserID: "user_1"})
	require.NoError(t, err)
	assert.Equal(t, "sess_1", marker.SessionID)
}

func TestRedisRepository_CreateConflict(t *testing.T) {
	repo, _, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateInput{Session: testSession("sess_1", "user_1")})
	require.NoError(t, err)

	// Same user, different session: the marker claim must lose.
	_, err = repo.Create(ctx, CreateInput{Session: testSession("sess_2", "user_1")})
	require.Error(t, err)
	assert.True(t, errors.IsAlreadyExists(err))

	// A different user is unaffected.
	_, err = repo.Create(ctx, CreateInput{Session: testSession("sess_3", "user_2")})
	require.NoError(t, err)
}

func TestRedisRepository_GetExpired(t *testing.T) {
	repo, fixed, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateInput{Session: testSession("sess_1", "user_1"), TTL: 10 * time.Minute})
	require.NoError(t, err)

	fixed.Advance(11 * time.Minute)

	_, err = repo.Get(ctx, GetInput{ID: "sess_1"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	// Expiry cleanup also removes the marker, so the user can start fresh.
	_, err = repo.GetMarker(ctx, GetMarkerInput{UserID: "user_1"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestRedisRepository_UpdateRenewsLease(t *testing.T) {
	repo, fixed, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateInput{Session: testSession("sess_1", "user_1"), TTL: 15 * time.Minute})
	require.NoError(t, err)
	sess := created.Session

	fixed.Advance(10 * time.Minute)
	sess.Combat.Enemy.HP = 12
	require.NoError(t, repo.Update(ctx, sess, 15*time.Minute))
	assert.Equal(t, fixed.Now().Add(15*time.Minute), sess.ExpiresAt)

	// 20 minutes after creation: would be dead without the renewal.
	fixed.Advance(10 * time.Minute)
	got, err := repo.Get(ctx, GetInput{ID: "sess_1"})
	require.NoError(t, err)
	assert.Equal(t, 12, got.Session.Combat.Enemy.HP)
}

func TestRedisRepository_StoreTTL(t *testing.T) {
	mr, client, cleanup := testutils.CreateTestRedisServer(t)
	defer cleanup()
	fixed := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo, err := NewRedisRepository(&Config{Client: client, Clock: fixed})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = repo.Create(ctx, CreateInput{Session: testSession("sess_1", "user_1"), TTL: 10 * time.Minute})
	require.NoError(t, err)

	// Both keys carry the lease in the store itself, independent of the
	// clock double-check.
	assert.Equal(t, 10*time.Minute, mr.TTL("adv:session:sess_1"))
	assert.Equal(t, 10*time.Minute, mr.TTL("adv:current:user_1"))

	mr.FastForward(11 * time.Minute)
	assert.False(t, mr.Exists("adv:session:sess_1"))
	assert.False(t, mr.Exists("adv:current:user_1"))
}

func TestRedisRepository_Delete(t *testing.T) {
	repo, _, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateInput{Session: testSession("sess_1", "user_1")})
	require.NoError(t, err)

	_, err = repo.Delete(ctx, DeleteInput{ID: "sess_1", UserID: "user_1"})
	require.NoError(t, err)

	_, err = repo.Get(ctx, GetInput{ID: "sess_1"})
	assert.True(t, errors.IsNotFound(err))

	_, err = repo.GetMarker(ctx, GetMarkerInput{UserID: "user_1"})
	assert.True(t, errors.IsNotFound(err))

	// The user can start a new adventure immediately.
	_, err = repo.Create(ctx, CreateInput{Session: testSession("sess_2", "user_1")})
	require.NoError(t, err)
}

func TestRedisRepository_ClearMarker(t *testing.T) {
	repo, _, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateInput{Session: testSession("sess_1", "user_1")})
	require.NoError(t, err)

	_, err = repo.ClearMarker(ctx, ClearMarkerInput{UserID: "user_1"})
	require.NoError(t, err)

	// Marker is gone; the orphan session remains until its TTL fires.
	_, err = repo.GetMarker(ctx, GetMarkerInput{UserID: "user_1"})
	assert.True(t, errors.IsNotFound(err))

	_, err = repo.Get(ctx, GetInput{ID: "sess_1"})
	assert.NoError(t, err)
}

func TestRedisRepository_Validation(t *testing.T) {
	repo, _, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateInput{})
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = repo.Create(ctx, CreateInput{Session: &game.AdventureSession{UserID: "u"}})
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = repo.Get(ctx, GetInput{})
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = repo.GetMarker(ctx, GetMarkerInput{})
	assert.True(t, errors.IsInvalidArgument(err))
}
