package player_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dumblo/adventure-api/internal/entities/game"
	"github.com/dumblo/adventure-api/internal/errors"
	playerrepo "github.com/dumblo/adventure-api/internal/repositories/player"
	playermock "github.com/dumblo/adventure-api/internal/repositories/player/mock"
)

func noSleep(slept *int) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*slept++
		return nil
	}
}

func TestRetryRepository_TransientFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	inner := playermock.NewMockRepository(ctrl)
	slept := 0
	repo, err := playerrepo.NewRetryRepository(&playerrepo.RetryConfig{
		Repository: inner,
		Attempts:   3,
		Delay:      time.Second,
		Sleep:      noSleep(&slept),
	})
	require.NoError(t, err)

	ctx := context.Background()
	input := playerrepo.GetInput{UserID: "user_1"}
	want := &playerrepo.GetOutput{Player: &game.Player{ID: "user_1"}}

	gomock.InOrder(
		inner.EXPECT().Get(ctx, input).Return(nil, errors.Unavailable("connection refused")),
		inner.EXPECT().Get(ctx, input).Return(nil, errors.Unavailable("connection refused")),
		inner.EXPECT().Get(ctx, input).Return(want, nil),
	)

	out, err := repo.Get(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, want, out)
	assert.Equal(t, 2, slept, "one delay between each attempt")
}

func TestRetryRepository_ExhaustsAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	inner := playermock.NewMockRepository(ctrl)
	slept := 0
	repo, err := playerrepo.NewRetryRepository(&playerrepo.RetryConfig{
		Repository: inner,
		Attempts:   3,
		Delay:      time.Second,
		Sleep:      noSleep(&slept),
	})
	require.NoError(t, err)

	ctx := context.Background()
	input := playerrepo.UpdateInput{UserID: "user_1", Fields: map[string]interface{}{"hp": 1}}

	inner.EXPECT().Update(ctx, input).Return(nil, errors.Unavailable("connection refused")).Times(3)

	_, err = repo.Update(ctx, input)
	require.Error(t, err)
	assert.True(t, errors.IsUnavailable(err))
	assert.Equal(t, 2, slept, "no sleep after the final attempt")
}

func TestRetryRepository_NonRetryablePassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	inner := playermock.NewMockRepository(ctrl)
	slept := 0
	repo, err := playerrepo.NewRetryRepository(&playerrepo.RetryConfig{
		Repository: inner,
		Attempts:   3,
		Delay:      time.Second,
		Sleep:      noSleep(&slept),
	})
	require.NoError(t, err)

	ctx := context.Background()

	inner.EXPECT().Get(ctx, playerrepo.GetInput{UserID: "ghost"}).
		Return(nil, errors.NotFound("player not found"))

	_, err = repo.Get(ctx, playerrepo.GetInput{UserID: "ghost"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Zero(t, slept)
}

func TestRetryRepository_InvalidConfig(t *testing.T) {
	_, err := playerrepo.NewRetryRepository(&playerrepo.RetryConfig{Attempts: 3})
	assert.Error(t, err)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	_, err = playerrepo.NewRetryRepository(&playerrepo.RetryConfig{
		Repository: playermock.NewMockRepository(ctrl),
		Attempts:   0,
	})
	assert.Error(t, err)
}
