package adventuresession

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/dumblo/adventure-api/internal/entities/game"
	"github.com/dumblo/adventure-api/internal/errors"
	"github.com/dumblo/adventure-api/internal/pkg/clock"
	redisclient "github.com/dumblo/adventure-api/internal/redis"
)

const (
	// Key patterns: adv:session:{session_id}, adv:current:{user_id}
	sessionKeyPrefix = "adv:session:"
	markerKeyPrefix  = "adv:current:"
	defaultTTL       = 15 * time.Minute

	// Error messages
	errSessionNil     = "session cannot be nil"
	errSessionIDEmpty = "session ID cannot be empty"
	errUserIDEmpty    = "user ID cannot be empty"
)

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
	Clock  clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	if c.Clock == nil {
		return errors.InvalidArgument("clock is required")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// NewRedisRepository creates a new Redis repository for adventure sessions
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  cfg.Clock,
	}, nil
}

// Ensure redisRepository implements Repository
var _ Repository = (*redisRepository)(nil)

// Create stores a new session after claiming the user's marker with SET NX.
// The claim and the session write share the same TTL; a lost claim means the
// user already has an active session.
func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	session := input.Session
	if session == nil {
		return nil, errors.InvalidArgument(errSessionNil)
	}
	if session.ID == "" {
		return nil, errors.InvalidArgument(errSessionIDEmpty)
	}
	if session.UserID == "" {
		return nil, errors.InvalidArgument(errUserIDEmpty)
	}

	now := r.clock.Now()
	ttl := input.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}
	session.CreatedAt = now
	session.ExpiresAt = now.Add(ttl)

	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal session")
	}

	// Claim the marker first. SET NX makes the check-and-claim atomic, so two
	// concurrent starts for the same user cannot both win.
	claimed, err := r.client.SetNX(ctx, r.markerKey(session.UserID), session.ID, ttl).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to claim active marker in Redis")
	}
	if !claimed {
		return nil, errors.AlreadyExists("user already has an active adventure session")
	}

	if err := r.client.Set(ctx, r.sessionKey(session.ID), sessionJSON, ttl).Err(); err != nil {
		// Release the claim so the user isn't locked out by a half-write.
		_ = r.client.Del(ctx, r.markerKey(session.UserID))
		return nil, errors.Wrapf(err, "failed to store session in Redis")
	}

	return &CreateOutput{
		Session: session,
	}, nil
}

// Get retrieves a session by id
func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errSessionIDEmpty)
	}

	sessionJSON, err := r.client.Get(ctx, r.sessionKey(input.ID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFound("adventure session not found")
		}
		return nil, errors.Wrapf(err, "failed to get session from Redis")
	}

	var session game.AdventureSession
	if err := json.Unmarshal([]byte(sessionJSON), &session); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal session")
	}

	// Redis TTL expiry and the lease timestamp can disagree around the edge;
	// the timestamp is authoritative.
	if r.clock.Now().After(session.ExpiresAt) {
		_ = r.client.Del(ctx, r.sessionKey(input.ID))
		_ = r.client.Del(ctx, r.markerKey(session.UserID))
		return nil, errors.NotFound("adventure session has expired")
	}

	return &GetOutput{
		Session: &session,
	}, nil
}

// Update replaces the session and renews the full lease on both keys
func (r *redisRepository) Update(ctx context.Context, session *game.AdventureSession, ttl time.Duration) error {
	if session == nil {
		return errors.InvalidArgument(errSessionNil)
	}
	if session.ID == "" {
		return errors.InvalidArgument(errSessionIDEmpty)
	}
	if session.UserID == "" {
		return errors.InvalidArgument(errUserIDEmpty)
	}
	if ttl == 0 {
		ttl = defaultTTL
	}

	session.ExpiresAt = r.clock.Now().Add(ttl)

	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal session")
	}

	if err := r.client.Set(ctx, r.sessionKey(session.ID), sessionJSON, ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to update session in Redis")
	}
	if err := r.client.Expire(ctx, r.markerKey(session.UserID), ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to renew marker lease in Redis")
	}

	return nil
}

// Delete removes the session and the user's marker
func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errSessionIDEmpty)
	}
	if input.UserID == "" {
		return nil, errors.InvalidArgument(errUserIDEmpty)
	}

	if err := r.client.Del(ctx, r.sessionKey(input.ID), r.markerKey(input.UserID)).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to delete session from Redis")
	}

	return &DeleteOutput{}, nil
}

// GetMarker returns the session id the user's marker points at
func (r *redisRepository) GetMarker(ctx context.Context, input GetMarkerInput) (*GetMarkerOutput, error) {
	if input.UserID == "" {
		return nil, errors.InvalidArgument(errUserIDEmpty)
	}

	sessionID, err := r.client.Get(ctx, r.markerKey(input.UserID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFound("no active adventure marker")
		}
		return nil, errors.Wrapf(err, "failed to get marker from Redis")
	}

	return &GetMarkerOutput{
		SessionID: sessionID,
	}, nil
}

// ClearMarker removes the user's marker
func (r *redisRepository) ClearMarker(ctx context.Context, input ClearMarkerInput) (*ClearMarkerOutput, error) {
	if input.UserID == "" {
		return nil, errors.InvalidArgument(errUserIDEmpty)
	}

	if err := r.client.Del(ctx, r.markerKey(input.UserID)).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to clear marker in Redis")
	}

	return &ClearMarkerOutput{}, nil
}

// sessionKey creates the Redis key for a session record
func (r *redisRepository) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s%s", sessionKeyPrefix, sessionID)
}

// markerKey creates the Redis key for a user's active marker
func (r *redisRepository) markerKey(userID string) string {
	return fmt.Sprintf("%s%s", markerKeyPrefix, userID)
}
