package player

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"github.com/dumblo/adventure-api/internal/entities/game"
	"github.com/dumblo/adventure-api/internal/errors"
	redisclient "github.com/dumblo/adventure-api/internal/redis"
)

const (
	// Key pattern: player:{user_id}
	playerKeyPrefix = "player:"

	// Error messages
	errPlayerNil   = "player cannot be nil"
	errUserIDEmpty = "user ID cannot be empty"
)

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
}

// NewRedisRepository creates a new Redis repository for player records
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{
		client: cfg.Client,
	}, nil
}

// Ensure redisRepository implements Repository
var _ Repository = (*redisRepository)(nil)

// Get retrieves a player by user id
func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.UserID == "" {
		return nil, errors.InvalidArgument(errUserIDEmpty)
	}

	playerJSON, err := r.client.Get(ctx, r.buildKey(input.UserID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFound("player not found")
		}
		return nil, errors.Wrapf(err, "failed to get player from Redis")
	}

	var p game.Player
	if err := json.Unmarshal([]byte(playerJSON), &p); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal player")
	}

	return &GetOutput{
		Player: &p,
	}, nil
}

// Create stores a new player record
func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.Player == nil {
		return nil, errors.InvalidArgument(errPlayerNil)
	}
	if input.Player.ID == "" {
		return nil, errors.InvalidArgument(errUserIDEmpty)
	}

	playerJSON, err := json.Marshal(input.Player)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal player")
	}

	created, err := r.client.SetNX(ctx, r.buildKey(input.Player.ID), playerJSON, 0).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to store player in Redis")
	}
	if !created {
		return nil, errors.AlreadyExists("player already exists")
	}

	return &CreateOutput{
		Player: input.Player,
	}, nil
}

// Update applies a partial update by dotted field paths. The document is
// read, the paths are walked and set, and the document is written back as a
// whole. Callers serialize per-user access above this layer.
func (r *redisRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.UserID == "" {
		return nil, errors.InvalidArgument(errUserIDEmpty)
	}
	if len(input.Fields) == 0 {
		return nil, errors.InvalidArgument("at least one field is required")
	}

	key := r.buildKey(input.UserID)
	playerJSON, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFound("player not found")
		}
		return nil, errors.Wrapf(err, "failed to get player from Redis")
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(playerJSON), &doc); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal player")
	}

	for path, value := range input.Fields {
		if err := setPath(doc, path, value); err != nil {
			return nil, err
		}
	}

	updatedJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal player")
	}
	if err := r.client.Set(ctx, key, updatedJSON, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to update player in Redis")
	}

	var p game.Player
	if err := json.Unmarshal(updatedJSON, &p); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal updated player")
	}

	return &UpdateOutput{
		Player: &p,
	}, nil
}

// SetInventory replaces the inventory and gear slots wholesale
func (r *redisRepository) SetInventory(ctx context.Context, input SetInventoryInput) (*SetInventoryOutput, error) {
	if input.UserID == "" {
		return nil, errors.InvalidArgument(errUserIDEmpty)
	}

	inventory := input.Inventory
	if inventory == nil {
		inventory = []game.ItemStack{}
	}

	out, err := r.Update(ctx, UpdateInput{
		UserID: input.UserID,
		Fields: map[string]interface{}{
			"inventory": inventory,
			"gear":      input.Gear,
		},
	})
	if err != nil {
		return nil, err
	}

	return &SetInventoryOutput{
		Player: out.Player,
	}, nil
}

// setPath walks the document along a dotted path and sets the leaf value.
// Intermediate objects are created as needed; descending into a non-object
// is an error.
func setPath(doc map[string]interface{}, path string, value interface{}) error {
	parts := strings.Split(path, ".")
	current := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok || next == nil {
			child := make(map[string]interface{})
			current[part] = child
			current = child
			continue
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			return errors.InvalidArgumentf("field path %s descends into a non-object", path)
		}
		current = child
	}

	leaf := parts[len(parts)-1]
	if value == nil {
		current[leaf] = nil
		return nil
	}

	// Round-trip through JSON so structs land as plain maps and ints as
	// json numbers, matching the rest of the document.
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "failed to encode field %s", path)
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return errors.Wrapf(err, "failed to decode field %s", path)
	}
	current[leaf] = decoded
	return nil
}

// buildKey creates the Redis key for a player record
func (r *redisRepository) buildKey(userID string) string {
	return fmt.Sprintf("%s%s", playerKeyPrefix, userID)
}
