// Package player provides repository interface and types for persisted
// player records. Records are durable JSON documents; partial updates use
// dotted field paths so concurrent writers touch only the fields they own.
package player

import (
	"context"

	"github.com/dumblo/adventure-api/internal/entities/game"
)

//go:generate mockgen -destination=mock/mock_repository.go -package=playermock github.com/dumblo/adventure-api/internal/repositories/player Repository

// GetInput contains parameters for retrieving a player
type GetInput struct {
	UserID string
}

// GetOutput contains the result of retrieving a player
type GetOutput struct {
	Player *game.Player
}

// CreateInput contains parameters for creating a player
type CreateInput struct {
	Player *game.Player
}

// CreateOutput contains the result of creating a player
type CreateOutput struct {
	Player *game.Player
}

// UpdateInput contains a partial update: dotted field paths mapped to their
// new values, e.g. "economy.wallet.lupins": 140.
type UpdateInput struct {
	UserID string
	Fields map[string]interface{}
}

// UpdateOutput contains the updated player
type UpdateOutput struct {
	Player *game.Player
}

// SetInventoryInput replaces the player's inventory and gear wholesale
type SetInventoryInput struct {
	UserID    string
	Inventory []game.ItemStack
	Gear      game.Gear
}

// SetInventoryOutput contains the updated player
type SetInventoryOutput struct {
	Player *game.Player
}

// Repository defines the interface for player storage operations
type Repository interface {
	// Get retrieves a player by user id
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Create stores a new player record
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)

	// Update applies a partial update by dotted field paths
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)

	// SetInventory replaces the inventory and gear slots
	SetInventory(ctx context.Context, input SetInventoryInput) (*SetInventoryOutput, error)
}
