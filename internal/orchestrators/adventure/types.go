package adventure

import (
	"github.com/dumblo/adventure-api/internal/entities/game"
)

// StartAdventureInput contains parameters for starting an adventure
type StartAdventureInput struct {
	UserID string
}

// StartAdventureOutput contains the rolled encounter. Special and rest
// encounters resolve immediately and come back concluded with no session.
type StartAdventureOutput struct {
	View *EncounterView
}

// DispatchActionInput contains a player action against an active session
type DispatchActionInput struct {
	UserID    string
	SessionID string
	Action    game.Action
}

// DispatchActionOutput contains the resolved turn
type DispatchActionOutput struct {
	View *EncounterView
}

// ViewInventoryInput contains parameters for listing a player's inventory
type ViewInventoryInput struct {
	UserID string
}

// InventoryItemView is one inventory slot joined with its catalog entry
type InventoryItemView struct {
	ItemID   string
	Name     string
	Type     string
	Rarity   string
	Quantity int
}

// GearView names the equipped items; empty strings mean empty slots
type GearView struct {
	Weapon     string
	Armor      string
	Consumable string
}

// ViewInventoryOutput contains the inventory listing
type ViewInventoryOutput struct {
	Items    []InventoryItemView
	Capacity int
	Gear     GearView
}

// UseItemOutOfCombatInput contains parameters for consuming an item outside
// an encounter
type UseItemOutOfCombatInput struct {
	UserID string
	ItemID string
}

// UseItemOutOfCombatOutput contains the result of consuming the item
type UseItemOutOfCombatOutput struct {
	Healed int
	Player PlayerView
}

// PlayerView is the player summary attached to every encounter response
type PlayerView struct {
	HP           int
	MaxHP        int
	Level        int
	XP           int
	Lupins       int
	StatusPoints int
}

// EnemyView is the enemy summary shown during combat
type EnemyView struct {
	ID    string
	Name  string
	HP    int
	MaxHP int
}

// EncounterView is the player-facing state of an encounter after an
// operation. Concluded views have no further actions; the session is gone.
type EncounterView struct {
	SessionID    string
	Type         game.EncounterType
	LocationID   string
	LocationName string
	Turn         int
	Enemy        *EnemyView
	Narration    []string
	Concluded    bool
	Outcome      game.Outcome
	Player       PlayerView
}
