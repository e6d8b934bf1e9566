package game

import "time"

// EncounterType classifies what an adventure rolled into.
type EncounterType string

// Encounter types, in weighted-draw order.
const (
	EncounterCombat  EncounterType = "combat"
	EncounterChest   EncounterType = "chest"
	EncounterNPC     EncounterType = "npc"
	EncounterSpecial EncounterType = "special"
	EncounterRest    EncounterType = "rest"
)

// Action is a player input dispatched against a session.
type Action string

// Player actions
const (
	ActionAttack        Action = "attack"
	ActionDefend        Action = "defend"
	ActionFlee          Action = "flee"
	ActionUseConsumable Action = "use_consumable"
	ActionOpenChest     Action = "open"
	ActionTalk          Action = "talk"
)

// Outcome is the result of resolving one action.
type Outcome string

// Combat outcomes. FleeFailed does not end combat: the attempt fails, the
// enemy gets a free attack, and the session stays active.
const (
	OutcomeOngoing    Outcome = "ongoing"
	OutcomeVictory    Outcome = "victory"
	OutcomeDefeat     Outcome = "defeat"
	OutcomeFled       Outcome = "fled"
	OutcomeFleeFailed Outcome = "flee_failed"
)

// Terminal reports whether the outcome concludes the session.
func (o Outcome) Terminal() bool {
	switch o {
	case OutcomeVictory, OutcomeDefeat, OutcomeFled:
		return true
	default:
		return false
	}
}

// EnemySnapshot is the enemy's mutable combat copy plus the immutable
// reward fields captured at session start.
type EnemySnapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	HP       int    `json:"hp"`
	MaxHP    int    `json:"maxHp"`
	Attack   int    `json:"attack"`
	Defense  int    `json:"defense"`
	Speed    int    `json:"speed"`
	RewardXP int    `json:"rewardXp"`
	GoldMin  int    `json:"goldMin"`
	GoldMax  int    `json:"goldMax"`
}

// CombatState is the combat-specific session payload. PlayerHP is synced
// from the persisted player record before every resolution; the rest is
// in-session state.
type CombatState struct {
	Enemy               EnemySnapshot `json:"enemy"`
	PlayerHP            int           `json:"playerHp"`
	PlayerMaxHP         int           `json:"playerMaxHp"`
	Stats               Stats         `json:"stats"`
	Gear                Gear          `json:"gear"`
	PaladinBlessingUsed bool          `json:"paladinBlessingUsed"`
	NextCritBonus       float64       `json:"nextCritBonus"`
	Turn                int           `json:"turn"`
}

// AdventureSession is the mutable record of one in-progress encounter. It is
// stored under a leased key; absence after expiry means abandonment.
type AdventureSession struct {
	ID         string        `json:"id"`
	UserID     string        `json:"userId"`
	Type       EncounterType `json:"type"`
	LocationID string        `json:"locationId"`

	// Type-specific payloads; exactly one is set.
	Combat  *CombatState `json:"combat,omitempty"`
	ChestID string       `json:"chestId,omitempty"`
	NPCID   string       `json:"npcId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
