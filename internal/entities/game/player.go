// Package game defines the entities the adventure engine operates on.
//
// Entities are plain data structs. The engine treats a Player as a value
// snapshot read from the persistence layer at the start of each action and
// never caches it across turns.
package game

// ClassID identifies a character class.
type ClassID string

// Character classes
const (
	ClassWarrior ClassID = "warrior"
	ClassMage    ClassID = "mage"
	ClassArcher  ClassID = "archer"
	ClassRogue   ClassID = "rogue"
	ClassPaladin ClassID = "paladin"
)

// Stats are the six primary attributes.
type Stats struct {
	Strength     int `json:"strength"`
	Intelligence int `json:"intelligence"`
	Agility      int `json:"agility"`
	Vitality     int `json:"vitality"`
	Luck         int `json:"luck"`
	Charisma     int `json:"charisma"`
}

// Weapon is an equipped weapon. A weapon with MagicDamage > 0 is treated as
// magic for damage scaling.
type Weapon struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PhysicalDamage int    `json:"physicalDamage"`
	MagicDamage    int    `json:"magicDamage"`
}

// Armor is an equipped armor piece.
type Armor struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Defense int    `json:"defense"`
}

// Consumable is the equipped consumable slot. Quantity mirrors the total
// held in inventory and is kept in sync when units are consumed.
type Consumable struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Gear holds the three equipment slots. Nil means the slot is empty.
type Gear struct {
	Weapon     *Weapon     `json:"weapon,omitempty"`
	Armor      *Armor      `json:"armor,omitempty"`
	Consumable *Consumable `json:"consumable,omitempty"`
}

// ItemStack is one inventory slot: an item id and how many units it holds.
type ItemStack struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// Wallet holds spendable currency.
type Wallet struct {
	Lupins int `json:"lupins"`
}

// LedgerEntry records one economy mutation.
type LedgerEntry struct {
	Type   string `json:"type"`
	Amount int    `json:"amount"`
	At     string `json:"at"`
}

// Economy is the player's currency state.
type Economy struct {
	Wallet  Wallet        `json:"wallet"`
	Bank    Wallet        `json:"bank"`
	History []LedgerEntry `json:"history,omitempty"`
}

// Player is the persisted player snapshot. Owned by the persistence layer;
// the engine re-reads it per action.
type Player struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	ClassID           ClassID     `json:"classId"`
	Level             int         `json:"level"`
	XP                int         `json:"xp"`
	HP                int         `json:"hp"`
	Stats             Stats       `json:"stats"`
	Gear              Gear        `json:"gear"`
	Inventory         []ItemStack `json:"inventory"`
	InventoryCapacity int         `json:"inventoryCapacity"`
	Economy           Economy     `json:"economy"`
	StatusPoints      int         `json:"statusPoints"`
}

// MaxHP derives the hit point ceiling from base HP and vitality.
func (p *Player) MaxHP(startingHP int) int {
	return startingHP + 2*p.Stats.Vitality
}

// InventoryQuantity sums the held units of the given item across stacks.
func (p *Player) InventoryQuantity(itemID string) int {
	total := 0
	for _, s := range p.Inventory {
		if s.ItemID == itemID {
			total += s.Quantity
		}
	}
	return total
}
