// Package world holds the immutable world catalog: locations, enemies,
// chests, NPCs and items. Definitions are read-only reference data; the
// engine never mutates them.
package world

import (
	"github.com/dumblo/adventure-api/internal/entities/game"
	"github.com/dumblo/adventure-api/internal/errors"
)

// ItemType classifies catalog items.
type ItemType string

// Item types
const (
	ItemWeapon     ItemType = "weapon"
	ItemArmor      ItemType = "armor"
	ItemConsumable ItemType = "consumable"
	ItemMaterial   ItemType = "material"
)

// Rarity tiers. Rare and above qualify for the rogue loot bonus.
type Rarity string

// Rarity values
const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// AtLeastRare reports whether the rarity qualifies for rare-tier bonuses.
func (r Rarity) AtLeastRare() bool {
	return r == RarityRare || r == RarityEpic || r == RarityLegendary
}

// Location is a place the player can roll an encounter in.
type Location struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Level       int                `yaml:"level"`
	Encounters  map[string]float64 `yaml:"encounters"`
	Enemies     []string           `yaml:"enemies"`
	NPCs        []string           `yaml:"npcs"`
}

// EncounterWeight returns the base weight for an encounter type, zero when
// the table has no entry.
func (l Location) EncounterWeight(t game.EncounterType) float64 {
	return l.Encounters[string(t)]
}

// EnemyStats are an enemy's combat numbers.
type EnemyStats struct {
	HP      int `yaml:"hp"`
	MaxHP   int `yaml:"maxHp"`
	Attack  int `yaml:"attack"`
	Defense int `yaml:"defense"`
	Speed   int `yaml:"speed"`
}

// Rewards are granted on combat victory.
type Rewards struct {
	XP      int `yaml:"xp"`
	GoldMin int `yaml:"goldMin"`
	GoldMax int `yaml:"goldMax"`
}

// Enemy is an enemy definition.
type Enemy struct {
	ID      string     `yaml:"id"`
	Name    string     `yaml:"name"`
	Stats   EnemyStats `yaml:"stats"`
	Rewards Rewards    `yaml:"rewards"`
}

// GoldRange is a currency loot roll range.
type GoldRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// LootEntry is one independent loot roll: either a gold range or an item.
type LootEntry struct {
	Chance   float64    `yaml:"chance"`
	Gold     *GoldRange `yaml:"gold,omitempty"`
	ItemID   string     `yaml:"itemId,omitempty"`
	Quantity int        `yaml:"quantity,omitempty"`
}

// Chest is a chest definition.
type Chest struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	TrapChance float64     `yaml:"trapChance"`
	TrapDamage int         `yaml:"trapDamage"`
	LootTable  []LootEntry `yaml:"lootTable"`
}

// NPC is an NPC definition. Dialogue is the static greeting used when the
// dialogue generator is unavailable.
type NPC struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Dialogue    string `yaml:"dialogue"`
}

// ItemStats are the equipment numbers an item grants.
type ItemStats struct {
	PhysicalDamage int `yaml:"physicalDamage"`
	MagicDamage    int `yaml:"magicDamage"`
	Defense        int `yaml:"defense"`
}

// ItemEffect is a consumable effect. Only heal is defined today.
type ItemEffect struct {
	Kind  string `yaml:"kind"`
	Value int    `yaml:"value"`
}

// Item is a catalog item definition.
type Item struct {
	ID        string     `yaml:"id"`
	Name      string     `yaml:"name"`
	Type      ItemType   `yaml:"type"`
	Rarity    Rarity     `yaml:"rarity"`
	Stackable bool       `yaml:"stackable"`
	SellPrice int        `yaml:"sellPrice"`
	Stats     ItemStats  `yaml:"stats"`
	Effect    ItemEffect `yaml:"effect"`
}

// Catalog is the full world definition keyed by id.
type Catalog struct {
	Locations map[string]Location `yaml:"locations"`
	Enemies   map[string]Enemy    `yaml:"enemies"`
	Chests    map[string]Chest    `yaml:"chests"`
	NPCs      map[string]NPC      `yaml:"npcs"`
	Items     map[string]Item     `yaml:"items"`
}

// Location looks up a location by id.
func (c *Catalog) Location(id string) (Location, bool) {
	l, ok := c.Locations[id]
	return l, ok
}

// Enemy looks up an enemy by id.
func (c *Catalog) Enemy(id string) (Enemy, bool) {
	e, ok := c.Enemies[id]
	return e, ok
}

// Chest looks up a chest by id.
func (c *Catalog) Chest(id string) (Chest, bool) {
	ch, ok := c.Chests[id]
	return ch, ok
}

// NPC looks up an NPC by id.
func (c *Catalog) NPC(id string) (NPC, bool) {
	n, ok := c.NPCs[id]
	return n, ok
}

// Item looks up an item by id.
func (c *Catalog) Item(id string) (Item, bool) {
	i, ok := c.Items[id]
	return i, ok
}

// Validate checks cross-references so a bad catalog fails at load time
// instead of mid-encounter.
func (c *Catalog) Validate() error {
	if len(c.Locations) == 0 {
		return errors.Unavailable("world catalog has no locations")
	}
	for id, loc := range c.Locations {
		for _, enemyID := range loc.Enemies {
			if _, ok := c.Enemies[enemyID]; !ok {
				return errors.InvalidArgumentf("location %s references unknown enemy %s", id, enemyID)
			}
		}
		for _, npcID := range loc.NPCs {
			if _, ok := c.NPCs[npcID]; !ok {
				return errors.InvalidArgumentf("location %s references unknown npc %s", id, npcID)
			}
		}
	}
	for id, chest := range c.Chests {
		for _, entry := range chest.LootTable {
			if entry.ItemID != "" {
				if _, ok := c.Items[entry.ItemID]; !ok {
					return errors.InvalidArgumentf("chest %s references unknown item %s", id, entry.ItemID)
				}
			}
		}
	}
	return nil
}
