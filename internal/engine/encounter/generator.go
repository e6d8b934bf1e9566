// Package encounter selects locations and rolls encounter types from a
// weighted distribution. All functions are pure given their random source;
// tests inject a seeded *rand.Rand.
package encounter

import (
	"math/rand"
	"sort"

	"github.com/dumblo/adventure-api/internal/entities/game"
	"github.com/dumblo/adventure-api/internal/errors"
	"github.com/dumblo/adventure-api/internal/world"
)

// Draw order for the weighted roll. Order matters: the cumulative draw and
// the fallback distribution are aligned with it.
var encounterTypes = [5]game.EncounterType{
	game.EncounterCombat,
	game.EncounterChest,
	game.EncounterNPC,
	game.EncounterSpecial,
	game.EncounterRest,
}

// Global weight multipliers: more monsters, fewer chests.
var globalMultipliers = [5]float64{1.2, 0.5, 0.85, 1.0, 1.0}

// Safe fallback distribution used when a location's scaled weights sum to
// zero or less.
var fallbackWeights = [5]float64{0.65, 0.15, 0.10, 0.05, 0.05}

// Maximum location level above the player's that still qualifies.
const levelHeadroom = 3

// SelectLocation picks a location the player can reasonably enter: level at
// most max(1, playerLevel+3), falling back to the whole catalog when the
// filter leaves nothing. Returns WorldUnavailable on an empty catalog.
func SelectLocation(rng *rand.Rand, catalog *world.Catalog, playerLevel int) (world.Location, error) {
	if len(catalog.Locations) == 0 {
		return world.Location{}, errors.Unavailable("world catalog has no locations")
	}

	ceiling := playerLevel + levelHeadroom
	if ceiling < 1 {
		ceiling = 1
	}

	// Sorted ids keep the draw deterministic for a seeded source.
	ids := make([]string, 0, len(catalog.Locations))
	for id := range catalog.Locations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	candidates := make([]string, 0, len(ids))
	for _, id := range ids {
		if catalog.Locations[id].Level <= ceiling {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		candidates = ids
	}

	return catalog.Locations[candidates[rng.Intn(len(candidates))]], nil
}

// RollEncounter draws an encounter type from the location's weight table
// scaled by the global multipliers. A non-positive weight sum substitutes
// the fixed fallback distribution, so the draw never divides by zero.
func RollEncounter(rng *rand.Rand, loc world.Location) game.EncounterType {
	var weights [5]float64
	sum := 0.0
	for i, t := range encounterTypes {
		weights[i] = loc.EncounterWeight(t) * globalMultipliers[i]
		sum += weights[i]
	}
	if sum <= 0 {
		weights = fallbackWeights
		sum = 1.0
	}

	r := rng.Float64() * sum
	for i, t := range encounterTypes {
		r -= weights[i]
		if r <= 0 {
			return t
		}
	}
	return game.EncounterRest
}

// PickEnemy selects a random enemy from the location's pool. An empty pool
// or a dangling reference is a catalog defect and surfaces as Unavailable.
func PickEnemy(rng *rand.Rand, catalog *world.Catalog, loc world.Location) (world.Enemy, error) {
	if len(loc.Enemies) == 0 {
		return world.Enemy{}, errors.Unavailable("location has no enemy pool")
	}
	id := loc.Enemies[rng.Intn(len(loc.Enemies))]
	enemy, ok := catalog.Enemy(id)
	if !ok {
		return world.Enemy{}, errors.Internalf("location references unknown enemy %s", id)
	}
	return enemy, nil
}

// PickChest selects a random chest from the catalog.
func PickChest(rng *rand.Rand, catalog *world.Catalog) (world.Chest, error) {
	if len(catalog.Chests) == 0 {
		return world.Chest{}, errors.Unavailable("world catalog has no chests")
	}
	ids := make([]string, 0, len(catalog.Chests))
	for id := range catalog.Chests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return catalog.Chests[ids[rng.Intn(len(ids))]], nil
}

// PickNPC selects a random NPC from the location's pool.
func PickNPC(rng *rand.Rand, catalog *world.Catalog, loc world.Location) (world.NPC, error) {
	if len(loc.NPCs) == 0 {
		return world.NPC{}, errors.Unavailable("location has no npc pool")
	}
	id := loc.NPCs[rng.Intn(len(loc.NPCs))]
	npc, ok := catalog.NPC(id)
	if !ok {
		return world.NPC{}, errors.Internalf("location references unknown npc %s", id)
	}
	return npc, nil
}
