// Package loot computes rewards: combat victory payouts, chest loot with a
// capacity-bounded inventory merge, NPC conversation rewards, special
// events, and the level-up loop. Functions return deltas or updated copies;
// applying them to the player record is the orchestrator's job.
package loot

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/dumblo/adventure-api/internal/entities/game"
	"github.com/dumblo/adventure-api/internal/world"
)

// XP required to advance from the given level.
func xpThreshold(level int) int {
	return (level + 1) * 1000
}

// StatusPointsPerLevel is granted on each level gained.
const StatusPointsPerLevel = 5

// VictoryRewards rolls the payout for defeating the enemy.
func VictoryRewards(rng *rand.Rand, enemy game.EnemySnapshot) (xp, lupins int) {
	xp = enemy.RewardXP

	goldMin, goldMax := enemy.GoldMin, enemy.GoldMax
	if goldMax < goldMin {
		goldMax = goldMin
	}
	lupins = int(math.Floor(float64(goldMin) + rng.Float64()*float64(goldMax-goldMin)))
	if lupins < 0 {
		lupins = 0
	}
	return xp, lupins
}

// LevelUpResult summarizes a level-up pass.
type LevelUpResult struct {
	Levels       int
	StatusPoints int
}

// ApplyLevelUps consumes XP while it meets the next threshold, supporting
// multi-level jumps from a single grant. Threshold from level L is
// (L+1)*1000.
func ApplyLevelUps(p *game.Player) LevelUpResult {
	var r LevelUpResult
	for p.XP >= xpThreshold(p.Level) {
		p.XP -= xpThreshold(p.Level)
		p.Level++
		p.StatusPoints += StatusPointsPerLevel
		r.Levels++
		r.StatusPoints += StatusPointsPerLevel
	}
	return r
}

// ChestResult is the outcome of opening a chest.
type ChestResult struct {
	Trapped    bool
	TrapDamage int
	Lupins     int
	Inventory  []game.ItemStack
	Log        []string
}

// rogueLootMultiplier boosts rare-and-above item chances for rogues.
const rogueLootMultiplier = 1.3

// OpenChest resolves a chest: trap roll first, then each loot entry rolled
// independently. Items that don't fit the capacity-bounded inventory are
// converted to currency at sell price, never silently discarded. The input
// inventory is not mutated; the merged copy is returned in the result.
func OpenChest(rng *rand.Rand, catalog *world.Catalog, class game.ClassID, chest world.Chest, inventory []game.ItemStack, capacity int) ChestResult {
	res := ChestResult{
		Inventory: append([]game.ItemStack(nil), inventory...),
	}

	if rng.Float64() < chest.TrapChance {
		res.Trapped = true
		res.TrapDamage = chest.TrapDamage
		res.Log = append(res.Log, fmt.Sprintf("A trap triggered! You lost %d HP.", chest.TrapDamage))
	}

	for _, entry := range chest.LootTable {
		chance := entry.Chance
		var item world.Item
		if entry.ItemID != "" {
			var ok bool
			item, ok = catalog.Item(entry.ItemID)
			if !ok {
				continue
			}
			if class == game.ClassRogue && item.Rarity.AtLeastRare() {
				chance = math.Min(1.0, chance*rogueLootMultiplier)
			}
		}

		if rng.Float64() >= chance {
			continue
		}

		switch {
		case entry.Gold != nil:
			gained := rollGold(rng, entry.Gold.Min, entry.Gold.Max)
			res.Lupins += gained
			res.Log = append(res.Log, fmt.Sprintf("You found %d lupins in the chest.", gained))
		case entry.ItemID != "":
			qty := entry.Quantity
			if qty < 1 {
				qty = 1
			}
			if added := addToInventory(&res.Inventory, capacity, item, qty); added {
				res.Log = append(res.Log, fmt.Sprintf("Added %s x%d to your inventory.", item.Name, qty))
			} else {
				sell := item.SellPrice * qty
				res.Lupins += sell
				res.Log = append(res.Log, fmt.Sprintf("Inventory full: %s x%d converted to %d lupins.", item.Name, qty, sell))
			}
		}
	}
	return res
}

func rollGold(rng *rand.Rand, minGold, maxGold int) int {
	if maxGold < minGold {
		maxGold = minGold
	}
	g := int(math.Floor(float64(minGold) + rng.Float64()*float64(maxGold-minGold)))
	if g < 0 {
		g = 0
	}
	return g
}

// addToInventory merges qty units of an item into the inventory, honoring
// capacity. Stackables join an existing stack or claim one free slot;
// non-stackables need qty free slots. Returns false when nothing fits;
// partial adds are not allowed.
func addToInventory(inventory *[]game.ItemStack, capacity int, item world.Item, qty int) bool {
	inv := *inventory

	if item.Stackable {
		for i := range inv {
			if inv[i].ItemID == item.ID {
				inv[i].Quantity += qty
				return true
			}
		}
		if len(inv) < capacity {
			*inventory = append(inv, game.ItemStack{ItemID: item.ID, Quantity: qty})
			return true
		}
		return false
	}

	if len(inv)+qty > capacity {
		return false
	}
	for i := 0; i < qty; i++ {
		inv = append(inv, game.ItemStack{ItemID: item.ID, Quantity: 1})
	}
	*inventory = inv
	return true
}

// NPCRewards rolls the flat conversation reward: 20-59 XP and a 25% chance
// of 10-29 lupins.
func NPCRewards(rng *rand.Rand) (xp, lupins int) {
	xp = 20 + rng.Intn(40)
	if rng.Float64() < 0.25 {
		lupins = 10 + rng.Intn(20)
	}
	return xp, lupins
}

// SpecialEvent rolls the 50/50 shrine-or-trap one-shot. Shrines heal
// 20+floor(1.5*vit); traps deal 15+floor(0.5*vit).
func SpecialEvent(rng *rand.Rand, vitality int) (shrine bool, amount int) {
	shrine = rng.Float64() < 0.5
	if shrine {
		amount = 20 + int(math.Floor(1.5*float64(vitality)))
	} else {
		amount = 15 + int(math.Floor(0.5*float64(vitality)))
	}
	return shrine, amount
}

// RestHeal is the safe-campsite recovery amount.
func RestHeal(vitality int) int {
	return 15 + int(math.Floor(1.2*float64(vitality)))
}
