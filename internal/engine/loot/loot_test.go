package loot

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumblo/adventure-api/internal/entities/game"
	"github.com/dumblo/adventure-api/internal/world"
)

func lootCatalog() *world.Catalog {
	return &world.Catalog{
		Items: map[string]world.Item{
			"potion": {
				ID: "potion", Name: "Potion", Type: world.ItemConsumable,
				Rarity: world.RarityCommon, Stackable: true, SellPrice: 8,
			},
			"sword": {
				ID: "sword", Name: "Sword", Type: world.ItemWeapon,
				Rarity: world.RarityRare, Stackable: false, SellPrice: 35,
			},
		},
	}
}

func TestVictoryRewards(t *testing.T) {
	t.Run("gold lands in the enemy range", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		enemy := game.EnemySnapshot{RewardXP: 60, GoldMin: 10, GoldMax: 25}

		for i := 0; i < 500; i++ {
			xp, lupins := VictoryRewards(rng, enemy)
			assert.Equal(t, 60, xp)
			assert.GreaterOrEqual(t, lupins, 10)
			assert.LessOrEqual(t, lupins, 24, "floor of min + r*(max-min) with r < 1")
		}
	})

	t.Run("degenerate gold range pays the minimum", func(t *testing.T) {
		rng := rand.New(rand.NewSource(2))
		_, lupins := VictoryRewards(rng, game.EnemySnapshot{GoldMin: 12, GoldMax: 3})
		assert.Equal(t, 12, lupins)
	})
}

func TestApplyLevelUps(t *testing.T) {
	t.Run("below threshold nothing happens", func(t *testing.T) {
		p := &game.Player{Level: 0, XP: 999}
		r := ApplyLevelUps(p)
		assert.Zero(t, r.Levels)
		assert.Equal(t, 0, p.Level)
		assert.Equal(t, 999, p.XP)
	})

	t.Run("exact threshold levels once", func(t *testing.T) {
		p := &game.Player{Level: 0, XP: 1000}
		r := ApplyLevelUps(p)
		assert.Equal(t, 1, r.Levels)
		assert.Equal(t, 1, p.Level)
		assert.Equal(t, 0, p.XP)
		assert.Equal(t, 5, p.StatusPoints)
	})

	t.Run("single grant can jump multiple levels", func(t *testing.T) {
		p := &game.Player{Level: 0, XP: 5000}
		r := ApplyLevelUps(p)
		// 5000 -> level 1 (costs 1000) -> level 2 (costs 2000); 3000 needed
		// for level 3 but only 2000 remain
		assert.Equal(t, 2, r.Levels)
		assert.Equal(t, 2, p.Level)
		assert.Equal(t, 2000, p.XP)
		assert.Equal(t, 10, p.StatusPoints)
	})

	t.Run("carryover accumulates across grants", func(t *testing.T) {
		p := &game.Player{Level: 1, XP: 1999}
		require.Zero(t, ApplyLevelUps(p).Levels)

		p.XP++
		r := ApplyLevelUps(p)
		assert.Equal(t, 1, r.Levels)
		assert.Equal(t, 2, p.Level)
		assert.Equal(t, 0, p.XP)
	})
}

func TestOpenChest(t *testing.T) {
	t.Run("certain trap and certain loot", func(t *testing.T) {
		rng := rand.New(rand.NewSource(10))
		chest := world.Chest{
			TrapChance: 1.0,
			TrapDamage: 8,
			LootTable: []world.LootEntry{
				{Chance: 1.0, Gold: &world.GoldRange{Min: 10, Max: 10}},
				{Chance: 1.0, ItemID: "potion", Quantity: 2},
			},
		}

		res := OpenChest(rng, lootCatalog(), game.ClassWarrior, chest, nil, 20)
		assert.True(t, res.Trapped)
		assert.Equal(t, 8, res.TrapDamage)
		assert.Equal(t, 10, res.Lupins)
		require.Len(t, res.Inventory, 1)
		assert.Equal(t, game.ItemStack{ItemID: "potion", Quantity: 2}, res.Inventory[0])
	})

	t.Run("stackables merge into an existing stack", func(t *testing.T) {
		rng := rand.New(rand.NewSource(11))
		chest := world.Chest{
			LootTable: []world.LootEntry{{Chance: 1.0, ItemID: "potion", Quantity: 3}},
		}
		inv := []game.ItemStack{{ItemID: "potion", Quantity: 2}}

		res := OpenChest(rng, lootCatalog(), game.ClassWarrior, chest, inv, 1)
		require.Len(t, res.Inventory, 1)
		assert.Equal(t, 5, res.Inventory[0].Quantity)
		assert.Equal(t, 2, inv[0].Quantity, "input inventory is not mutated")
	})

	t.Run("overflow converts to currency at sell price", func(t *testing.T) {
		rng := rand.New(rand.NewSource(12))
		chest := world.Chest{
			LootTable: []world.LootEntry{{Chance: 1.0, ItemID: "sword", Quantity: 2}},
		}
		inv := []game.ItemStack{{ItemID: "potion", Quantity: 1}}

		// Capacity 2 and one slot used: two non-stackable swords don't fit.
		res := OpenChest(rng, lootCatalog(), game.ClassWarrior, chest, inv, 2)
		assert.Len(t, res.Inventory, 1)
		assert.Equal(t, 70, res.Lupins, "2 swords at sell price 35")
	})

	t.Run("non-stackables claim one slot per unit", func(t *testing.T) {
		rng := rand.New(rand.NewSource(13))
		chest := world.Chest{
			LootTable: []world.LootEntry{{Chance: 1.0, ItemID: "sword", Quantity: 2}},
		}

		res := OpenChest(rng, lootCatalog(), game.ClassWarrior, chest, nil, 2)
		require.Len(t, res.Inventory, 2)
		for _, stack := range res.Inventory {
			assert.Equal(t, game.ItemStack{ItemID: "sword", Quantity: 1}, stack)
		}
	})

	t.Run("rogues find rare items more often", func(t *testing.T) {
		chest := world.Chest{
			LootTable: []world.LootEntry{{Chance: 0.5, ItemID: "sword", Quantity: 1}},
		}

		const trials = 10000
		count := func(class game.ClassID, seed int64) int {
			rng := rand.New(rand.NewSource(seed))
			found := 0
			for i := 0; i < trials; i++ {
				res := OpenChest(rng, lootCatalog(), class, chest, nil, 20)
				if len(res.Inventory) > 0 {
					found++
				}
			}
			return found
		}

		warrior := count(game.ClassWarrior, 14)
		rogue := count(game.ClassRogue, 14)
		assert.InDelta(t, 0.50, float64(warrior)/trials, 0.02)
		assert.InDelta(t, 0.65, float64(rogue)/trials, 0.02, "0.5 boosted by 1.3")
	})

	t.Run("rogue boost skips common items", func(t *testing.T) {
		chest := world.Chest{
			LootTable: []world.LootEntry{{Chance: 0.5, ItemID: "potion", Quantity: 1}},
		}

		const trials = 10000
		rng := rand.New(rand.NewSource(15))
		found := 0
		for i := 0; i < trials; i++ {
			res := OpenChest(rng, lootCatalog(), game.ClassRogue, chest, nil, 20)
			if len(res.Inventory) > 0 {
				found++
			}
		}
		assert.InDelta(t, 0.50, float64(found)/trials, 0.02)
	})
}

func TestNPCRewards(t *testing.T) {
	rng := rand.New(rand.NewSource(20))

	const trials = 10000
	withLupins := 0
	for i := 0; i < trials; i++ {
		xp, lupins := NPCRewards(rng)
		assert.GreaterOrEqual(t, xp, 20)
		assert.LessOrEqual(t, xp, 59)
		if lupins > 0 {
			withLupins++
			assert.GreaterOrEqual(t, lupins, 10)
			assert.LessOrEqual(t, lupins, 29)
		}
	}
	assert.InDelta(t, 0.25, float64(withLupins)/trials, 0.02)
}

func TestSpecialEvent(t *testing.T) {
	rng := rand.New(rand.NewSource(30))

	const trials = 10000
	shrines := 0
	for i := 0; i < trials; i++ {
		shrine, amount := SpecialEvent(rng, 8)
		if shrine {
			shrines++
			assert.Equal(t, 32, amount, "20 + floor(1.5*8)")
		} else {
			assert.Equal(t, 19, amount, "15 + floor(0.5*8)")
		}
	}
	assert.InDelta(t, 0.5, float64(shrines)/trials, 0.02)
}

func TestRestHeal(t *testing.T) {
	assert.Equal(t, 15, RestHeal(0))
	assert.Equal(t, 24, RestHeal(8), "15 + floor(1.2*8)")
	assert.Equal(t, 27, RestHeal(10))
}
