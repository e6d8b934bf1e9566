package combat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumblo/adventure-api/internal/entities/game"
	"github.com/dumblo/adventure-api/internal/errors"
)

func testConfig() Config {
	return Config{
		DefaultWeaponPower: 10,
		DefaultDefense:     5,
	}
}

func freshState() *game.CombatState {
	return &game.CombatState{
		Enemy: game.EnemySnapshot{
			ID:      "forest_wolf",
			Name:    "Forest Wolf",
			HP:      30,
			MaxHP:   30,
			Attack:  5,
			Defense: 2,
			Speed:   7,
		},
		PlayerHP:    100,
		PlayerMaxHP: 100,
		Stats: game.Stats{
			Strength:     10,
			Intelligence: 5,
			Agility:      7,
			Vitality:     8,
		},
		Gear: game.Gear{
			Weapon: &game.Weapon{ID: "iron_sword", Name: "Iron Sword", PhysicalDamage: 10},
		},
	}
}

func TestResolve_Attack(t *testing.T) {
	t.Run("damage stays within variance bounds", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))

		for i := 0; i < 200; i++ {
			s := freshState()
			res, err := Resolve(rng, testConfig(), game.ClassWarrior, s, game.ActionAttack)
			require.NoError(t, err)

			// weapon 10 + 0.6*str 6 = 16 base, variance [0.9, 1.1), crit x1.5,
			// minus enemy defense 2, floor 1
			assert.GreaterOrEqual(t, res.DamageDealt, 1)
			assert.LessOrEqual(t, res.DamageDealt, 25)
			assert.Equal(t, 30-res.DamageDealt, s.Enemy.HP)
		}
	})

	t.Run("dealt damage never drops below one", func(t *testing.T) {
		rng := rand.New(rand.NewSource(2))
		s := freshState()
		s.Gear.Weapon = nil
		s.Stats.Strength = 0
		s.Enemy.Defense = 500

		res, err := Resolve(rng, testConfig(), game.ClassWarrior, s, game.ActionAttack)
		require.NoError(t, err)
		assert.Equal(t, 1, res.DamageDealt)
	})

	t.Run("taken damage never drops below one", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))
		s := freshState()
		s.Enemy.HP = 1000
		s.Enemy.Attack = 1
		s.Gear.Armor = &game.Armor{ID: "leather_armor", Defense: 50}

		res, err := Resolve(rng, testConfig(), game.ClassWarrior, s, game.ActionAttack)
		require.NoError(t, err)
		assert.Equal(t, 1, res.DamageTaken)
	})

	t.Run("victory when enemy drops to zero", func(t *testing.T) {
		rng := rand.New(rand.NewSource(4))
		s := freshState()
		s.Enemy.HP = 1

		res, err := Resolve(rng, testConfig(), game.ClassWarrior, s, game.ActionAttack)
		require.NoError(t, err)
		assert.Equal(t, game.OutcomeVictory, res.Outcome)
		assert.Equal(t, 0, s.Enemy.HP)
		assert.Zero(t, res.DamageTaken, "a defeated enemy does not strike back")
		assert.Zero(t, s.Turn, "terminal outcomes do not advance the turn")
	})

	t.Run("defeat when player drops to zero", func(t *testing.T) {
		rng := rand.New(rand.NewSource(5))
		s := freshState()
		s.Enemy.HP = 1000
		s.Enemy.Attack = 500
		s.PlayerHP = 10

		res, err := Resolve(rng, testConfig(), game.ClassWarrior, s, game.ActionAttack)
		require.NoError(t, err)
		assert.Equal(t, game.OutcomeDefeat, res.Outcome)
		assert.Equal(t, 0, s.PlayerHP)
	})

	t.Run("non-terminal attack advances the turn by one", func(t *testing.T) {
		rng := rand.New(rand.NewSource(6))
		s := freshState()
		s.Enemy.HP = 1000

		res, err := Resolve(rng, testConfig(), game.ClassWarrior, s, game.ActionAttack)
		require.NoError(t, err)
		assert.Equal(t, game.OutcomeOngoing, res.Outcome)
		assert.Equal(t, 1, s.Turn)
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		s := freshState()

		_, err := Resolve(rng, testConfig(), game.ClassWarrior, s, game.Action("dance"))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidArgument(err))
	})
}

func TestResolve_Defend(t *testing.T) {
	t.Run("halves incoming damage and banks a crit bonus", func(t *testing.T) {
		rng := rand.New(rand.NewSource(10))
		s := freshState()
		s.Enemy.Attack = 40
		s.Gear.Armor = &game.Armor{ID: "leather_armor", Defense: 0}

		res, err := Resolve(rng, testConfig(), game.ClassWarrior, s, game.ActionDefend)
		require.NoError(t, err)
		assert.Equal(t, game.OutcomeOngoing, res.Outcome)
		// raw is in [36, 44); halved lands in [18, 22]
		assert.GreaterOrEqual(t, res.DamageTaken, 18)
		assert.LessOrEqual(t, res.DamageTaken, 22)
		assert.InDelta(t, 0.05, s.NextCritBonus, 1e-9)
	})

	t.Run("crit bonus caps at twenty percent", func(t *testing.T) {
		rng := rand.New(rand.NewSource(11))
		s := freshState()
		s.Enemy.HP = 1000

		for i := 0; i < 6; i++ {
			_, err := Resolve(rng, testConfig(), game.ClassWarrior, s, game.ActionDefend)
			require.NoError(t, err)
		}
		assert.InDelta(t, 0.20, s.NextCritBonus, 1e-9)
	})

	t.Run("attack consumes the banked bonus hit or miss", func(t *testing.T) {
		rng := rand.New(rand.NewSource(12))
		s := freshState()
		s.Enemy.HP = 1000
		s.NextCritBonus = 0.15

		_, err := Resolve(rng, testConfig(), game.ClassWarrior, s, game.ActionAttack)
		require.NoError(t, err)
		assert.Zero(t, s.NextCritBonus)
	})
}

func TestResolve_Flee(t *testing.T) {
	t.Run("success rate converges on the agility formula", func(t *testing.T) {
		rng := rand.New(rand.NewSource(20))

		const trials = 10000
		fled := 0
		for i := 0; i < trials; i++ {
			s := freshState()
			s.Stats.Agility = s.Enemy.Speed // chance 0.4 exactly
			res, err := Resolve(rng, testConfig(), game.ClassWarrior, s, game.ActionFlee)
			require.NoError(t, err)
			if res.Outcome == game.OutcomeFled {
				fled++
			}
		}
		rate := float64(fled) / trials
		assert.InDelta(t, 0.4, rate, 0.02)
	})

	t.Run("failed flee is non-terminal and advances the turn", func(t *testing.T) {
		rng := rand.New(rand.NewSource(21))

		for i := 0; i < 100; i++ {
			s := freshState()
			s.Stats.Agility = 0
			s.Enemy.Speed = 100 // chance clamps to 0.1
			res, err := Resolve(rng, testConfig(), game.ClassWarrior, s, game.ActionFlee)
			require.NoError(t, err)
			if res.Outcome != game.OutcomeFleeFailed {
				continue
			}
			assert.False(t, res.Outcome.Terminal())
			assert.Equal(t, 1, s.Turn)
			assert.GreaterOrEqual(t, res.DamageTaken, 1, "failed flee grants the enemy a free strike")
			return
		}
		t.Fatal("expected at least one failed flee in 100 attempts at 10% success")
	})

	t.Run("chance clamps to the 0.1-0.9 band", func(t *testing.T) {
		rng := rand.New(rand.NewSource(22))

		const trials = 10000
		fled := 0
		for i := 0; i < trials; i++ {
			s := freshState()
			s.Stats.Agility = 100
			s.Enemy.Speed = 0
			res, err := Resolve(rng, testConfig(), game.ClassWarrior, s, game.ActionFlee)
			require.NoError(t, err)
			if res.Outcome == game.OutcomeFled {
				fled++
			}
		}
		rate := float64(fled) / trials
		assert.InDelta(t, 0.9, rate, 0.02)
	})
}

func TestResolve_ClassModifiers(t *testing.T) {
	t.Run("paladin blessing triggers exactly once", func(t *testing.T) {
		rng := rand.New(rand.NewSource(30))
		s := freshState()
		s.Enemy.HP = 100000
		s.Enemy.Attack = 1
		s.PlayerHP = 50

		first, err := Resolve(rng, testConfig(), game.ClassPaladin, s, game.ActionAttack)
		require.NoError(t, err)
		require.Equal(t, game.OutcomeOngoing, first.Outcome)
		assert.Equal(t, 5, first.Healed, "5% of 100 max HP")
		assert.True(t, s.PaladinBlessingUsed)

		second, err := Resolve(rng, testConfig(), game.ClassPaladin, s, game.ActionAttack)
		require.NoError(t, err)
		require.Equal(t, game.OutcomeOngoing, second.Outcome)
		assert.Zero(t, second.Healed, "blessing never re-arms")
	})

	t.Run("mage boost applies only to magic weapons", func(t *testing.T) {
		mod := ModifierFor(game.ClassMage)

		power, scale := mod.AdjustWeaponPower(10, 6, true)
		assert.InDelta(t, 11.5, power, 1e-9)
		assert.InDelta(t, 6.9, scale, 1e-9)

		power, scale = mod.AdjustWeaponPower(10, 6, false)
		assert.InDelta(t, 10.0, power, 1e-9)
		assert.InDelta(t, 6.0, scale, 1e-9)
	})

	t.Run("warrior defense bonus rounds", func(t *testing.T) {
		mod := ModifierFor(game.ClassWarrior)
		assert.Equal(t, 11, mod.AdjustDefense(10))
		assert.Equal(t, 6, mod.AdjustDefense(5))
	})

	t.Run("archer crit bonus caps at forty percent", func(t *testing.T) {
		mod := ModifierFor(game.ClassArcher)
		assert.InDelta(t, 0.12, mod.AdjustCritChance(0.10), 1e-9)
		assert.InDelta(t, 0.40, mod.AdjustCritChance(0.50), 1e-9)
	})

	t.Run("unknown class gets the neutral passive", func(t *testing.T) {
		mod := ModifierFor(game.ClassID("bard"))
		assert.Equal(t, 7, mod.AdjustDefense(7))
	})
}

func TestResolveConsumable(t *testing.T) {
	t.Run("heals capped at max HP with a free enemy strike", func(t *testing.T) {
		rng := rand.New(rand.NewSource(40))
		s := freshState()
		s.Enemy.HP = 1000
		s.PlayerHP = 95

		res := ResolveConsumable(rng, testConfig(), game.ClassWarrior, s, "Healing Potion", 45)
		assert.Equal(t, 5, res.Healed, "heal caps at max HP")
		assert.GreaterOrEqual(t, res.DamageTaken, 1)
		assert.Equal(t, game.OutcomeOngoing, res.Outcome)
		assert.Equal(t, 1, s.Turn)
	})

	t.Run("enemy strike can still defeat the player", func(t *testing.T) {
		rng := rand.New(rand.NewSource(41))
		s := freshState()
		s.Enemy.HP = 1000
		s.Enemy.Attack = 500
		s.PlayerHP = 5

		res := ResolveConsumable(rng, testConfig(), game.ClassWarrior, s, "Minor Healing Potion", 20)
		assert.Equal(t, game.OutcomeDefeat, res.Outcome)
		assert.Equal(t, 0, s.PlayerHP)
	})
}
