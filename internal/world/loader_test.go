package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumblo/adventure-api/internal/entities/game"
	"github.com/dumblo/adventure-api/internal/errors"
)

const validWorld = `
locations:
  forest:
    name: Forest
    level: 1
    encounters:
      combat: 0.6
      chest: 0.4
    enemies: [wolf]
    npcs: [hermit]
enemies:
  wolf:
    name: Wolf
    stats: { hp: 30, attack: 5, defense: 2, speed: 7 }
    rewards: { xp: 35, goldMin: 5, goldMax: 15 }
chests:
  wooden:
    name: wooden chest
    trapChance: 0.1
    trapDamage: 8
    lootTable:
      - { chance: 0.8, gold: { min: 10, max: 30 } }
      - { chance: 0.5, itemId: potion, quantity: 2 }
npcs:
  hermit:
    name: Hermit
    type: sage
    dialogue: "hello"
items:
  potion:
    name: Potion
    type: consumable
    rarity: common
    stackable: true
    sellPrice: 8
    effect: { kind: heal, value: 20 }
`

func TestParse(t *testing.T) {
	t.Run("valid catalog", func(t *testing.T) {
		c, err := Parse([]byte(validWorld))
		require.NoError(t, err)

		loc, ok := c.Location("forest")
		require.True(t, ok)
		assert.Equal(t, "forest", loc.ID, "id backfilled from the map key")
		assert.InDelta(t, 0.6, loc.EncounterWeight(game.EncounterCombat), 1e-9)
		assert.Zero(t, loc.EncounterWeight(game.EncounterRest))

		enemy, ok := c.Enemy("wolf")
		require.True(t, ok)
		assert.Equal(t, 30, enemy.Stats.MaxHP, "max hp backfilled from hp")

		item, ok := c.Item("potion")
		require.True(t, ok)
		assert.Equal(t, "heal", item.Effect.Kind)
		assert.True(t, item.Stackable)
	})

	t.Run("dangling enemy reference", func(t *testing.T) {
		broken := `
locations:
  forest:
    name: Forest
    level: 1
    enemies: [dragon]
`
		_, err := Parse([]byte(broken))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("dangling chest item reference", func(t *testing.T) {
		broken := `
locations:
  forest:
    name: Forest
    level: 1
chests:
  wooden:
    name: wooden chest
    lootTable:
      - { chance: 0.5, itemId: ghost_item }
`
		_, err := Parse([]byte(broken))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("empty catalog is unavailable", func(t *testing.T) {
		_, err := Parse([]byte(`{}`))
		require.Error(t, err)
		assert.True(t, errors.IsUnavailable(err))
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("locations: ["))
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validWorld), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Locations, 1)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestRarity_AtLeastRare(t *testing.T) {
	assert.False(t, RarityCommon.AtLeastRare())
	assert.False(t, RarityUncommon.AtLeastRare())
	assert.True(t, RarityRare.AtLeastRare())
	assert.True(t, RarityEpic.AtLeastRare())
	assert.True(t, RarityLegendary.AtLeastRare())
}
