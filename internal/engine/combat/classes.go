package combat

import (
	"math"

	"github.com/dumblo/adventure-api/internal/entities/game"
)

// Modifier is the class passive capability. Each hook adjusts one derived
// combat value; OnNonTerminalAttack runs after an attack exchange that left
// both sides standing.
type Modifier interface {
	AdjustWeaponPower(power, scale float64, magic bool) (float64, float64)
	AdjustDefense(defense int) int
	AdjustCritChance(chance float64) float64
	OnNonTerminalAttack(s *game.CombatState) (healed int)
}

// ModifierFor returns the passive for a class. Unknown classes get the
// neutral passive. The rogue passive lives in the loot resolver, not here.
func ModifierFor(class game.ClassID) Modifier {
	switch class {
	case game.ClassMage:
		return mageModifier{}
	case game.ClassWarrior:
		return warriorModifier{}
	case game.ClassArcher:
		return archerModifier{}
	case game.ClassPaladin:
		return paladinModifier{}
	default:
		return neutralModifier{}
	}
}

type neutralModifier struct{}

func (neutralModifier) AdjustWeaponPower(power, scale float64, _ bool) (float64, float64) {
	return power, scale
}
func (neutralModifier) AdjustDefense(defense int) int          { return defense }
func (neutralModifier) AdjustCritChance(chance float64) float64 { return chance }
func (neutralModifier) OnNonTerminalAttack(_ *game.CombatState) int { return 0 }

// mageModifier boosts magic weapon power and intelligence scaling by 15%.
type mageModifier struct{ neutralModifier }

func (mageModifier) AdjustWeaponPower(power, scale float64, magic bool) (float64, float64) {
	if !magic {
		return power, scale
	}
	return power * 1.15, scale * 1.15
}

// warriorModifier grants 10% extra defense, rounded.
type warriorModifier struct{ neutralModifier }

func (warriorModifier) AdjustDefense(defense int) int {
	return int(math.Round(float64(defense) * 1.10))
}

// archerModifier grants 20% relative crit chance, capped at 40%.
type archerModifier struct{ neutralModifier }

func (archerModifier) AdjustCritChance(chance float64) float64 {
	return math.Min(0.40, chance*1.2)
}

// paladinModifier heals 5% of max HP once per session, after the first
// attack exchange that leaves combat unresolved. It never re-arms.
type paladinModifier struct{ neutralModifier }

func (paladinModifier) OnNonTerminalAttack(s *game.CombatState) int {
	if s.PaladinBlessingUsed {
		return 0
	}
	s.PaladinBlessingUsed = true

	regen := int(math.Floor(float64(s.PlayerMaxHP) * 0.05))
	if regen < 1 {
		regen = 1
	}
	before := s.PlayerHP
	s.PlayerHP += regen
	if s.PlayerHP > s.PlayerMaxHP {
		s.PlayerHP = s.PlayerMaxHP
	}
	return s.PlayerHP - before
}
