// Package combat resolves combat turns against a session's combat state.
//
// The state machine is Active(turn) -> Concluded(outcome). Every resolver
// mutates the passed CombatState in place and returns the outcome plus log
// lines; persistence is the caller's concern. All randomness comes from the
// injected *rand.Rand, so a seeded source makes every turn deterministic.
package combat

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/dumblo/adventure-api/internal/entities/game"
	"github.com/dumblo/adventure-api/internal/errors"
)

// Config carries the fallback combat numbers for players with empty gear
// slots.
type Config struct {
	DefaultWeaponPower int
	DefaultDefense     int
}

// Result describes one resolved turn.
type Result struct {
	Outcome     game.Outcome
	Log         []string
	DamageDealt int
	DamageTaken int
	Healed      int
	Crit        bool
}

// Derived combat values for one turn, after class modifiers.
type derived struct {
	weaponPower float64
	scale       float64
	magic       bool
	defense     int
	critChance  float64
}

func derive(cfg Config, mod Modifier, s *game.CombatState) derived {
	var d derived

	weapon := s.Gear.Weapon
	if weapon != nil {
		d.weaponPower = math.Max(float64(weapon.PhysicalDamage), float64(weapon.MagicDamage))
		d.magic = weapon.MagicDamage > 0
	}
	if d.weaponPower <= 0 {
		d.weaponPower = float64(cfg.DefaultWeaponPower)
	}

	if d.magic {
		d.scale = 0.6 * float64(s.Stats.Intelligence)
	} else {
		d.scale = 0.6 * float64(s.Stats.Strength)
	}

	d.defense = cfg.DefaultDefense
	if s.Gear.Armor != nil {
		d.defense = s.Gear.Armor.Defense
	}

	d.critChance = math.Min(0.30, 0.05+0.005*float64(s.Stats.Luck))

	d.weaponPower, d.scale = mod.AdjustWeaponPower(d.weaponPower, d.scale, d.magic)
	d.defense = mod.AdjustDefense(d.defense)
	d.critChance = mod.AdjustCritChance(d.critChance)
	return d
}

// variance is the uniform damage roll factor in [0.90, 1.10).
func variance(rng *rand.Rand) float64 {
	return 0.9 + rng.Float64()*0.2
}

func roundedNonNegative(f float64) int {
	n := int(math.Round(f))
	if n < 0 {
		return 0
	}
	return n
}

// enemyStrike computes one enemy hit against the player's defense. Damage
// never falls below 1.
func enemyStrike(rng *rand.Rand, d derived, s *game.CombatState) int {
	dmg := roundedNonNegative(float64(s.Enemy.Attack)*variance(rng) - float64(d.defense))
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// Resolve applies one player action to the combat state. Non-terminal
// resolutions advance the turn counter by exactly one; a failed flee is a
// non-terminal self-transition, not a terminal state.
func Resolve(rng *rand.Rand, cfg Config, class game.ClassID, s *game.CombatState, action game.Action) (*Result, error) {
	mod := ModifierFor(class)
	d := derive(cfg, mod, s)

	var res *Result
	switch action {
	case game.ActionAttack:
		res = resolveAttack(rng, d, mod, s)
	case game.ActionDefend:
		res = resolveDefend(rng, d, s)
	case game.ActionFlee:
		res = resolveFlee(rng, d, s)
	default:
		return nil, errors.InvalidArgumentf("action %q is not valid in combat", action)
	}

	if !res.Outcome.Terminal() {
		s.Turn++
	}
	return res, nil
}

func resolveAttack(rng *rand.Rand, d derived, mod Modifier, s *game.CombatState) *Result {
	res := &Result{Outcome: game.OutcomeOngoing}

	dmg := (d.weaponPower + d.scale) * variance(rng)
	effectiveCrit := math.Min(0.5, d.critChance+s.NextCritBonus)
	if rng.Float64() < effectiveCrit {
		dmg *= 1.5
		res.Crit = true
	}
	dealt := roundedNonNegative(dmg - float64(s.Enemy.Defense))
	if dealt < 1 {
		dealt = 1
	}

	// The defend bonus is consumed by the attempt, hit or miss.
	s.NextCritBonus = 0

	s.Enemy.HP -= dealt
	if s.Enemy.HP < 0 {
		s.Enemy.HP = 0
	}
	res.DamageDealt = dealt
	if res.Crit {
		res.Log = append(res.Log, fmt.Sprintf("Critical hit! You dealt %d damage to %s.", dealt, s.Enemy.Name))
	} else {
		res.Log = append(res.Log, fmt.Sprintf("You dealt %d damage to %s.", dealt, s.Enemy.Name))
	}

	if s.Enemy.HP <= 0 {
		res.Outcome = game.OutcomeVictory
		res.Log = append(res.Log, fmt.Sprintf("%s was defeated!", s.Enemy.Name))
		return res
	}

	taken := enemyStrike(rng, d, s)
	s.PlayerHP -= taken
	if s.PlayerHP < 0 {
		s.PlayerHP = 0
	}
	res.DamageTaken = taken
	res.Log = append(res.Log, fmt.Sprintf("%s attacked you for %d damage.", s.Enemy.Name, taken))

	if s.PlayerHP <= 0 {
		res.Outcome = game.OutcomeDefeat
		res.Log = append(res.Log, "You were defeated.")
		return res
	}

	if healed := mod.OnNonTerminalAttack(s); healed > 0 {
		res.Healed = healed
		res.Log = append(res.Log, fmt.Sprintf("Divine blessing restored %d HP.", healed))
	}
	return res
}

func resolveDefend(rng *rand.Rand, d derived, s *game.CombatState) *Result {
	res := &Result{Outcome: game.OutcomeOngoing}

	raw := enemyStrike(rng, d, s)
	taken := roundedNonNegative(0.5 * float64(raw))
	if taken < 1 {
		taken = 1
	}
	s.PlayerHP -= taken
	if s.PlayerHP < 0 {
		s.PlayerHP = 0
	}
	res.DamageTaken = taken
	res.Log = append(res.Log, fmt.Sprintf("You braced for the blow and took %d reduced damage.", taken))

	s.NextCritBonus = math.Min(0.20, s.NextCritBonus+0.05)
	res.Log = append(res.Log, "Your next attack has a higher critical chance.")

	if s.PlayerHP <= 0 {
		res.Outcome = game.OutcomeDefeat
		res.Log = append(res.Log, "You were defeated.")
	}
	return res
}

func resolveFlee(rng *rand.Rand, d derived, s *game.CombatState) *Result {
	res := &Result{}

	chance := 0.4 + float64(s.Stats.Agility-s.Enemy.Speed)/20.0
	chance = math.Max(0.1, math.Min(0.9, chance))

	if rng.Float64() < chance {
		res.Outcome = game.OutcomeFled
		res.Log = append(res.Log, "You escaped the fight.")
		return res
	}

	res.Outcome = game.OutcomeFleeFailed
	res.Log = append(res.Log, "You tried to flee but failed!")

	taken := enemyStrike(rng, d, s)
	s.PlayerHP -= taken
	if s.PlayerHP < 0 {
		s.PlayerHP = 0
	}
	res.DamageTaken = taken
	res.Log = append(res.Log, fmt.Sprintf("%s struck you for %d damage.", s.Enemy.Name, taken))

	if s.PlayerHP <= 0 {
		res.Outcome = game.OutcomeDefeat
		res.Log = append(res.Log, "You were defeated.")
	}
	return res
}

// ResolveConsumable applies a consumable heal and the enemy's free attack.
// Inventory bookkeeping (availability, decrement, unequip) happens in the
// orchestrator before this is called. The blessing never triggers here.
func ResolveConsumable(rng *rand.Rand, cfg Config, class game.ClassID, s *game.CombatState, itemName string, healValue int) *Result {
	mod := ModifierFor(class)
	d := derive(cfg, mod, s)

	res := &Result{Outcome: game.OutcomeOngoing}

	before := s.PlayerHP
	if healValue > 0 {
		s.PlayerHP += healValue
		if s.PlayerHP > s.PlayerMaxHP {
			s.PlayerHP = s.PlayerMaxHP
		}
	}
	res.Healed = s.PlayerHP - before
	res.Log = append(res.Log, fmt.Sprintf("You used %s and recovered %d HP.", itemName, res.Healed))

	taken := enemyStrike(rng, d, s)
	s.PlayerHP -= taken
	if s.PlayerHP < 0 {
		s.PlayerHP = 0
	}
	res.DamageTaken = taken
	res.Log = append(res.Log, fmt.Sprintf("%s attacked you for %d damage.", s.Enemy.Name, taken))

	if s.PlayerHP <= 0 {
		res.Outcome = game.OutcomeDefeat
		res.Log = append(res.Log, "You were defeated.")
		return res
	}

	s.Turn++
	return res
}
