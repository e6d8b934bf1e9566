// Package adventure implements the adventure orchestrator: it rolls
// encounters, dispatches player actions against active sessions, and settles
// rewards into the durable player record.
package adventure

//go:generate mockgen -destination=mock/mock_service.go -package=adventuremock github.com/dumblo/adventure-api/internal/orchestrators/adventure Service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/dumblo/adventure-api/internal/config"
	"github.com/dumblo/adventure-api/internal/dialogue"
	"github.com/dumblo/adventure-api/internal/engine/combat"
	"github.com/dumblo/adventure-api/internal/engine/encounter"
	"github.com/dumblo/adventure-api/internal/engine/loot"
	"github.com/dumblo/adventure-api/internal/entities/game"
	"github.com/dumblo/adventure-api/internal/errors"
	"github.com/dumblo/adventure-api/internal/pkg/clock"
	"github.com/dumblo/adventure-api/internal/pkg/idgen"
	adventuresession "github.com/dumblo/adventure-api/internal/repositories/adventure_session"
	playerrepo "github.com/dumblo/adventure-api/internal/repositories/player"
	"github.com/dumblo/adventure-api/internal/world"
)

// Service defines the interface for adventure operations
type Service interface {
	// StartAdventure rolls a new encounter for the user
	StartAdventure(ctx context.Context, input *StartAdventureInput) (*StartAdventureOutput, error)

	// DispatchAction applies a player action to their active session
	DispatchAction(ctx context.Context, input *DispatchActionInput) (*DispatchActionOutput, error)

	// ViewInventory lists the player's inventory and equipped gear
	ViewInventory(ctx context.Context, input *ViewInventoryInput) (*ViewInventoryOutput, error)

	// UseItemOutOfCombat consumes a healing item outside an encounter
	UseItemOutOfCombat(ctx context.Context, input *UseItemOutOfCombatInput) (*UseItemOutOfCombatOutput, error)
}

// Config holds the dependencies for the adventure orchestrator
type Config struct {
	SessionRepo adventuresession.Repository
	PlayerRepo  playerrepo.Repository
	Catalog     *world.Catalog
	Dialogue    dialogue.Generator
	IDGenerator idgen.Generator
	Clock       clock.Clock

	// Random is the shared random source. Nil seeds one from the clock;
	// tests inject a seeded source for determinism.
	Random *rand.Rand

	Game config.Game
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.SessionRepo == nil {
		vb.RequiredField("SessionRepo")
	}
	if c.PlayerRepo == nil {
		vb.RequiredField("PlayerRepo")
	}
	if c.Catalog == nil {
		vb.RequiredField("Catalog")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}

	return vb.Build()
}

type orchestrator struct {
	sessions adventuresession.Repository
	players  playerrepo.Repository
	catalog  *world.Catalog
	dialogue dialogue.Generator
	idGen    idgen.Generator
	clock    clock.Clock
	game     config.Game

	// rand.Rand is not goroutine-safe; randMu serializes draws.
	randMu sync.Mutex
	rng    *rand.Rand

	// Per-user locks serialize in-process access so each user's actions
	// resolve one at a time.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewOrchestrator creates a new adventure orchestrator with the provided
// dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	rng := cfg.Random
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Clock.Now().UnixNano())) // #nosec G404 -- game randomness, not crypto
	}
	gen := cfg.Dialogue
	if gen == nil {
		gen = dialogue.Disabled{}
	}

	return &orchestrator{
		sessions: cfg.SessionRepo,
		players:  cfg.PlayerRepo,
		catalog:  cfg.Catalog,
		dialogue: gen,
		idGen:    cfg.IDGenerator,
		clock:    cfg.Clock,
		game:     cfg.Game,
		rng:      rng,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// Ensure orchestrator implements Service
var _ Service = (*orchestrator)(nil)

func (o *orchestrator) lockUser(userID string) func() {
	o.locksMu.Lock()
	mu, ok := o.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		o.locks[userID] = mu
	}
	o.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (o *orchestrator) withRand(fn func(rng *rand.Rand)) {
	o.randMu.Lock()
	defer o.randMu.Unlock()
	fn(o.rng)
}

func (o *orchestrator) combatConfig() combat.Config {
	return combat.Config{
		DefaultWeaponPower: o.game.StartingAttack,
		DefaultDefense:     o.game.StartingDefense,
	}
}

func (o *orchestrator) capacity(p *game.Player) int {
	if p.InventoryCapacity > 0 {
		return p.InventoryCapacity
	}
	return o.game.MaxInventorySize
}

// StartAdventure rolls a new encounter for the user. Combat, chest and NPC
// encounters open a leased session; special and rest encounters resolve
// immediately and never touch the session store.
func (o *orchestrator) StartAdventure(ctx context.Context, input *StartAdventureInput) (*StartAdventureOutput, error) {
	if input == nil || input.UserID == "" {
		return nil, errors.InvalidArgument("user ID is required")
	}
	defer o.lockUser(input.UserID)()

	playerOut, err := o.players.Get(ctx, playerrepo.GetInput{UserID: input.UserID})
	if err != nil {
		return nil, err
	}
	p := playerOut.Player

	if p.HP <= 0 {
		return nil, errors.FailedPrecondition("player is incapacitated and cannot adventure")
	}

	// A marker pointing at a live session blocks a second start. A marker
	// whose session is gone is stale and gets cleared.
	if marker, markerErr := o.sessions.GetMarker(ctx, adventuresession.GetMarkerInput{UserID: input.UserID}); markerErr == nil {
		if _, getErr := o.sessions.Get(ctx, adventuresession.GetInput{ID: marker.SessionID}); getErr == nil {
			return nil, errors.AlreadyExists("an adventure is already in progress")
		} else if !errors.IsNotFound(getErr) {
			return nil, getErr
		}
		if _, clearErr := o.sessions.ClearMarker(ctx, adventuresession.ClearMarkerInput{UserID: input.UserID}); clearErr != nil {
			return nil, clearErr
		}
		slog.InfoContext(ctx, "cleared stale adventure marker", "user_id", input.UserID)
	} else if !errors.IsNotFound(markerErr) {
		return nil, markerErr
	}

	var (
		loc           world.Location
		encounterType game.EncounterType
		locErr        error
	)
	o.withRand(func(rng *rand.Rand) {
		loc, locErr = encounter.SelectLocation(rng, o.catalog, p.Level)
		if locErr != nil {
			return
		}
		encounterType = encounter.RollEncounter(rng, loc)
	})
	if locErr != nil {
		return nil, locErr
	}

	switch encounterType {
	case game.EncounterSpecial:
		return o.startSpecial(ctx, p, loc)
	case game.EncounterRest:
		return o.startRest(ctx, p, loc)
	}

	sess := &game.AdventureSession{
		ID:         o.idGen.Generate(),
		UserID:     input.UserID,
		Type:       encounterType,
		LocationID: loc.ID,
	}
	var narration []string

	switch encounterType {
	case game.EncounterCombat:
		var (
			enemy    world.Enemy
			enemyErr error
		)
		o.withRand(func(rng *rand.Rand) {
			enemy, enemyErr = encounter.PickEnemy(rng, o.catalog, loc)
		})
		if enemyErr != nil {
			return nil, enemyErr
		}
		sess.Combat = &game.CombatState{
			Enemy: game.EnemySnapshot{
				ID:       enemy.ID,
				Name:     enemy.Name,
				HP:       enemy.Stats.HP,
				MaxHP:    enemy.Stats.MaxHP,
				Attack:   enemy.Stats.Attack,
				Defense:  enemy.Stats.Defense,
				Speed:    enemy.Stats.Speed,
				RewardXP: enemy.Rewards.XP,
				GoldMin:  enemy.Rewards.GoldMin,
				GoldMax:  enemy.Rewards.GoldMax,
			},
			PlayerHP:    p.HP,
			PlayerMaxHP: p.MaxHP(o.game.StartingHP),
			Stats:       p.Stats,
			Gear:        p.Gear,
		}
		narration = append(narration, fmt.Sprintf("A %s blocks your path in %s!", enemy.Name, loc.Name))

	case game.EncounterChest:
		var (
			chest    world.Chest
			chestErr error
		)
		o.withRand(func(rng *rand.Rand) {
			chest, chestErr = encounter.PickChest(rng, o.catalog)
		})
		if chestErr != nil {
			return nil, chestErr
		}
		sess.ChestID = chest.ID
		narration = append(narration, fmt.Sprintf("You found %s in %s.", chest.Name, loc.Name))

	case game.EncounterNPC:
		var (
			npc    world.NPC
			npcErr error
		)
		o.withRand(func(rng *rand.Rand) {
			npc, npcErr = encounter.PickNPC(rng, o.catalog, loc)
		})
		if npcErr != nil {
			return nil, npcErr
		}
		sess.NPCID = npc.ID
		narration = append(narration, fmt.Sprintf("You meet %s in %s.", npc.Name, loc.Name))

	default:
		return nil, errors.Internalf("unhandled encounter type %s", encounterType)
	}

	created, err := o.sessions.Create(ctx, adventuresession.CreateInput{
		Session: sess,
		TTL:     o.game.SessionTTL,
	})
	if err != nil {
		if errors.IsAlreadyExists(err) {
			return nil, errors.AlreadyExists("an adventure is already in progress")
		}
		return nil, err
	}
	sess = created.Session

	slog.InfoContext(ctx, "adventure started",
		"user_id", input.UserID,
		"session_id", sess.ID,
		"encounter_type", sess.Type,
		"location_id", sess.LocationID,
	)

	view := o.encounterView(sess, loc, p, narration)
	return &StartAdventureOutput{View: view}, nil
}

func (o *orchestrator) startSpecial(ctx context.Context, p *game.Player, loc world.Location) (*StartAdventureOutput, error) {
	var (
		shrine bool
		amount int
	)
	o.withRand(func(rng *rand.Rand) {
		shrine, amount = loot.SpecialEvent(rng, p.Stats.Vitality)
	})

	var narration []string
	if shrine {
		maxHP := p.MaxHP(o.game.StartingHP)
		before := p.HP
		p.HP += amount
		if p.HP > maxHP {
			p.HP = maxHP
		}
		narration = append(narration, fmt.Sprintf("You found an ancient shrine and recovered %d HP.", p.HP-before))
	} else {
		p.HP -= amount
		if p.HP < 0 {
			p.HP = 0
		}
		narration = append(narration, fmt.Sprintf("A hidden trap caught you for %d damage!", amount))
	}

	updated, err := o.players.Update(ctx, playerrepo.UpdateInput{
		UserID: p.ID,
		Fields: map[string]interface{}{"hp": p.HP},
	})
	if err != nil {
		return nil, err
	}

	view := o.encounterView(&game.AdventureSession{Type: game.EncounterSpecial, LocationID: loc.ID}, loc, updated.Player, narration)
	view.Concluded = true
	return &StartAdventureOutput{View: view}, nil
}

func (o *orchestrator) startRest(ctx context.Context, p *game.Player, loc world.Location) (*StartAdventureOutput, error) {
	heal := loot.RestHeal(p.Stats.Vitality)
	maxHP := p.MaxHP(o.game.StartingHP)
	before := p.HP
	p.HP += heal
	if p.HP > maxHP {
		p.HP = maxHP
	}

	updated, err := o.players.Update(ctx, playerrepo.UpdateInput{
		UserID: p.ID,
		Fields: map[string]interface{}{"hp": p.HP},
	})
	if err != nil {
		return nil, err
	}

	narration := []string{fmt.Sprintf("You rest at a safe campsite and recover %d HP.", p.HP-before)}
	view := o.encounterView(&game.AdventureSession{Type: game.EncounterRest, LocationID: loc.ID}, loc, updated.Player, narration)
	view.Concluded = true
	return &StartAdventureOutput{View: view}, nil
}

// DispatchAction applies one player action to their active session. All
// player writes land before the session is deleted, so a crash between the
// two leaves a settled player and at worst an orphan session that expires.
func (o *orchestrator) DispatchAction(ctx context.Context, input *DispatchActionInput) (*DispatchActionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	vb := errors.NewValidationBuilder()
	if input.UserID == "" {
		vb.RequiredField("UserID")
	}
	if input.SessionID == "" {
		vb.RequiredField("SessionID")
	}
	if input.Action == "" {
		vb.RequiredField("Action")
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}
	defer o.lockUser(input.UserID)()

	sessOut, err := o.sessions.Get(ctx, adventuresession.GetInput{ID: input.SessionID})
	if err != nil {
		return nil, err
	}
	sess := sessOut.Session

	if sess.UserID != input.UserID {
		return nil, errors.PermissionDenied("session belongs to another user")
	}

	playerOut, err := o.players.Get(ctx, playerrepo.GetInput{UserID: input.UserID})
	if err != nil {
		return nil, err
	}
	p := playerOut.Player

	loc, _ := o.catalog.Location(sess.LocationID)

	switch sess.Type {
	case game.EncounterCombat:
		return o.dispatchCombat(ctx, sess, loc, p, input.Action)
	case game.EncounterChest:
		if input.Action != game.ActionOpenChest {
			return nil, errors.InvalidArgumentf("action %q is not valid for a chest encounter", input.Action)
		}
		return o.dispatchChest(ctx, sess, loc, p)
	case game.EncounterNPC:
		if input.Action != game.ActionTalk {
			return nil, errors.InvalidArgumentf("action %q is not valid for an npc encounter", input.Action)
		}
		return o.dispatchNPC(ctx, sess, loc, p)
	default:
		return nil, errors.Internalf("session %s has unhandled encounter type %s", sess.ID, sess.Type)
	}
}

func (o *orchestrator) dispatchCombat(ctx context.Context, sess *game.AdventureSession, loc world.Location, p *game.Player, action game.Action) (*DispatchActionOutput, error) {
	cs := sess.Combat
	if cs == nil {
		return nil, errors.Internalf("combat session %s has no combat state", sess.ID)
	}

	// The persisted record is the authority on player HP; the session copy
	// is re-synced before every resolution.
	cs.PlayerHP = p.HP
	cs.PlayerMaxHP = p.MaxHP(o.game.StartingHP)

	var (
		res          *combat.Result
		resolveErr   error
		consumedItem bool
	)
	if action == game.ActionUseConsumable {
		cons := p.Gear.Consumable
		if cons == nil {
			return nil, errors.FailedPrecondition("no consumable equipped")
		}
		if p.InventoryQuantity(cons.ID) <= 0 {
			return nil, errors.FailedPrecondition("no consumable available")
		}
		heal := 0
		if item, ok := o.catalog.Item(cons.ID); ok && item.Effect.Kind == "heal" {
			heal = item.Effect.Value
		}
		name := cons.Name
		o.consumeItem(p, cons.ID)
		consumedItem = true

		o.withRand(func(rng *rand.Rand) {
			res = combat.ResolveConsumable(rng, o.combatConfig(), p.ClassID, cs, name, heal)
		})
	} else {
		o.withRand(func(rng *rand.Rand) {
			res, resolveErr = combat.Resolve(rng, o.combatConfig(), p.ClassID, cs, action)
		})
		if resolveErr != nil {
			return nil, resolveErr
		}
	}

	p.HP = cs.PlayerHP
	fields := map[string]interface{}{"hp": p.HP}
	narration := append([]string(nil), res.Log...)

	if res.Outcome == game.OutcomeVictory {
		var xp, lupins int
		o.withRand(func(rng *rand.Rand) {
			xp, lupins = loot.VictoryRewards(rng, cs.Enemy)
		})
		o.grantRewards(p, xp, lupins, "combat_victory", fields)
		narration = append(narration, fmt.Sprintf("You gained %d XP and %d lupins.", xp, lupins))
		if p.StatusPoints > 0 && fields["level"] != nil {
			narration = append(narration, fmt.Sprintf("You reached level %d!", p.Level))
		}
	}

	if consumedItem {
		if _, err := o.players.SetInventory(ctx, playerrepo.SetInventoryInput{
			UserID:    p.ID,
			Inventory: p.Inventory,
			Gear:      p.Gear,
		}); err != nil {
			return nil, err
		}
	}
	updated, err := o.players.Update(ctx, playerrepo.UpdateInput{UserID: p.ID, Fields: fields})
	if err != nil {
		return nil, err
	}
	p = updated.Player

	if res.Outcome.Terminal() {
		if _, err := o.sessions.Delete(ctx, adventuresession.DeleteInput{ID: sess.ID, UserID: sess.UserID}); err != nil {
			return nil, err
		}
	} else {
		if err := o.sessions.Update(ctx, sess, o.game.SessionTTL); err != nil {
			return nil, err
		}
	}

	slog.InfoContext(ctx, "combat turn resolved",
		"user_id", p.ID,
		"session_id", sess.ID,
		"action", action,
		"outcome", res.Outcome,
		"turn", cs.Turn,
	)

	view := o.encounterView(sess, loc, p, narration)
	view.Outcome = res.Outcome
	view.Concluded = res.Outcome.Terminal()
	return &DispatchActionOutput{View: view}, nil
}

func (o *orchestrator) dispatchChest(ctx context.Context, sess *game.AdventureSession, loc world.Location, p *game.Player) (*DispatchActionOutput, error) {
	chest, ok := o.catalog.Chest(sess.ChestID)
	if !ok {
		return nil, errors.Internalf("session %s references unknown chest %s", sess.ID, sess.ChestID)
	}

	var res loot.ChestResult
	o.withRand(func(rng *rand.Rand) {
		res = loot.OpenChest(rng, o.catalog, p.ClassID, chest, p.Inventory, o.capacity(p))
	})

	p.Inventory = res.Inventory
	if res.Trapped {
		p.HP -= res.TrapDamage
		if p.HP < 0 {
			p.HP = 0
		}
	}

	fields := map[string]interface{}{"hp": p.HP}
	if res.Lupins > 0 {
		o.grantRewards(p, 0, res.Lupins, "chest_loot", fields)
	}

	if _, err := o.players.SetInventory(ctx, playerrepo.SetInventoryInput{
		UserID:    p.ID,
		Inventory: p.Inventory,
		Gear:      p.Gear,
	}); err != nil {
		return nil, err
	}
	updated, err := o.players.Update(ctx, playerrepo.UpdateInput{UserID: p.ID, Fields: fields})
	if err != nil {
		return nil, err
	}
	p = updated.Player

	if _, err := o.sessions.Delete(ctx, adventuresession.DeleteInput{ID: sess.ID, UserID: sess.UserID}); err != nil {
		return nil, err
	}

	view := o.encounterView(sess, loc, p, res.Log)
	view.Concluded = true
	return &DispatchActionOutput{View: view}, nil
}

func (o *orchestrator) dispatchNPC(ctx context.Context, sess *game.AdventureSession, loc world.Location, p *game.Player) (*DispatchActionOutput, error) {
	npc, ok := o.catalog.NPC(sess.NPCID)
	if !ok {
		return nil, errors.Internalf("session %s references unknown npc %s", sess.ID, sess.NPCID)
	}

	line := npc.Dialogue
	generated, genErr := o.dialogue.Generate(ctx, &dialogue.Request{
		NPCID:          npc.ID,
		NPCName:        npc.Name,
		NPCType:        npc.Type,
		NPCDescription: npc.Description,
		LocationName:   loc.Name,
		PlayerName:     p.Name,
		PlayerClass:    string(p.ClassID),
	})
	if genErr != nil {
		slog.DebugContext(ctx, "dialogue generation failed, using static greeting",
			"npc_id", npc.ID,
			"error", genErr,
		)
	} else if generated != "" {
		line = generated
	}

	var xp, lupins int
	o.withRand(func(rng *rand.Rand) {
		xp, lupins = loot.NPCRewards(rng)
	})

	fields := map[string]interface{}{}
	o.grantRewards(p, xp, lupins, "npc_encounter", fields)

	updated, err := o.players.Update(ctx, playerrepo.UpdateInput{UserID: p.ID, Fields: fields})
	if err != nil {
		return nil, err
	}
	p = updated.Player

	if _, err := o.sessions.Delete(ctx, adventuresession.DeleteInput{ID: sess.ID, UserID: sess.UserID}); err != nil {
		return nil, err
	}

	narration := []string{fmt.Sprintf("%s: %q", npc.Name, line)}
	narration = append(narration, fmt.Sprintf("You gained %d XP from the conversation.", xp))
	if lupins > 0 {
		narration = append(narration, fmt.Sprintf("%s gave you %d lupins.", npc.Name, lupins))
	}

	view := o.encounterView(sess, loc, p, narration)
	view.Concluded = true
	return &DispatchActionOutput{View: view}, nil
}

// ViewInventory lists the player's inventory joined with catalog data
func (o *orchestrator) ViewInventory(ctx context.Context, input *ViewInventoryInput) (*ViewInventoryOutput, error) {
	if input == nil || input.UserID == "" {
		return nil, errors.InvalidArgument("user ID is required")
	}

	playerOut, err := o.players.Get(ctx, playerrepo.GetInput{UserID: input.UserID})
	if err != nil {
		return nil, err
	}
	p := playerOut.Player

	items := make([]InventoryItemView, 0, len(p.Inventory))
	for _, stack := range p.Inventory {
		view := InventoryItemView{
			ItemID:   stack.ItemID,
			Name:     stack.ItemID,
			Quantity: stack.Quantity,
		}
		if item, ok := o.catalog.Item(stack.ItemID); ok {
			view.Name = item.Name
			view.Type = string(item.Type)
			view.Rarity = string(item.Rarity)
		}
		items = append(items, view)
	}

	gear := GearView{}
	if p.Gear.Weapon != nil {
		gear.Weapon = p.Gear.Weapon.Name
	}
	if p.Gear.Armor != nil {
		gear.Armor = p.Gear.Armor.Name
	}
	if p.Gear.Consumable != nil {
		gear.Consumable = p.Gear.Consumable.Name
	}

	return &ViewInventoryOutput{
		Items:    items,
		Capacity: o.capacity(p),
		Gear:     gear,
	}, nil
}

// UseItemOutOfCombat consumes a healing item while no encounter is active
func (o *orchestrator) UseItemOutOfCombat(ctx context.Context, input *UseItemOutOfCombatInput) (*UseItemOutOfCombatOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	vb := errors.NewValidationBuilder()
	if input.UserID == "" {
		vb.RequiredField("UserID")
	}
	if input.ItemID == "" {
		vb.RequiredField("ItemID")
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}
	defer o.lockUser(input.UserID)()

	if marker, markerErr := o.sessions.GetMarker(ctx, adventuresession.GetMarkerInput{UserID: input.UserID}); markerErr == nil {
		if _, getErr := o.sessions.Get(ctx, adventuresession.GetInput{ID: marker.SessionID}); getErr == nil {
			return nil, errors.FailedPrecondition("finish your adventure before using items")
		} else if !errors.IsNotFound(getErr) {
			return nil, getErr
		}
	} else if !errors.IsNotFound(markerErr) {
		return nil, markerErr
	}

	playerOut, err := o.players.Get(ctx, playerrepo.GetInput{UserID: input.UserID})
	if err != nil {
		return nil, err
	}
	p := playerOut.Player

	item, ok := o.catalog.Item(input.ItemID)
	if !ok {
		return nil, errors.NotFoundf("item %s not found", input.ItemID)
	}
	if item.Type != world.ItemConsumable || item.Effect.Kind != "heal" {
		return nil, errors.InvalidArgumentf("item %s cannot be consumed", input.ItemID)
	}
	if p.InventoryQuantity(input.ItemID) <= 0 {
		return nil, errors.FailedPrecondition("no consumable available")
	}

	maxHP := p.MaxHP(o.game.StartingHP)
	before := p.HP
	p.HP += item.Effect.Value
	if p.HP > maxHP {
		p.HP = maxHP
	}
	healed := p.HP - before

	o.consumeItem(p, input.ItemID)

	if _, err := o.players.SetInventory(ctx, playerrepo.SetInventoryInput{
		UserID:    p.ID,
		Inventory: p.Inventory,
		Gear:      p.Gear,
	}); err != nil {
		return nil, err
	}
	updated, err := o.players.Update(ctx, playerrepo.UpdateInput{
		UserID: p.ID,
		Fields: map[string]interface{}{"hp": p.HP},
	})
	if err != nil {
		return nil, err
	}

	return &UseItemOutOfCombatOutput{
		Healed: healed,
		Player: o.playerView(updated.Player),
	}, nil
}

// consumeItem removes one unit of the item from the inventory, drops empty
// stacks, and keeps the equipped consumable slot in sync. The slot is
// unequipped when the last unit is spent.
func (o *orchestrator) consumeItem(p *game.Player, itemID string) {
	for i := range p.Inventory {
		if p.Inventory[i].ItemID != itemID || p.Inventory[i].Quantity <= 0 {
			continue
		}
		p.Inventory[i].Quantity--
		if p.Inventory[i].Quantity <= 0 {
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
		}
		break
	}

	if p.Gear.Consumable != nil && p.Gear.Consumable.ID == itemID {
		remaining := p.InventoryQuantity(itemID)
		if remaining <= 0 {
			p.Gear.Consumable = nil
		} else {
			p.Gear.Consumable.Quantity = remaining
		}
	}
}

// grantRewards applies xp and lupins to the player, runs the level-up loop,
// and records the touched fields for a partial update.
func (o *orchestrator) grantRewards(p *game.Player, xp, lupins int, reason string, fields map[string]interface{}) {
	if xp > 0 {
		p.XP += xp
		fields["xp"] = p.XP
	}
	if lupins > 0 {
		p.Economy.Wallet.Lupins += lupins
		p.Economy.History = append(p.Economy.History, game.LedgerEntry{
			Type:   reason,
			Amount: lupins,
			At:     o.clock.Now().Format(time.RFC3339),
		})
		fields["economy.wallet.lupins"] = p.Economy.Wallet.Lupins
		fields["economy.history"] = p.Economy.History
	}
	if result := loot.ApplyLevelUps(p); result.Levels > 0 {
		fields["xp"] = p.XP
		fields["level"] = p.Level
		fields["statusPoints"] = p.StatusPoints
	}
}

func (o *orchestrator) playerView(p *game.Player) PlayerView {
	return PlayerView{
		HP:           p.HP,
		MaxHP:        p.MaxHP(o.game.StartingHP),
		Level:        p.Level,
		XP:           p.XP,
		Lupins:       p.Economy.Wallet.Lupins,
		StatusPoints: p.StatusPoints,
	}
}

func (o *orchestrator) encounterView(sess *game.AdventureSession, loc world.Location, p *game.Player, narration []string) *EncounterView {
	view := &EncounterView{
		SessionID:    sess.ID,
		Type:         sess.Type,
		LocationID:   sess.LocationID,
		LocationName: loc.Name,
		Narration:    narration,
		Player:       o.playerView(p),
	}
	if sess.Combat != nil {
		view.Turn = sess.Combat.Turn
		view.Enemy = &EnemyView{
			ID:    sess.Combat.Enemy.ID,
			Name:  sess.Combat.Enemy.Name,
			HP:    sess.Combat.Enemy.HP,
			MaxHP: sess.Combat.Enemy.MaxHP,
		}
	}
	return view
}
