package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dumblo/adventure-api/internal/config"
	"github.com/dumblo/adventure-api/internal/entities/game"
	"github.com/dumblo/adventure-api/internal/errors"
	"github.com/dumblo/adventure-api/internal/orchestrators/adventure"
	playerrepo "github.com/dumblo/adventure-api/internal/repositories/player"
	redisclient "github.com/dumblo/adventure-api/internal/redis"
)

var (
	smokeUser       string
	smokeAdventures int
)

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Run a scripted adventure against a live Redis",
	Long:  `Seed a demo player and auto-play a few adventures end to end, printing each encounter. Useful for verifying a deployment without the gateway.`,
	RunE:  runSmoke,
}

func init() {
	smokeCmd.Flags().StringVar(&smokeUser, "user", "smoke_test_user", "user id to play as")
	smokeCmd.Flags().IntVar(&smokeAdventures, "adventures", 3, "number of adventures to play")
}

func runSmoke(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	svc, cleanup, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	if err := seedSmokePlayer(ctx, cfg); err != nil {
		return err
	}

	for i := 0; i < smokeAdventures; i++ {
		fmt.Printf("--- adventure %d ---\n", i+1)
		out, err := svc.StartAdventure(ctx, &adventure.StartAdventureInput{UserID: smokeUser})
		if err != nil {
			if errors.IsFailedPrecondition(err) {
				fmt.Println("player is incapacitated, stopping")
				return nil
			}
			return err
		}
		view := out.View
		printView(view)

		for !view.Concluded {
			action := actionFor(view.Type)
			actionOut, err := svc.DispatchAction(ctx, &adventure.DispatchActionInput{
				UserID:    smokeUser,
				SessionID: view.SessionID,
				Action:    action,
			})
			if err != nil {
				return err
			}
			view = actionOut.View
			printView(view)
		}
	}

	inv, err := svc.ViewInventory(ctx, &adventure.ViewInventoryInput{UserID: smokeUser})
	if err != nil {
		return err
	}
	fmt.Printf("inventory: %d/%d slots used\n", len(inv.Items), inv.Capacity)
	return nil
}

func actionFor(t game.EncounterType) game.Action {
	switch t {
	case game.EncounterChest:
		return game.ActionOpenChest
	case game.EncounterNPC:
		return game.ActionTalk
	default:
		return game.ActionAttack
	}
}

func printView(view *adventure.EncounterView) {
	for _, line := range view.Narration {
		fmt.Println(" ", line)
	}
	if view.Enemy != nil && !view.Concluded {
		fmt.Printf("  [%s %d/%d HP] [you %d/%d HP]\n",
			view.Enemy.Name, view.Enemy.HP, view.Enemy.MaxHP,
			view.Player.HP, view.Player.MaxHP)
	}
	if view.Concluded {
		fmt.Printf("  done: level %d, %d XP, %d lupins, %d/%d HP\n",
			view.Player.Level, view.Player.XP, view.Player.Lupins,
			view.Player.HP, view.Player.MaxHP)
	}
}

// seedSmokePlayer creates the demo player when absent.
func seedSmokePlayer(ctx context.Context, cfg *config.Config) error {
	client, err := redisclient.NewClient(cfg.RedisAddr, nil)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	repo, err := playerrepo.NewRedisRepository(&playerrepo.Config{Client: client})
	if err != nil {
		return err
	}

	_, err = repo.Create(ctx, playerrepo.CreateInput{Player: &game.Player{
		ID:      smokeUser,
		Name:    "Smoke Tester",
		ClassID: game.ClassWarrior,
		Level:   1,
		HP:      cfg.Game.StartingHP,
		Stats: game.Stats{
			Strength:     10,
			Intelligence: 5,
			Agility:      8,
			Vitality:     8,
			Luck:         5,
			Charisma:     5,
		},
		Inventory:         []game.ItemStack{},
		InventoryCapacity: cfg.Game.MaxInventorySize,
		Economy: game.Economy{
			Wallet: game.Wallet{Lupins: cfg.Game.StartingLupins},
		},
	}})
	if err != nil && !errors.IsAlreadyExists(err) {
		return err
	}
	return nil
}
