// Package dialogue generates flavored NPC dialogue through an
// OpenAI-compatible chat completion API. Generation is best-effort: callers
// fall back to the NPC's static greeting on any error or empty result.
package dialogue

//go:generate mockgen -destination=mock/mock_generator.go -package=dialoguemock github.com/dumblo/adventure-api/internal/dialogue Generator

import (
	"context"
	"time"
)

// Request describes the scene the dialogue should fit.
type Request struct {
	NPCID          string
	NPCName        string
	NPCType        string
	NPCDescription string
	LocationName   string
	PlayerName     string
	PlayerClass    string
}

// Generator produces one line of NPC dialogue for a request.
type Generator interface {
	Generate(ctx context.Context, req *Request) (string, error)
}

// Cache stores generated dialogue so repeated visits to the same NPC don't
// burn API quota.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// Disabled is a Generator that never produces dialogue. Used when no API key
// is configured; NPC encounters then use static greetings.
type Disabled struct{}

// Generate always returns an empty line.
func (Disabled) Generate(_ context.Context, _ *Request) (string, error) {
	return "", nil
}
