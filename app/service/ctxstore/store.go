// Package ctxstore holds the short-term conversational context for active
// dialogues, keyed by conversation id.
package ctxstore

import (
	"context"

	"viki/app/config"

	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/samber/oops"
)

// Context is the per-conversation state blob owned by the dialogue policy.
// Arbitrary keys must survive a Put/Get round trip.
type Context = map[string]any

// Store is the conversation context store. Put is an unconditional upsert
// that fully replaces the stored value; Clear reports whether anything was
// removed.
type Store interface {
	Get(ctx context.Context, conversationID uuid.UUID) (Context, bool, error)
	Put(ctx context.Context, conversationID uuid.UUID, value Context) error
	Clear(ctx context.Context, conversationID uuid.UUID) (bool, error)
}

// New picks the backend named in the config.
func New(di *do.Injector) (Store, error) {
	cfg := do.MustInvoke[*config.Config](di)

	switch cfg.ContextStore.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg.ContextStore.Redis), nil
	default:
		return nil, oops.Errorf("unsupported context store backend: %s", cfg.ContextStore.Backend)
	}
}
