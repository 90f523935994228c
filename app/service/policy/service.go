// Package policy is the dialogue orchestration core: it threads conversation
// state across turns and applies the decision table that picks a response and
// the next dialogue state.
package policy

import (
	"context"
	"log/slog"
	"time"

	"viki/app/service/ctxstore"

	"github.com/samber/do"
	"github.com/samber/oops"
)

// Confidence strictly below this asks for clarification; strictly above it
// lets a greeting through. A value exactly at the threshold falls through to
// the default branch on both checks.
const LowConfidenceThreshold = 0.4

const (
	responseGreeting      = "Hello! How can I help you today?"
	responseGreetingAgain = "Hi again!"
	responseClarify       = "I'm sorry, I didn't quite understand. Could you please rephrase that?"
	responseDefault       = "I'm still learning, but I can help with a variety of tasks. What would you like to do?"
)

type Service struct {
	store ctxstore.Store
	clock Clock
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		store: do.MustInvoke[ctxstore.Store](di),
		clock: time.Now,
	}, nil
}

// NewWithStore wires an explicit store and clock, used by tests.
func NewWithStore(store ctxstore.Store, clock Clock) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, clock: clock}
}

// ProcessTurn runs one user turn through the decision table. It merges turn
// metadata into the conversation context, picks a response and the next
// dialogue state, persists the context and returns the outcome. Only a store
// failure produces an error; every documented path succeeds.
func (s *Service) ProcessTurn(ctx context.Context, turn Turn) (*Outcome, error) {
	slog.Info("Processing dialogue turn",
		"conversation_id", turn.ConversationID,
		"user_id", turn.UserID,
	)

	current, found, err := s.store.Get(ctx, turn.ConversationID)
	if err != nil {
		return nil, oops.Code("PERSISTENCE_ERROR").Errorf("store.Get: %w", err)
	}
	if !found {
		slog.Debug("No existing context, creating new", "conversation_id", turn.ConversationID)
		current = ctxstore.Context{}
	}

	current[keyLastTurnID] = turn.TurnID.String()
	current[keyLastText] = turn.ProcessedText
	current[keyLastNLU] = turn.NLU
	current[keyUserID] = turn.UserID.String()
	current[keyLastActive] = s.clock().UTC().Format(time.RFC3339)
	current[keyInteractionCount] = contextInt(current, keyInteractionCount) + 1

	state, ok := current[keyDialogueState].(string)
	if !ok || state == "" {
		state = StateIdle
	}

	var intentName string
	var confidence float64
	if turn.NLU != nil {
		intentName = turn.NLU.Intent.Name
		confidence = turn.NLU.Intent.Confidence
	}

	var responseText string
	newState := state

	switch {
	case intentName == "greet" && confidence > LowConfidenceThreshold:
		if state == StateIdle {
			responseText = responseGreeting
			newState = StateGreetingInitiated
		} else {
			responseText = responseGreetingAgain
		}
	case confidence < LowConfidenceThreshold:
		responseText = responseClarify
		newState = StateAskingClarify
	default:
		responseText = responseDefault
		newState = StateIdle
	}

	current[keyDialogueState] = newState

	if err = s.store.Put(ctx, turn.ConversationID, current); err != nil {
		return nil, oops.Code("PERSISTENCE_ERROR").Errorf("store.Put: %w", err)
	}

	slog.Debug("Context updated",
		"conversation_id", turn.ConversationID,
		"dialogue_state", newState,
		"interaction_count", current[keyInteractionCount],
	)

	return &Outcome{
		Success:          true,
		ResponseText:     responseText,
		ActionTaken:      nil,
		NewDialogueState: newState,
		Err:              nil,
	}, nil
}

// contextInt reads an integer context value that may have been through a JSON
// round trip (redis backend stores numbers as float64).
func contextInt(current ctxstore.Context, key string) int {
	switch value := current[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	default:
		return 0
	}
}
