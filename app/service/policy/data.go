package policy

import (
	"time"

	"viki/app/service/nlu"

	"github.com/google/uuid"
)

// Dialogue states. The set is extensible; these are the ones the decision
// table produces.
const (
	StateIdle              = "IDLE"
	StateGreetingInitiated = "GREETING_INITIATED"
	StateAskingClarify     = "ASKING_CLARIFICATION"
)

// Context keys written by the policy on every turn.
const (
	keyDialogueState    = "dialogue_state"
	keyInteractionCount = "interaction_count"
	keyLastTurnID       = "last_turn_id"
	keyLastText         = "last_processed_text"
	keyLastNLU          = "last_nlu_result"
	keyUserID           = "user_id"
	keyLastActive       = "last_active_timestamp"
)

// Turn is one user utterance with its classification result.
type Turn struct {
	TurnID         uuid.UUID
	ConversationID uuid.UUID
	UserID         uuid.UUID
	ProcessedText  string
	NLU            *nlu.Result
}

// Outcome is the structured result of processing one dialogue turn.
type Outcome struct {
	Success          bool    `json:"success"`
	ResponseText     string  `json:"response_text"`
	ActionTaken      *string `json:"action_taken"`
	NewDialogueState string  `json:"new_dialogue_state"`
	Err              *string `json:"error"`
}

// Clock supplies wall-clock time; injectable for tests.
type Clock func() time.Time
