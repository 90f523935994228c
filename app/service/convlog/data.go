package convlog

import (
	"time"

	"github.com/google/uuid"
)

// Speakers recorded on a turn.
const (
	SpeakerUser      = "user"
	SpeakerAssistant = "assistant"
)

// Turn is one immutable conversation turn record.
type Turn struct {
	TurnID         uuid.UUID `json:"turn_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	Timestamp      time.Time `json:"timestamp"`
	Speaker        string    `json:"speaker"`
	Text           string    `json:"text"`
}

// Query bounds a conversation history lookup. Zero values mean unbounded.
type Query struct {
	From   *time.Time
	To     *time.Time
	Limit  int64
	Offset int64
}
