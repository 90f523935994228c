package engine

import (
	"fmt"
	"strings"
	"time"
)

const messageHistorySize = 20

type chatMessage struct {
	Speaker   string
	Text      string
	Timestamp time.Time
}

// chatHistory keeps a bounded window of the most recent exchange, formatted
// into the NLG context so responses stay coherent with the conversation.
type chatHistory struct {
	messages []chatMessage
}

func (h *chatHistory) add(speaker, text string) {
	msg := chatMessage{
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Now(),
	}

	if len(h.messages) >= messageHistorySize {
		h.messages = append(h.messages[1:], msg)
	} else {
		h.messages = append(h.messages, msg)
	}
}

func (h *chatHistory) format() string {
	if len(h.messages) == 0 {
		return "No recent messages"
	}

	var builder strings.Builder

	for _, msg := range h.messages {
		builder.WriteString(fmt.Sprintf("%s - %s: %s\n",
			msg.Timestamp.Format("15:04:05"), msg.Speaker, msg.Text))
	}

	return builder.String()
}
