package messages

import (
	amessages "github.com/airenas/async-api/pkg/messages"
)

const (
	st = "HRS/"
	// Analyze queue name - durable post-call analysis trigger
	Analyze = st + "Analyze"
	// Inform queue name - recruiter email notifications
	Inform = st + "Inform"
)

// CallMessage is the main message passing through the screening system queues
type CallMessage struct {
	amessages.QueueMessage
	ConversationID string `json:"conversationID,omitempty"`
}
