package models

import "time"

// ChatRole distinguishes the two transcript authors.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry of the append-only conversation transcript.
type ChatMessage struct {
	ID        string     `json:"id"`
	Role      ChatRole   `json:"role"`
	Content   string     `json:"content"`
	Actions   ActionList `json:"actions,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ChatRequest is the payload for the backend chat endpoint.
type ChatRequest struct {
	Message string      `json:"message"`
	Context ChatContext `json:"context"`
}

// ChatReply is the assistant turn returned by the backend: a display
// message plus the plan of actions to run against client state.
type ChatReply struct {
	Message string     `json:"message"`
	Actions ActionList `json:"actions"`
}
