package models

import "time"

// Conversation groups the messages of one chat session.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single turn in a conversation. Assistant messages carry
// the sources and confidence of the answer for later history replay.
type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	Role           string       `json:"role"`
	Content        string       `json:"content"`
	Sources        []SourceInfo `json:"sources,omitempty"`
	Confidence     float64      `json:"confidence,omitempty"`
	Language       string       `json:"language,omitempty"`
	Model          string       `json:"model,omitempty"`
	TokenCount     int          `json:"token_count,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
