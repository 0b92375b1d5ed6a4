// internal/model/conversation.go
package model

import "time"

// Conversation is owned by the messaging side; the engine reads it and only
// ever mutates the pause flag.
type Conversation struct {
    ID            int        `db:"id" json:"id"`
    Phone         string     `db:"phone" json:"phone"`
    ContactName   string     `db:"contact_name" json:"contact_name"`
    AgentID       int        `db:"agent_id" json:"agent_id"`
    IsPaused      bool       `db:"is_paused" json:"is_paused"`
    LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
}

const (
    DirectionInbound  = "inbound"
    DirectionOutbound = "outbound"
)

type ConversationMessage struct {
    ID             int       `db:"id" json:"id"`
    ConversationID int       `db:"conversation_id" json:"conversation_id"`
    Direction      string    `db:"direction" json:"direction"` // inbound, outbound
    Body           string    `db:"body" json:"body"`
    CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
