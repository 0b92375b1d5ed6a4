// internal/model/history_event.go
package model

import "time"

const (
    EventUserResponded = "user_responded"
    EventNoResponse    = "no_response"
    EventAgentPaused   = "agent_paused"
    EventCancelled     = "cancelled"
    EventInfiniteLoop  = "infinite_loop"
)

// HistoryEvent is an append-only fact about a conversation's engagement.
// Rows are never updated or deleted; classification is recomputed from them.
type HistoryEvent struct {
    ID             int       `db:"id" json:"id"`
    ConversationID int       `db:"conversation_id" json:"conversation_id"`
    EventType      string    `db:"event_type" json:"event_type"` // user_responded, no_response, agent_paused, cancelled, infinite_loop
    Payload        string    `db:"payload" json:"payload,omitempty"`
    CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
