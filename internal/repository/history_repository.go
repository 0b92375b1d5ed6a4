package repository

import (
    "database/sql"
    "time"

    "github.com/leadloop/followup-backend/internal/model"
)

// HistoryRepositoryInterface is append-only on purpose: there is no update or
// delete method, and classification always recomputes from the raw rows.
type HistoryRepositoryInterface interface {
    Append(conversationID int, eventType, payload string) error
    ListByConversation(conversationID int) ([]model.HistoryEvent, error)
}

type HistoryRepository struct {
    DB *sql.DB
}

func (r *HistoryRepository) Append(conversationID int, eventType, payload string) error {
    query := `
        INSERT INTO followup_history (conversation_id, event_type, payload, created_at)
        VALUES ($1, $2, $3, $4)
    `
    _, err := r.DB.Exec(query, conversationID, eventType, payload, time.Now())
    return err
}

func (r *HistoryRepository) ListByConversation(conversationID int) ([]model.HistoryEvent, error) {
    query := `
        SELECT id, conversation_id, event_type, COALESCE(payload, ''), created_at
        FROM followup_history
        WHERE conversation_id=$1
        ORDER BY created_at ASC, id ASC
    `
    rows, err := r.DB.Query(query, conversationID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    events := []model.HistoryEvent{}
    for rows.Next() {
        var ev model.HistoryEvent
        if err := rows.Scan(&ev.ID, &ev.ConversationID, &ev.EventType, &ev.Payload, &ev.CreatedAt); err != nil {
            return nil, err
        }
        events = append(events, ev)
    }
    return events, nil
}

var _ HistoryRepositoryInterface = (*HistoryRepository)(nil)
