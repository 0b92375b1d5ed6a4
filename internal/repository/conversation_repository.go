package repository

import (
    "database/sql"
    "time"

    "github.com/leadloop/followup-backend/internal/model"
)

// ConversationRepositoryInterface is the engine's read window into the
// messaging side, plus the pause flag it is allowed to flip.
type ConversationRepositoryInterface interface {
    GetByID(id int) (*model.Conversation, error)
    SetPaused(id int, paused bool) error
    InsertMessage(m *model.ConversationMessage) error
    HasInboundSince(conversationID int, since time.Time) (bool, error)
}

type ConversationRepository struct {
    DB *sql.DB
}

// GetByID fetches a conversation by ID
func (r *ConversationRepository) GetByID(id int) (*model.Conversation, error) {
    query := `
        SELECT id, phone, contact_name, agent_id, is_paused, last_message_at
        FROM conversations
        WHERE id = $1
    `
    row := r.DB.QueryRow(query, id)

    var c model.Conversation
    if err := row.Scan(&c.ID, &c.Phone, &c.ContactName, &c.AgentID, &c.IsPaused, &c.LastMessageAt); err != nil {
        if err == sql.ErrNoRows {
            return nil, nil // not found
        }
        return nil, err
    }
    return &c, nil
}

func (r *ConversationRepository) SetPaused(id int, paused bool) error {
    query := `UPDATE conversations SET is_paused=$1 WHERE id=$2`
    _, err := r.DB.Exec(query, paused, id)
    return err
}

func (r *ConversationRepository) InsertMessage(m *model.ConversationMessage) error {
    m.CreatedAt = time.Now()
    query := `
        INSERT INTO conversation_messages (conversation_id, direction, body, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
    if err := r.DB.QueryRow(query, m.ConversationID, m.Direction, m.Body, m.CreatedAt).Scan(&m.ID); err != nil {
        return err
    }
    _, err := r.DB.Exec(`UPDATE conversations SET last_message_at=$1 WHERE id=$2`, m.CreatedAt, m.ConversationID)
    return err
}

// HasInboundSince reports whether a human message arrived after the given time.
func (r *ConversationRepository) HasInboundSince(conversationID int, since time.Time) (bool, error) {
    query := `
        SELECT 1 FROM conversation_messages
        WHERE conversation_id = $1 AND direction = 'inbound' AND created_at > $2
        LIMIT 1
    `
    row := r.DB.QueryRow(query, conversationID, since)
    var tmp int
    err := row.Scan(&tmp)
    if err != nil {
        if err == sql.ErrNoRows {
            return false, nil
        }
        return false, err
    }
    return true, nil
}

var _ ConversationRepositoryInterface = (*ConversationRepository)(nil)
