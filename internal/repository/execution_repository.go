package repository

import (
    "database/sql"
    "time"

    "github.com/leadloop/followup-backend/internal/model"
)

type ExecutionRepositoryInterface interface {
    Create(e *model.FollowupExecution) error
    GetByID(id int) (*model.FollowupExecution, error)
    GetScheduled(conversationID, stepID int) (*model.FollowupExecution, error)
    LatestNonCancelled(conversationID, configID int) (*model.FollowupExecution, int, error)
    LatestByConversation(conversationID int) (*model.FollowupExecution, error)
    LastSentAt(conversationID int) (*time.Time, error)
    ListDue(now time.Time, limit int) ([]int, error)
    ClaimForSend(id int) (bool, error)
    MarkCompleted(id int) error
    MarkFailed(id int, lastError string) error
    CancelScheduledForConversation(conversationID int) (int, error)
    CountScheduledByConfig(configID int) (int, error)
    ConversationsForConfig(configID int, from, to time.Time) ([]int, error)
    CountsByStatus(configID int) (map[string]int, error)
}

type ExecutionRepository struct {
    DB *sql.DB
}

const executionColumns = `id, config_id, conversation_id, step_id, status, scheduled_at, sent_at, is_infinite_loop, loop_iteration, last_error, created_at, updated_at`

func scanExecution(row *sql.Row) (*model.FollowupExecution, error) {
    var e model.FollowupExecution
    err := row.Scan(
        &e.ID, &e.ConfigID, &e.ConversationID, &e.StepID, &e.Status,
        &e.ScheduledAt, &e.SentAt, &e.IsInfiniteLoop, &e.LoopIteration,
        &e.LastError, &e.CreatedAt, &e.UpdatedAt,
    )
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, nil
        }
        return nil, err
    }
    return &e, nil
}

func (r *ExecutionRepository) Create(e *model.FollowupExecution) error {
    now := time.Now()
    e.CreatedAt = now
    e.UpdatedAt = now
    if e.Status == "" {
        e.Status = model.ExecutionScheduled
    }
    query := `
        INSERT INTO followup_executions
        (config_id, conversation_id, step_id, status, scheduled_at, sent_at, is_infinite_loop, loop_iteration, last_error, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `
    return r.DB.QueryRow(query,
        e.ConfigID, e.ConversationID, e.StepID, e.Status, e.ScheduledAt, e.SentAt,
        e.IsInfiniteLoop, e.LoopIteration, e.LastError, e.CreatedAt, e.UpdatedAt,
    ).Scan(&e.ID)
}

func (r *ExecutionRepository) GetByID(id int) (*model.FollowupExecution, error) {
    query := `SELECT ` + executionColumns + ` FROM followup_executions WHERE id=$1`
    return scanExecution(r.DB.QueryRow(query, id))
}

// GetScheduled returns the pending execution for a (conversation, step) pair, if any.
// At most one can exist: the table carries a partial unique index on
// (conversation_id, step_id) WHERE status='scheduled'.
func (r *ExecutionRepository) GetScheduled(conversationID, stepID int) (*model.FollowupExecution, error) {
    query := `
        SELECT ` + executionColumns + `
        FROM followup_executions
        WHERE conversation_id=$1 AND step_id=$2 AND status='scheduled'
    `
    return scanExecution(r.DB.QueryRow(query, conversationID, stepID))
}

// LatestNonCancelled returns the conversation's most recent non-cancelled
// execution plus its step_order, or (nil, 0) when the conversation has no
// executions for the config yet. Creation order, not step_order: after a loop
// re-entry the newest execution points at an earlier step.
func (r *ExecutionRepository) LatestNonCancelled(conversationID, configID int) (*model.FollowupExecution, int, error) {
    query := `
        SELECT e.id, e.config_id, e.conversation_id, e.step_id, e.status, e.scheduled_at, e.sent_at,
               e.is_infinite_loop, e.loop_iteration, e.last_error, e.created_at, e.updated_at, s.step_order
        FROM followup_executions e
        JOIN followup_steps s ON s.id = e.step_id
        WHERE e.conversation_id=$1 AND e.config_id=$2 AND e.status != 'cancelled'
        ORDER BY e.id DESC
        LIMIT 1
    `
    var e model.FollowupExecution
    var stepOrder int
    err := r.DB.QueryRow(query, conversationID, configID).Scan(
        &e.ID, &e.ConfigID, &e.ConversationID, &e.StepID, &e.Status,
        &e.ScheduledAt, &e.SentAt, &e.IsInfiniteLoop, &e.LoopIteration,
        &e.LastError, &e.CreatedAt, &e.UpdatedAt, &stepOrder,
    )
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, 0, nil
        }
        return nil, 0, err
    }
    return &e, stepOrder, nil
}

func (r *ExecutionRepository) LatestByConversation(conversationID int) (*model.FollowupExecution, error) {
    query := `
        SELECT ` + executionColumns + `
        FROM followup_executions
        WHERE conversation_id=$1
        ORDER BY id DESC
        LIMIT 1
    `
    return scanExecution(r.DB.QueryRow(query, conversationID))
}

// LastSentAt returns when the engine last messaged the conversation, nil if
// it never has.
func (r *ExecutionRepository) LastSentAt(conversationID int) (*time.Time, error) {
    query := `SELECT MAX(sent_at) FROM followup_executions WHERE conversation_id=$1`
    var t sql.NullTime
    if err := r.DB.QueryRow(query, conversationID).Scan(&t); err != nil {
        return nil, err
    }
    if !t.Valid {
        return nil, nil
    }
    return &t.Time, nil
}

// ListDue returns IDs of executions ready to fire.
func (r *ExecutionRepository) ListDue(now time.Time, limit int) ([]int, error) {
    query := `
        SELECT id FROM followup_executions
        WHERE status='scheduled' AND scheduled_at <= $1
        ORDER BY scheduled_at ASC
        LIMIT $2
    `
    rows, err := r.DB.Query(query, now, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    ids := []int{}
    for rows.Next() {
        var id int
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, nil
}

// ClaimForSend is the single atomic claim: scheduled -> sent. Exactly one of
// N racing workers gets true; the rest see the row already claimed.
func (r *ExecutionRepository) ClaimForSend(id int) (bool, error) {
    query := `
        UPDATE followup_executions
        SET status='sent', sent_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND status='scheduled'
    `
    res, err := r.DB.Exec(query, id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

func (r *ExecutionRepository) MarkCompleted(id int) error {
    query := `UPDATE followup_executions SET status='completed', updated_at=NOW() WHERE id=$1 AND status='sent'`
    _, err := r.DB.Exec(query, id)
    return err
}

func (r *ExecutionRepository) MarkFailed(id int, lastError string) error {
    query := `UPDATE followup_executions SET status='failed', last_error=$1, updated_at=NOW() WHERE id=$2`
    _, err := r.DB.Exec(query, lastError, id)
    return err
}

// CancelScheduledForConversation flips every pending execution to cancelled
// and reports how many rows it touched.
func (r *ExecutionRepository) CancelScheduledForConversation(conversationID int) (int, error) {
    query := `
        UPDATE followup_executions
        SET status='cancelled', updated_at=NOW()
        WHERE conversation_id=$1 AND status='scheduled'
    `
    res, err := r.DB.Exec(query, conversationID)
    if err != nil {
        return 0, err
    }
    n, err := res.RowsAffected()
    return int(n), err
}

func (r *ExecutionRepository) CountScheduledByConfig(configID int) (int, error) {
    var count int
    err := r.DB.QueryRow(
        `SELECT COUNT(*) FROM followup_executions WHERE config_id=$1 AND status='scheduled'`,
        configID,
    ).Scan(&count)
    return count, err
}

func (r *ExecutionRepository) ConversationsForConfig(configID int, from, to time.Time) ([]int, error) {
    query := `
        SELECT DISTINCT conversation_id
        FROM followup_executions
        WHERE config_id=$1 AND created_at >= $2 AND created_at <= $3
        ORDER BY conversation_id
    `
    rows, err := r.DB.Query(query, configID, from, to)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    ids := []int{}
    for rows.Next() {
        var id int
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, nil
}

func (r *ExecutionRepository) CountsByStatus(configID int) (map[string]int, error) {
    query := `SELECT status, COUNT(*) FROM followup_executions WHERE config_id=$1 GROUP BY status`
    rows, err := r.DB.Query(query, configID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    stats := map[string]int{"scheduled": 0, "sent": 0, "completed": 0, "failed": 0, "cancelled": 0}
    for rows.Next() {
        var status string
        var count int
        if err := rows.Scan(&status, &count); err != nil {
            return nil, err
        }
        stats[status] = count
    }
    return stats, nil
}

var _ ExecutionRepositoryInterface = (*ExecutionRepository)(nil)
