// internal/model/followup_execution.go
package model

import "time"

const (
    ExecutionScheduled = "scheduled"
    ExecutionSent      = "sent"
    ExecutionCompleted = "completed"
    ExecutionFailed    = "failed"
    ExecutionCancelled = "cancelled"
)

type FollowupExecution struct {
    ID             int        `db:"id" json:"id"`
    ConfigID       int        `db:"config_id" json:"config_id"`
    ConversationID int        `db:"conversation_id" json:"conversation_id"`
    StepID         int        `db:"step_id" json:"step_id"`
    Status         string     `db:"status" json:"status"` // scheduled, sent, completed, failed, cancelled
    ScheduledAt    time.Time  `db:"scheduled_at" json:"scheduled_at"`
    SentAt         *time.Time `db:"sent_at" json:"sent_at,omitempty"`
    IsInfiniteLoop bool       `db:"is_infinite_loop" json:"is_infinite_loop"`
    LoopIteration  int        `db:"loop_iteration" json:"loop_iteration"`
    LastError      string     `db:"last_error" json:"last_error,omitempty"`
    CreatedAt      time.Time  `db:"created_at" json:"created_at"`
    UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the execution can no longer transition.
func (e *FollowupExecution) Terminal() bool {
    return e.Status == ExecutionCompleted || e.Status == ExecutionFailed || e.Status == ExecutionCancelled
}
