// internal/model/followup_config.go
package model

import "time"

type FollowupConfig struct {
    ID                 int        `db:"id" json:"id"`
    AgentID            int        `db:"agent_id" json:"agent_id"`
    Name               string     `db:"name" json:"name"`
    IsActive           bool       `db:"is_active" json:"is_active"`
    AutoMessage        bool       `db:"auto_message" json:"auto_message"`
    BusinessHoursStart string     `db:"business_hours_start" json:"business_hours_start"` // "HH:MM" local time
    BusinessHoursEnd   string     `db:"business_hours_end" json:"business_hours_end"`
    LoopFromStep       *int       `db:"loop_from_step" json:"loop_from_step,omitempty"`
    LoopToStep         *int       `db:"loop_to_step" json:"loop_to_step,omitempty"`
    CreatedAt          time.Time  `db:"created_at" json:"created_at"`
    UpdatedAt          *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// HasLoop reports whether an infinite-loop range is configured.
func (c *FollowupConfig) HasLoop() bool {
    return c.LoopFromStep != nil && c.LoopToStep != nil
}
