// internal/model/followup_step.go
package model

import "time"

const (
    DelayUnitMinutes = "minutes"
    DelayUnitHours   = "hours"
    DelayUnitDays    = "days"
)

type FollowupStep struct {
    ID              int       `db:"id" json:"id"`
    ConfigID        int       `db:"config_id" json:"config_id"`
    StepOrder       int       `db:"step_order" json:"step_order"` // 1-based, unique per config
    Title           string    `db:"title" json:"title"`
    DelayValue      int       `db:"delay_value" json:"delay_value"`
    DelayUnit       string    `db:"delay_unit" json:"delay_unit"` // minutes, hours, days
    MessageTemplate string    `db:"message_template" json:"message_template"`
    CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Delay converts the step's delay_value/delay_unit pair into a duration.
// Unknown units fall back to minutes.
func (s *FollowupStep) Delay() time.Duration {
    switch s.DelayUnit {
    case DelayUnitHours:
        return time.Duration(s.DelayValue) * time.Hour
    case DelayUnitDays:
        return time.Duration(s.DelayValue) * 24 * time.Hour
    default:
        return time.Duration(s.DelayValue) * time.Minute
    }
}

// ValidDelayUnit checks a delay unit string against the allowed set.
func ValidDelayUnit(unit string) bool {
    return unit == DelayUnitMinutes || unit == DelayUnitHours || unit == DelayUnitDays
}
