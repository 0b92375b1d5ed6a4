// internal/model/funnel.go
package model

import "time"

// FunnelCategory is the classifier's output bucket.
type FunnelCategory string

const (
    CategoryActive       FunnelCategory = "active"
    CategoryResponded    FunnelCategory = "responded"
    CategoryLost         FunnelCategory = "lost"
    CategoryInfiniteLoop FunnelCategory = "infinite_loop"

    // CategoryExcluded marks paused conversations. They are never returned
    // by the read API; the value only exists so callers can filter.
    CategoryExcluded FunnelCategory = "excluded"
)

// FunnelEntry is one row of the dashboard read API.
type FunnelEntry struct {
    Conversation    Conversation   `json:"conversation"`
    CurrentStep     int            `json:"current_step"`
    Category        FunnelCategory `json:"category"`
    LoopIteration   int            `json:"loop_iteration"`
    LastInteraction *time.Time     `json:"last_interaction,omitempty"`
}
