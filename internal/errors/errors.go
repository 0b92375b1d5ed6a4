// internal/errors/errors.go
package appErrors

import "fmt"

// ErrConfigNotFound is a sentinel error
type ErrConfigNotFound struct {
    ConfigID int
}

func (e *ErrConfigNotFound) Error() string {
    return fmt.Sprintf("followup config with ID %d not found", e.ConfigID)
}

// Helper constructor
func NewConfigNotFound(id int) error {
    return &ErrConfigNotFound{ConfigID: id}
}

// ErrConfigInactive: scheduling against a soft-disabled config
type ErrConfigInactive struct {
    ConfigID int
}

func (e *ErrConfigInactive) Error() string {
    return fmt.Sprintf("followup config %d is inactive", e.ConfigID)
}

func NewConfigInactive(id int) error {
    return &ErrConfigInactive{ConfigID: id}
}

// ErrNoSteps: the config has an empty step catalog
type ErrNoSteps struct {
    ConfigID int
}

func (e *ErrNoSteps) Error() string {
    return fmt.Sprintf("followup config %d has no steps", e.ConfigID)
}

func NewNoSteps(id int) error {
    return &ErrNoSteps{ConfigID: id}
}

// ErrConversationNotFound is a sentinel error
type ErrConversationNotFound struct {
    ConversationID int
}

func (e *ErrConversationNotFound) Error() string {
    return fmt.Sprintf("conversation with ID %d not found", e.ConversationID)
}

func NewConversationNotFound(id int) error {
    return &ErrConversationNotFound{ConversationID: id}
}

// ErrExecutionNotFound is a sentinel error
type ErrExecutionNotFound struct {
    ExecutionID int
}

func (e *ErrExecutionNotFound) Error() string {
    return fmt.Sprintf("followup execution with ID %d not found", e.ExecutionID)
}

func NewExecutionNotFound(id int) error {
    return &ErrExecutionNotFound{ExecutionID: id}
}

// ErrConfigInUse: deleting a config that still has scheduled executions
type ErrConfigInUse struct {
    ConfigID  int
    Scheduled int
}

func (e *ErrConfigInUse) Error() string {
    return fmt.Sprintf("followup config %d still has %d scheduled executions", e.ConfigID, e.Scheduled)
}

func NewConfigInUse(id, scheduled int) error {
    return &ErrConfigInUse{ConfigID: id, Scheduled: scheduled}
}

// ErrInvalidLoopRange: loop bounds rejected at config-write time
type ErrInvalidLoopRange struct {
    From int
    To   int
}

func (e *ErrInvalidLoopRange) Error() string {
    return fmt.Sprintf("invalid loop range: from_step %d, to_step %d", e.From, e.To)
}

func NewInvalidLoopRange(from, to int) error {
    return &ErrInvalidLoopRange{From: from, To: to}
}
