// internal/service/history_service.go
package service

import (
    "fmt"

    "github.com/leadloop/followup-backend/internal/model"
    "github.com/leadloop/followup-backend/internal/repository"
)

type HistoryService struct {
    HistoryRepo      repository.HistoryRepositoryInterface
    ExecutionRepo    repository.ExecutionRepositoryInterface
    ConversationRepo repository.ConversationRepositoryInterface
}

var validEventTypes = map[string]bool{
    model.EventUserResponded: true,
    model.EventNoResponse:    true,
    model.EventAgentPaused:   true,
    model.EventCancelled:     true,
    model.EventInfiniteLoop:  true,
}

// Record appends one lifecycle event. Pure append, no update or delete.
func (s *HistoryService) Record(conversationID int, eventType, payload string) error {
    if !validEventTypes[eventType] {
        return fmt.Errorf("unknown history event type: %s", eventType)
    }
    return s.HistoryRepo.Append(conversationID, eventType, payload)
}

// RecordInbound stores an inbound message. When a followup step has already
// gone out to this conversation the reply counts as engagement: pending
// executions are cancelled and user_responded is recorded.
func (s *HistoryService) RecordInbound(conversationID int, body string) error {
    if err := s.ConversationRepo.InsertMessage(&model.ConversationMessage{
        ConversationID: conversationID,
        Direction:      model.DirectionInbound,
        Body:           body,
    }); err != nil {
        return err
    }

    lastSent, err := s.ExecutionRepo.LastSentAt(conversationID)
    if err != nil {
        return err
    }
    if lastSent == nil {
        // No step was ever sent; a reply here is not engine engagement.
        return nil
    }

    if _, err := s.ExecutionRepo.CancelScheduledForConversation(conversationID); err != nil {
        return err
    }
    return s.HistoryRepo.Append(conversationID, model.EventUserResponded, "")
}
