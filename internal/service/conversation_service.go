// internal/service/conversation_service.go
package service

import (
    "log"

    appErrors "github.com/leadloop/followup-backend/internal/errors"
    "github.com/leadloop/followup-backend/internal/model"
    "github.com/leadloop/followup-backend/internal/repository"
)

type ConversationService struct {
    ConversationRepo repository.ConversationRepositoryInterface
    ExecutionRepo    repository.ExecutionRepositoryInterface
    HistoryRepo      repository.HistoryRepositoryInterface
}

// Pause stops the agent for a conversation: the pause flag is set, every
// pending execution is cancelled so it cannot fire later, and the pause is
// recorded. Returns how many executions were cancelled.
func (s *ConversationService) Pause(conversationID int) (int, error) {
    conv, err := s.ConversationRepo.GetByID(conversationID)
    if err != nil {
        return 0, err
    }
    if conv == nil {
        return 0, appErrors.NewConversationNotFound(conversationID)
    }

    if err := s.ConversationRepo.SetPaused(conversationID, true); err != nil {
        return 0, err
    }

    cancelled, err := s.ExecutionRepo.CancelScheduledForConversation(conversationID)
    if err != nil {
        return 0, err
    }

    if err := s.HistoryRepo.Append(conversationID, model.EventAgentPaused, ""); err != nil {
        return cancelled, err
    }

    log.Println("⏸️ conversation", conversationID, "paused,", cancelled, "executions cancelled")
    return cancelled, nil
}

// Resume only clears the pause flag. Nothing is rescheduled automatically; a
// fresh ScheduleNext call is required to restart the sequence.
func (s *ConversationService) Resume(conversationID int) error {
    conv, err := s.ConversationRepo.GetByID(conversationID)
    if err != nil {
        return err
    }
    if conv == nil {
        return appErrors.NewConversationNotFound(conversationID)
    }
    return s.ConversationRepo.SetPaused(conversationID, false)
}
