// internal/service/executor_service.go
package service

import (
    "log"
    "time"

    appErrors "github.com/leadloop/followup-backend/internal/errors"
    "github.com/leadloop/followup-backend/internal/model"
    "github.com/leadloop/followup-backend/internal/repository"
    "github.com/leadloop/followup-backend/internal/sender"
)

type ExecutorService struct {
    ExecutionRepo    repository.ExecutionRepositoryInterface
    ConfigRepo       repository.ConfigRepositoryInterface
    ConversationRepo repository.ConversationRepositoryInterface
    HistoryRepo      repository.HistoryRepositoryInterface
    Sender           sender.Sender
    Scheduler        *SchedulerService
    Loop             *LoopController
}

// Result struct for Execute
type ExecutionResult struct {
    ExecutionID     int
    Status          string
    Claimed         bool
    Looped          bool
    NextExecutionID int
}

// Execute drives one execution through its state machine:
// scheduled -> sent -> completed, or scheduled -> failed / cancelled.
func (s *ExecutorService) Execute(executionID int) (*ExecutionResult, error) {
    exec, err := s.ExecutionRepo.GetByID(executionID)
    if err != nil {
        return nil, err
    }
    if exec == nil {
        return nil, appErrors.NewExecutionNotFound(executionID)
    }

    result := &ExecutionResult{ExecutionID: executionID, Status: exec.Status}

    if exec.Status != model.ExecutionScheduled {
        // Another tick already picked this one up.
        return result, nil
    }

    // Preconditions are checked at execution time: the conversation may have
    // been paused or deleted since the row was scheduled.
    conv, err := s.ConversationRepo.GetByID(exec.ConversationID)
    if err != nil {
        return nil, err
    }
    if conv == nil {
        if _, err := s.ExecutionRepo.CancelScheduledForConversation(exec.ConversationID); err != nil {
            return nil, err
        }
        _ = s.HistoryRepo.Append(exec.ConversationID, model.EventCancelled, "")
        result.Status = model.ExecutionCancelled
        log.Println("⚠️ conversation", exec.ConversationID, "no longer exists, execution cancelled")
        return result, nil
    }
    if conv.IsPaused {
        if _, err := s.ExecutionRepo.CancelScheduledForConversation(conv.ID); err != nil {
            return nil, err
        }
        _ = s.HistoryRepo.Append(conv.ID, model.EventAgentPaused, "")
        result.Status = model.ExecutionCancelled
        log.Println("⚠️ conversation", conv.ID, "is paused, execution cancelled")
        return result, nil
    }

    step, err := s.ConfigRepo.GetStepByID(exec.StepID)
    if err != nil {
        return nil, err
    }
    if step == nil {
        return nil, appErrors.NewNoSteps(exec.ConfigID)
    }
    config, err := s.ConfigRepo.GetByID(exec.ConfigID)
    if err != nil {
        return nil, err
    }

    // Single atomic claim; exactly one racing worker wins.
    claimed, err := s.ExecutionRepo.ClaimForSend(exec.ID)
    if err != nil {
        return nil, err
    }
    if !claimed {
        fresh, err := s.ExecutionRepo.GetByID(exec.ID)
        if err == nil && fresh != nil {
            result.Status = fresh.Status
        }
        return result, nil
    }
    result.Claimed = true
    sentAt := time.Now()

    body := RenderTemplate(step.MessageTemplate, ConversationPlaceholders(conv))
    if _, err := s.Sender.Send(conv, body); err != nil {
        log.Println("⚠️ send failed for execution", exec.ID, ":", err)
        if err := s.ExecutionRepo.MarkFailed(exec.ID, err.Error()); err != nil {
            return nil, err
        }
        result.Status = model.ExecutionFailed
        return result, nil
    }

    _ = s.ConversationRepo.InsertMessage(&model.ConversationMessage{
        ConversationID: conv.ID,
        Direction:      model.DirectionOutbound,
        Body:           body,
    })

    if err := s.ExecutionRepo.MarkCompleted(exec.ID); err != nil {
        return nil, err
    }
    result.Status = model.ExecutionCompleted
    log.Println("✅ Execution completed:", exec.ID)

    if s.terminalStep(config, step) {
        next, err := s.Loop.OnTerminalStep(config, exec, sentAt)
        if err != nil {
            return nil, err
        }
        if next != nil {
            result.Looped = true
            result.NextExecutionID = next.ID
        }
        return result, nil
    }

    if config.AutoMessage {
        next, err := s.Scheduler.ScheduleNext(conv.ID, config.ID)
        if err != nil {
            log.Println("⚠️ failed to schedule next step for conversation", conv.ID, ":", err)
            return result, nil
        }
        if next != nil {
            result.NextExecutionID = next.ID
        }
    }

    return result, nil
}

// terminalStep: the last step of the sequence is the max step_order, or the
// loop's to_step when a range is configured.
func (s *ExecutorService) terminalStep(config *model.FollowupConfig, step *model.FollowupStep) bool {
    if config.HasLoop() {
        return step.StepOrder >= *config.LoopToStep
    }
    steps, err := s.ConfigRepo.ListSteps(config.ID)
    if err != nil || len(steps) == 0 {
        return true
    }
    return step.StepOrder >= steps[len(steps)-1].StepOrder
}
