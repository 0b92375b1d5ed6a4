// internal/service/scheduler_service.go
package service

import (
    "log"
    "time"

    appErrors "github.com/leadloop/followup-backend/internal/errors"
    "github.com/leadloop/followup-backend/internal/model"
    "github.com/leadloop/followup-backend/internal/repository"
)

type SchedulerService struct {
    ConfigRepo    repository.ConfigRepositoryInterface
    ExecutionRepo repository.ExecutionRepositoryInterface
}

// ScheduleNext creates the pending execution for a conversation's next step.
// It is idempotent: a second call before the step fires returns the existing
// scheduled execution. A nil, nil return is a deliberate no-op (sequence
// finished, or the current step is still in flight).
func (s *SchedulerService) ScheduleNext(conversationID, configID int) (*model.FollowupExecution, error) {
    config, err := s.ConfigRepo.GetByID(configID)
    if err != nil {
        return nil, err
    }
    if !config.IsActive {
        return nil, appErrors.NewConfigInactive(configID)
    }

    steps, err := s.ConfigRepo.ListSteps(configID)
    if err != nil {
        return nil, err
    }
    if len(steps) == 0 {
        return nil, appErrors.NewNoSteps(configID)
    }

    last, lastOrder, err := s.ExecutionRepo.LatestNonCancelled(conversationID, configID)
    if err != nil {
        return nil, err
    }

    var next *model.FollowupStep
    iteration := 0
    isLoop := false
    base := time.Now()

    if last == nil {
        next = &steps[0]
    } else {
        if !last.Terminal() {
            if last.Status == model.ExecutionScheduled {
                // Idempotent: a second pass before the step fires hands back the pending row.
                return last, nil
            }
            // Mid-send; never create N+1 underneath it.
            return nil, nil
        }

        iteration = last.LoopIteration
        isLoop = last.IsInfiniteLoop
        if last.SentAt != nil {
            base = *last.SentAt
        }

        targetOrder := lastOrder + 1
        if last.Status == model.ExecutionFailed {
            // A failed send is never retried in place; a fresh pass targets the same step.
            targetOrder = lastOrder
        }

        for i := range steps {
            if steps[i].StepOrder == targetOrder {
                next = &steps[i]
                break
            }
        }
        if next == nil {
            // Past the last step. Loop re-entry is the Loop Controller's call, not ours.
            return nil, nil
        }
    }

    return s.ScheduleStep(conversationID, config, next, base, iteration, isLoop)
}

// ScheduleStep inserts one scheduled execution for a concrete step. The Loop
// Controller calls this directly when re-entering the loop range.
func (s *SchedulerService) ScheduleStep(conversationID int, config *model.FollowupConfig, step *model.FollowupStep, base time.Time, iteration int, isLoop bool) (*model.FollowupExecution, error) {
    existing, err := s.ExecutionRepo.GetScheduled(conversationID, step.ID)
    if err != nil {
        return nil, err
    }
    if existing != nil {
        log.Println("⚠️ execution already scheduled for conversation", conversationID, "step", step.ID)
        return existing, nil
    }

    due := ClampToBusinessHours(base.Add(step.Delay()), config.BusinessHoursStart, config.BusinessHoursEnd)

    exec := &model.FollowupExecution{
        ConfigID:       config.ID,
        ConversationID: conversationID,
        StepID:         step.ID,
        Status:         model.ExecutionScheduled,
        ScheduledAt:    due,
        IsInfiniteLoop: isLoop,
        LoopIteration:  iteration,
    }
    if err := s.ExecutionRepo.Create(exec); err != nil {
        return nil, err
    }
    return exec, nil
}

// DueExecutions lists executions whose scheduled_at has passed.
func (s *SchedulerService) DueExecutions(now time.Time, limit int) ([]int, error) {
    return s.ExecutionRepo.ListDue(now, limit)
}

// ClampToBusinessHours pushes a due time that falls outside the config's
// window to the next window opening. Start and end are "HH:MM" local
// time-of-day; an empty or malformed window leaves the time untouched.
func ClampToBusinessHours(t time.Time, startStr, endStr string) time.Time {
    if startStr == "" || endStr == "" {
        return t
    }
    start, err := time.Parse("15:04", startStr)
    if err != nil {
        return t
    }
    end, err := time.Parse("15:04", endStr)
    if err != nil {
        return t
    }

    open := time.Date(t.Year(), t.Month(), t.Day(), start.Hour(), start.Minute(), 0, 0, t.Location())
    close := time.Date(t.Year(), t.Month(), t.Day(), end.Hour(), end.Minute(), 0, 0, t.Location())

    if t.Before(open) {
        return open
    }
    if t.After(close) {
        return open.Add(24 * time.Hour)
    }
    return t
}
