// internal/service/loop_controller.go
package service

import (
    "fmt"
    "log"
    "time"

    "github.com/leadloop/followup-backend/internal/model"
    "github.com/leadloop/followup-backend/internal/repository"
)

// LoopController decides what happens when a conversation completes the last
// step of its sequence: stop, or re-enter the configured loop range. It is
// the only place loop_iteration ever increases.
type LoopController struct {
    ConfigRepo       repository.ConfigRepositoryInterface
    ConversationRepo repository.ConversationRepositoryInterface
    HistoryRepo      repository.HistoryRepositoryInterface
    Scheduler        *SchedulerService
}

// OnTerminalStep is invoked after the terminal step's execution reaches
// completed. Returns the re-entry execution when the loop fires, nil otherwise.
func (lc *LoopController) OnTerminalStep(config *model.FollowupConfig, exec *model.FollowupExecution, sentAt time.Time) (*model.FollowupExecution, error) {
    replied, err := lc.ConversationRepo.HasInboundSince(exec.ConversationID, sentAt)
    if err != nil {
        return nil, err
    }
    if replied {
        // Any engagement counts as success; the sequence is terminal.
        return nil, nil
    }

    if !config.HasLoop() {
        if err := lc.HistoryRepo.Append(exec.ConversationID, model.EventNoResponse, ""); err != nil {
            return nil, err
        }
        log.Println("📭 sequence finished without a reply, conversation", exec.ConversationID)
        return nil, nil
    }

    // Loop range validity is enforced at config-write time.
    fromStep, err := lc.ConfigRepo.GetStepByOrder(config.ID, *config.LoopFromStep)
    if err != nil {
        return nil, err
    }
    if fromStep == nil {
        return nil, fmt.Errorf("loop from_step %d missing for config %d", *config.LoopFromStep, config.ID)
    }

    iteration := exec.LoopIteration + 1
    payload := fmt.Sprintf(`{"iteration":%d}`, iteration)
    if err := lc.HistoryRepo.Append(exec.ConversationID, model.EventInfiniteLoop, payload); err != nil {
        return nil, err
    }

    next, err := lc.Scheduler.ScheduleStep(exec.ConversationID, config, fromStep, sentAt, iteration, true)
    if err != nil {
        return nil, err
    }

    log.Println("🔁 loop re-entry for conversation", exec.ConversationID, "iteration", iteration)
    return next, nil
}
