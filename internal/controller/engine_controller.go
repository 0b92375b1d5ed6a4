// internal/controller/engine_controller.go
package controller

import (
    "encoding/json"
    "errors"
    "log"
    "net/http"
    "strconv"
    "time"

    appErrors "github.com/leadloop/followup-backend/internal/errors"
    "github.com/leadloop/followup-backend/internal/queue"
    "github.com/leadloop/followup-backend/internal/service"

    "github.com/go-chi/chi/v5"
)

type EngineController struct {
    Scheduler           *service.SchedulerService
    ConversationService *service.ConversationService
    HistoryService      *service.HistoryService
    Queue               queue.Queue
}

// ScheduleConversation triggers ScheduleNext for a conversation. If the new
// execution is already due it goes straight onto the in-process queue.
func (c *EngineController) ScheduleConversation(w http.ResponseWriter, r *http.Request) {
    idStr := chi.URLParam(r, "id")
    conversationID, _ := strconv.Atoi(idStr)

    var body struct {
        ConfigID int `json:"config_id"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    exec, err := c.Scheduler.ScheduleNext(conversationID, body.ConfigID)
    if err != nil {
        var inactive *appErrors.ErrConfigInactive
        var noSteps *appErrors.ErrNoSteps
        var notFound *appErrors.ErrConfigNotFound
        switch {
        case errors.As(err, &inactive), errors.As(err, &noSteps):
            http.Error(w, err.Error(), http.StatusUnprocessableEntity)
        case errors.As(err, &notFound):
            http.Error(w, err.Error(), http.StatusNotFound)
        default:
            http.Error(w, err.Error(), http.StatusInternalServerError)
        }
        return
    }

    if exec == nil {
        json.NewEncoder(w).Encode(map[string]interface{}{
            "scheduled": false,
            "reason":    "nothing to schedule",
        })
        return
    }

    if c.Queue != nil && !exec.ScheduledAt.After(time.Now()) {
        if err := c.Queue.Publish("followup_executions", exec.ID); err != nil {
            log.Println("⚠️ failed to enqueue execution ID", exec.ID, ":", err)
        }
    }

    json.NewEncoder(w).Encode(map[string]interface{}{
        "scheduled": true,
        "execution": exec,
    })
}

func (c *EngineController) PauseConversation(w http.ResponseWriter, r *http.Request) {
    idStr := chi.URLParam(r, "id")
    conversationID, _ := strconv.Atoi(idStr)

    cancelled, err := c.ConversationService.Pause(conversationID)
    if err != nil {
        var notFound *appErrors.ErrConversationNotFound
        if errors.As(err, &notFound) {
            http.Error(w, err.Error(), http.StatusNotFound)
            return
        }
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    json.NewEncoder(w).Encode(map[string]interface{}{
        "conversation_id":      conversationID,
        "paused":               true,
        "cancelled_executions": cancelled,
    })
}

func (c *EngineController) ResumeConversation(w http.ResponseWriter, r *http.Request) {
    idStr := chi.URLParam(r, "id")
    conversationID, _ := strconv.Atoi(idStr)

    if err := c.ConversationService.Resume(conversationID); err != nil {
        var notFound *appErrors.ErrConversationNotFound
        if errors.As(err, &notFound) {
            http.Error(w, err.Error(), http.StatusNotFound)
            return
        }
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    // Resuming never reschedules by itself; callers hit the schedule
    // endpoint when they want the sequence to restart.
    json.NewEncoder(w).Encode(map[string]interface{}{
        "conversation_id": conversationID,
        "paused":          false,
    })
}

// InboundMessage is the webhook the messaging side calls when a human replies.
func (c *EngineController) InboundMessage(w http.ResponseWriter, r *http.Request) {
    idStr := chi.URLParam(r, "id")
    conversationID, _ := strconv.Atoi(idStr)

    var body struct {
        Message string `json:"message"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    if err := c.HistoryService.RecordInbound(conversationID, body.Message); err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.WriteHeader(http.StatusAccepted)
}
