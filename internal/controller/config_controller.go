// internal/controller/config_controller.go
package controller

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"

    appErrors "github.com/leadloop/followup-backend/internal/errors"
    "github.com/leadloop/followup-backend/internal/model"
    "github.com/leadloop/followup-backend/internal/service"

    "github.com/go-chi/chi/v5"
)

type ConfigController struct {
    ConfigService *service.ConfigService
}

func (c *ConfigController) CreateConfig(w http.ResponseWriter, r *http.Request) {
    var body struct {
        AgentID            int    `json:"agent_id"`
        Name               string `json:"name"`
        IsActive           bool   `json:"is_active"`
        AutoMessage        bool   `json:"auto_message"`
        BusinessHoursStart string `json:"business_hours_start"`
        BusinessHoursEnd   string `json:"business_hours_end"`
        LoopFromStep       *int   `json:"loop_from_step"`
        LoopToStep         *int   `json:"loop_to_step"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    config := &model.FollowupConfig{
        AgentID:            body.AgentID,
        Name:               body.Name,
        IsActive:           body.IsActive,
        AutoMessage:        body.AutoMessage,
        BusinessHoursStart: body.BusinessHoursStart,
        BusinessHoursEnd:   body.BusinessHoursEnd,
        LoopFromStep:       body.LoopFromStep,
        LoopToStep:         body.LoopToStep,
    }

    if err := c.ConfigService.CreateConfig(config); err != nil {
        var loopErr *appErrors.ErrInvalidLoopRange
        if errors.As(err, &loopErr) {
            http.Error(w, err.Error(), http.StatusBadRequest)
            return
        }
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    json.NewEncoder(w).Encode(config)
}

func (c *ConfigController) UpdateConfig(w http.ResponseWriter, r *http.Request) {
    idStr := chi.URLParam(r, "id")
    id, _ := strconv.Atoi(idStr)

    var config model.FollowupConfig
    if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }
    config.ID = id

    if err := c.ConfigService.UpdateConfig(&config); err != nil {
        var notFound *appErrors.ErrConfigNotFound
        var loopErr *appErrors.ErrInvalidLoopRange
        switch {
        case errors.As(err, &notFound):
            http.Error(w, err.Error(), http.StatusNotFound)
        case errors.As(err, &loopErr):
            http.Error(w, err.Error(), http.StatusBadRequest)
        default:
            http.Error(w, err.Error(), http.StatusInternalServerError)
        }
        return
    }

    json.NewEncoder(w).Encode(config)
}

func (c *ConfigController) DeleteConfig(w http.ResponseWriter, r *http.Request) {
    idStr := chi.URLParam(r, "id")
    id, _ := strconv.Atoi(idStr)

    if err := c.ConfigService.DeleteConfig(id); err != nil {
        var inUse *appErrors.ErrConfigInUse
        var notFound *appErrors.ErrConfigNotFound
        switch {
        case errors.As(err, &inUse):
            http.Error(w, err.Error(), http.StatusConflict)
        case errors.As(err, &notFound):
            http.Error(w, err.Error(), http.StatusNotFound)
        default:
            http.Error(w, err.Error(), http.StatusInternalServerError)
        }
        return
    }

    w.WriteHeader(http.StatusNoContent)
}

func (c *ConfigController) ListConfigs(w http.ResponseWriter, r *http.Request) {
    // Parse query parameters
    page, _ := strconv.Atoi(r.URL.Query().Get("page"))
    pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
    agentID, _ := strconv.Atoi(r.URL.Query().Get("agent_id"))
    activeOnly := r.URL.Query().Get("active") == "true"

    // Default values if missing
    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }

    configs, pagination, err := c.ConfigService.ListConfigs(page, pageSize, agentID, activeOnly)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    json.NewEncoder(w).Encode(map[string]interface{}{
        "data":       configs,
        "pagination": pagination,
    })
}

func (c *ConfigController) GetConfig(w http.ResponseWriter, r *http.Request) {
    idStr := chi.URLParam(r, "id")
    id, err := strconv.Atoi(idStr)
    if err != nil {
        http.Error(w, "invalid config id", http.StatusBadRequest)
        return
    }

    details, err := c.ConfigService.GetConfigDetails(id)
    if err != nil {
        var notFound *appErrors.ErrConfigNotFound
        if errors.As(err, &notFound) {
            http.Error(w, err.Error(), http.StatusNotFound)
            return
        }
        http.Error(w, "failed to fetch config: "+err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(details)
}

func (c *ConfigController) AddStep(w http.ResponseWriter, r *http.Request) {
    configIDStr := chi.URLParam(r, "id")
    configID, _ := strconv.Atoi(configIDStr)

    var body struct {
        StepOrder       int    `json:"step_order"`
        Title           string `json:"title"`
        DelayValue      int    `json:"delay_value"`
        DelayUnit       string `json:"delay_unit"`
        MessageTemplate string `json:"message_template"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    step := &model.FollowupStep{
        ConfigID:        configID,
        StepOrder:       body.StepOrder,
        Title:           body.Title,
        DelayValue:      body.DelayValue,
        DelayUnit:       body.DelayUnit,
        MessageTemplate: body.MessageTemplate,
    }

    if err := c.ConfigService.AddStep(step); err != nil {
        var notFound *appErrors.ErrConfigNotFound
        if errors.As(err, &notFound) {
            http.Error(w, err.Error(), http.StatusNotFound)
            return
        }
        http.Error(w, err.Error(), http.StatusBadRequest)
        return
    }

    json.NewEncoder(w).Encode(step)
}

func (c *ConfigController) RemoveStep(w http.ResponseWriter, r *http.Request) {
    idStr := chi.URLParam(r, "stepID")
    id, _ := strconv.Atoi(idStr)

    if err := c.ConfigService.RemoveStep(id); err != nil {
        var loopErr *appErrors.ErrInvalidLoopRange
        if errors.As(err, &loopErr) {
            http.Error(w, "step is referenced by the loop range: "+err.Error(), http.StatusConflict)
            return
        }
        http.Error(w, err.Error(), http.StatusBadRequest)
        return
    }

    w.WriteHeader(http.StatusNoContent)
}

func (c *ConfigController) PreviewStep(w http.ResponseWriter, r *http.Request) {
    configIDStr := chi.URLParam(r, "id")
    configID, _ := strconv.Atoi(configIDStr)
    orderStr := chi.URLParam(r, "order")
    order, _ := strconv.Atoi(orderStr)

    var body struct {
        ConversationID   int     `json:"conversation_id"`
        OverrideTemplate *string `json:"override_template"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    rendered, err := c.ConfigService.PreviewStep(configID, order, body.ConversationID, body.OverrideTemplate)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    json.NewEncoder(w).Encode(map[string]interface{}{
        "rendered_message": rendered,
        "used_template":    body.OverrideTemplate,
        "conversation_id":  body.ConversationID,
    })
}
