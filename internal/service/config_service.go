// internal/service/config_service.go
package service

import (
    "fmt"
    "log"
    "strings"
    "time"

    appErrors "github.com/leadloop/followup-backend/internal/errors"
    "github.com/leadloop/followup-backend/internal/model"
    "github.com/leadloop/followup-backend/internal/repository"
)

type ConfigService struct {
    ConfigRepo       repository.ConfigRepositoryInterface
    ExecutionRepo    repository.ExecutionRepositoryInterface
    ConversationRepo repository.ConversationRepositoryInterface
}

type ConfigDetails struct {
    ID                 int                  `json:"id"`
    AgentID            int                  `json:"agent_id"`
    Name               string               `json:"name"`
    IsActive           bool                 `json:"is_active"`
    AutoMessage        bool                 `json:"auto_message"`
    BusinessHoursStart string               `json:"business_hours_start"`
    BusinessHoursEnd   string               `json:"business_hours_end"`
    LoopFromStep       *int                 `json:"loop_from_step,omitempty"`
    LoopToStep         *int                 `json:"loop_to_step,omitempty"`
    CreatedAt          time.Time            `json:"created_at"`
    UpdatedAt          *time.Time           `json:"updated_at,omitempty"`
    Steps              []model.FollowupStep `json:"steps"`
    Stats              map[string]int       `json:"stats"`
}

func (s *ConfigService) CreateConfig(c *model.FollowupConfig) error {
    if err := s.validate(c); err != nil {
        return err
    }
    return s.ConfigRepo.Create(c)
}

func (s *ConfigService) UpdateConfig(c *model.FollowupConfig) error {
    if _, err := s.ConfigRepo.GetByID(c.ID); err != nil {
        return err
    }
    if err := s.validate(c); err != nil {
        return err
    }
    return s.ConfigRepo.Update(c)
}

// DeleteConfig rejects deletion while scheduled executions still reference
// the config; soft-disable via is_active is the way to retire one in flight.
func (s *ConfigService) DeleteConfig(id int) error {
    if _, err := s.ConfigRepo.GetByID(id); err != nil {
        return err
    }
    scheduled, err := s.ExecutionRepo.CountScheduledByConfig(id)
    if err != nil {
        return err
    }
    if scheduled > 0 {
        return appErrors.NewConfigInUse(id, scheduled)
    }
    return s.ConfigRepo.Delete(id)
}

func (s *ConfigService) AddStep(step *model.FollowupStep) error {
    if _, err := s.ConfigRepo.GetByID(step.ConfigID); err != nil {
        return err
    }
    if step.StepOrder < 1 {
        return fmt.Errorf("step_order must be 1-based, got %d", step.StepOrder)
    }
    if !model.ValidDelayUnit(step.DelayUnit) {
        return fmt.Errorf("invalid delay_unit: %s", step.DelayUnit)
    }
    if strings.TrimSpace(step.MessageTemplate) == "" {
        return fmt.Errorf("message_template cannot be empty")
    }

    existing, err := s.ConfigRepo.GetStepByOrder(step.ConfigID, step.StepOrder)
    if err != nil {
        return err
    }
    if existing != nil {
        return fmt.Errorf("step_order %d already exists for config %d", step.StepOrder, step.ConfigID)
    }

    return s.ConfigRepo.CreateStep(step)
}

func (s *ConfigService) RemoveStep(stepID int) error {
    step, err := s.ConfigRepo.GetStepByID(stepID)
    if err != nil {
        return err
    }
    if step == nil {
        return fmt.Errorf("step %d not found", stepID)
    }

    config, err := s.ConfigRepo.GetByID(step.ConfigID)
    if err != nil {
        return err
    }
    if config.HasLoop() && (*config.LoopFromStep == step.StepOrder || *config.LoopToStep == step.StepOrder) {
        return appErrors.NewInvalidLoopRange(*config.LoopFromStep, *config.LoopToStep)
    }

    return s.ConfigRepo.DeleteStep(stepID)
}

// ListConfigs fetches configs with pagination
func (s *ConfigService) ListConfigs(page, pageSize int, agentID int, activeOnly bool) ([]model.FollowupConfig, map[string]int, error) {
    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }
    if pageSize > 100 {
        pageSize = 100
    }
    offset := (page - 1) * pageSize

    ptrs, total, err := s.ConfigRepo.ListConfigs(offset, pageSize, agentID, activeOnly)
    if err != nil {
        return nil, nil, err
    }

    configs := make([]model.FollowupConfig, len(ptrs))
    for i, c := range ptrs {
        configs[i] = *c
    }

    totalPages := (total + pageSize - 1) / pageSize
    pagination := map[string]int{
        "page":        page,
        "page_size":   pageSize,
        "total_count": total,
        "total_pages": totalPages,
    }

    return configs, pagination, nil
}

func (s *ConfigService) GetConfigDetails(id int) (*ConfigDetails, error) {
    config, err := s.ConfigRepo.GetByID(id)
    if err != nil {
        log.Println("Failed to fetch config:", err)
        return nil, err
    }

    steps, err := s.ConfigRepo.ListSteps(id)
    if err != nil {
        return nil, err
    }

    stats, err := s.ExecutionRepo.CountsByStatus(id)
    if err != nil {
        return nil, err
    }

    return &ConfigDetails{
        ID:                 config.ID,
        AgentID:            config.AgentID,
        Name:               config.Name,
        IsActive:           config.IsActive,
        AutoMessage:        config.AutoMessage,
        BusinessHoursStart: config.BusinessHoursStart,
        BusinessHoursEnd:   config.BusinessHoursEnd,
        LoopFromStep:       config.LoopFromStep,
        LoopToStep:         config.LoopToStep,
        CreatedAt:          config.CreatedAt,
        UpdatedAt:          config.UpdatedAt,
        Steps:              steps,
        Stats:              stats,
    }, nil
}

// PreviewStep renders a step template against a conversation without sending.
func (s *ConfigService) PreviewStep(configID, stepOrder, conversationID int, overrideTemplate *string) (string, error) {
    step, err := s.ConfigRepo.GetStepByOrder(configID, stepOrder)
    if err != nil {
        return "", err
    }
    if step == nil {
        return "", fmt.Errorf("step %d not found for config %d", stepOrder, configID)
    }

    conv, err := s.ConversationRepo.GetByID(conversationID)
    if err != nil {
        return "", err
    }
    if conv == nil {
        return "", appErrors.NewConversationNotFound(conversationID)
    }

    template := step.MessageTemplate
    if overrideTemplate != nil && strings.TrimSpace(*overrideTemplate) != "" {
        template = *overrideTemplate
    }
    if strings.TrimSpace(template) == "" {
        return "", fmt.Errorf("template cannot be empty")
    }

    return RenderTemplate(template, ConversationPlaceholders(conv)), nil
}

// validate enforces the write-time invariants so the Loop Controller can
// assume a valid range whenever is_active is true.
func (s *ConfigService) validate(c *model.FollowupConfig) error {
    if strings.TrimSpace(c.Name) == "" {
        return fmt.Errorf("config name cannot be empty")
    }
    if c.BusinessHoursStart != "" || c.BusinessHoursEnd != "" {
        if _, err := time.Parse("15:04", c.BusinessHoursStart); err != nil {
            return fmt.Errorf("invalid business_hours_start: %s", c.BusinessHoursStart)
        }
        if _, err := time.Parse("15:04", c.BusinessHoursEnd); err != nil {
            return fmt.Errorf("invalid business_hours_end: %s", c.BusinessHoursEnd)
        }
    }

    if c.LoopFromStep == nil && c.LoopToStep == nil {
        return nil
    }
    if c.LoopFromStep == nil || c.LoopToStep == nil {
        return appErrors.NewInvalidLoopRange(0, 0)
    }
    if *c.LoopFromStep > *c.LoopToStep {
        return appErrors.NewInvalidLoopRange(*c.LoopFromStep, *c.LoopToStep)
    }

    // Both bounds must reference existing steps of this config.
    if c.ID > 0 {
        steps, err := s.ConfigRepo.ListSteps(c.ID)
        if err != nil {
            return err
        }
        foundFrom, foundTo := false, false
        for _, st := range steps {
            if st.StepOrder == *c.LoopFromStep {
                foundFrom = true
            }
            if st.StepOrder == *c.LoopToStep {
                foundTo = true
            }
        }
        if !foundFrom || !foundTo {
            return appErrors.NewInvalidLoopRange(*c.LoopFromStep, *c.LoopToStep)
        }
    } else {
        // A brand-new config has no steps yet, so a loop range cannot be valid.
        return appErrors.NewInvalidLoopRange(*c.LoopFromStep, *c.LoopToStep)
    }

    return nil
}
