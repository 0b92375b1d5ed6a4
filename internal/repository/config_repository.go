package repository

import (
    "database/sql"
    "fmt"
    "time"

    appErrors "github.com/leadloop/followup-backend/internal/errors"
    "github.com/leadloop/followup-backend/internal/model"
)

type ConfigRepositoryInterface interface {
    // Config CRUD
    Create(c *model.FollowupConfig) error
    Update(c *model.FollowupConfig) error
    GetByID(id int) (*model.FollowupConfig, error)
    ListConfigs(offset, limit int, agentID int, activeOnly bool) ([]*model.FollowupConfig, int, error)
    UpdateActive(configID int, active bool) error
    Delete(configID int) error

    // Step catalog
    CreateStep(s *model.FollowupStep) error
    ListSteps(configID int) ([]model.FollowupStep, error)
    GetStepByID(id int) (*model.FollowupStep, error)
    GetStepByOrder(configID, stepOrder int) (*model.FollowupStep, error)
    DeleteStep(stepID int) error
}

type ConfigRepository struct {
    DB *sql.DB
}

// ====================== Config CRUD ======================

func (r *ConfigRepository) Create(c *model.FollowupConfig) error {
    c.CreatedAt = time.Now()
    query := `
        INSERT INTO followup_configs
        (agent_id, name, is_active, auto_message, business_hours_start, business_hours_end, loop_from_step, loop_to_step, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
    return r.DB.QueryRow(query,
        c.AgentID, c.Name, c.IsActive, c.AutoMessage,
        c.BusinessHoursStart, c.BusinessHoursEnd,
        c.LoopFromStep, c.LoopToStep, c.CreatedAt,
    ).Scan(&c.ID)
}

func (r *ConfigRepository) Update(c *model.FollowupConfig) error {
    query := `
        UPDATE followup_configs
        SET name=$1, is_active=$2, auto_message=$3, business_hours_start=$4, business_hours_end=$5,
            loop_from_step=$6, loop_to_step=$7, updated_at=NOW()
        WHERE id=$8
    `
    _, err := r.DB.Exec(query,
        c.Name, c.IsActive, c.AutoMessage,
        c.BusinessHoursStart, c.BusinessHoursEnd,
        c.LoopFromStep, c.LoopToStep, c.ID,
    )
    return err
}

func (r *ConfigRepository) UpdateActive(configID int, active bool) error {
    query := `UPDATE followup_configs SET is_active=$1, updated_at=$2 WHERE id=$3`
    _, err := r.DB.Exec(query, active, time.Now(), configID)
    return err
}

func (r *ConfigRepository) GetByID(id int) (*model.FollowupConfig, error) {
    query := `
        SELECT id, agent_id, name, is_active, auto_message, business_hours_start, business_hours_end,
               loop_from_step, loop_to_step, created_at, updated_at
        FROM followup_configs WHERE id=$1
    `
    var c model.FollowupConfig
    err := r.DB.QueryRow(query, id).Scan(
        &c.ID, &c.AgentID, &c.Name, &c.IsActive, &c.AutoMessage,
        &c.BusinessHoursStart, &c.BusinessHoursEnd,
        &c.LoopFromStep, &c.LoopToStep, &c.CreatedAt, &c.UpdatedAt,
    )
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, appErrors.NewConfigNotFound(id)
        }
        return nil, err
    }
    return &c, nil
}

func (r *ConfigRepository) ListConfigs(offset, limit int, agentID int, activeOnly bool) ([]*model.FollowupConfig, int, error) {
    configs := []*model.FollowupConfig{}
    query := `
        SELECT id, agent_id, name, is_active, auto_message, business_hours_start, business_hours_end,
               loop_from_step, loop_to_step, created_at, updated_at
        FROM followup_configs WHERE 1=1
    `
    args := []interface{}{}
    argPos := 1

    if agentID > 0 {
        query += fmt.Sprintf(" AND agent_id=$%d", argPos)
        args = append(args, agentID)
        argPos++
    }
    if activeOnly {
        query += " AND is_active=true"
    }

    query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
    args = append(args, limit, offset)

    rows, err := r.DB.Query(query, args...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    for rows.Next() {
        c := &model.FollowupConfig{}
        if err := rows.Scan(
            &c.ID, &c.AgentID, &c.Name, &c.IsActive, &c.AutoMessage,
            &c.BusinessHoursStart, &c.BusinessHoursEnd,
            &c.LoopFromStep, &c.LoopToStep, &c.CreatedAt, &c.UpdatedAt,
        ); err != nil {
            return nil, 0, err
        }
        configs = append(configs, c)
    }

    // Count total
    countQuery := `SELECT COUNT(*) FROM followup_configs WHERE 1=1`
    argsCount := []interface{}{}
    if agentID > 0 {
        countQuery += " AND agent_id=$1"
        argsCount = append(argsCount, agentID)
    }
    if activeOnly {
        countQuery += " AND is_active=true"
    }

    var total int
    if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
        return nil, 0, err
    }

    return configs, total, nil
}

func (r *ConfigRepository) Delete(configID int) error {
    // Steps go with the config; executions are audit rows and keep their config_id.
    if _, err := r.DB.Exec(`DELETE FROM followup_steps WHERE config_id=$1`, configID); err != nil {
        return err
    }
    _, err := r.DB.Exec(`DELETE FROM followup_configs WHERE id=$1`, configID)
    return err
}

// ====================== Step Catalog ======================

func (r *ConfigRepository) CreateStep(s *model.FollowupStep) error {
    s.CreatedAt = time.Now()
    query := `
        INSERT INTO followup_steps (config_id, step_order, title, delay_value, delay_unit, message_template, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
    return r.DB.QueryRow(query,
        s.ConfigID, s.StepOrder, s.Title, s.DelayValue, s.DelayUnit, s.MessageTemplate, s.CreatedAt,
    ).Scan(&s.ID)
}

func (r *ConfigRepository) ListSteps(configID int) ([]model.FollowupStep, error) {
    query := `
        SELECT id, config_id, step_order, title, delay_value, delay_unit, message_template, created_at
        FROM followup_steps
        WHERE config_id=$1
        ORDER BY step_order ASC
    `
    rows, err := r.DB.Query(query, configID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    steps := []model.FollowupStep{}
    for rows.Next() {
        var s model.FollowupStep
        if err := rows.Scan(&s.ID, &s.ConfigID, &s.StepOrder, &s.Title, &s.DelayValue, &s.DelayUnit, &s.MessageTemplate, &s.CreatedAt); err != nil {
            return nil, err
        }
        steps = append(steps, s)
    }
    return steps, nil
}

func (r *ConfigRepository) GetStepByID(id int) (*model.FollowupStep, error) {
    query := `
        SELECT id, config_id, step_order, title, delay_value, delay_unit, message_template, created_at
        FROM followup_steps WHERE id=$1
    `
    var s model.FollowupStep
    err := r.DB.QueryRow(query, id).Scan(&s.ID, &s.ConfigID, &s.StepOrder, &s.Title, &s.DelayValue, &s.DelayUnit, &s.MessageTemplate, &s.CreatedAt)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, nil
        }
        return nil, err
    }
    return &s, nil
}

func (r *ConfigRepository) GetStepByOrder(configID, stepOrder int) (*model.FollowupStep, error) {
    query := `
        SELECT id, config_id, step_order, title, delay_value, delay_unit, message_template, created_at
        FROM followup_steps WHERE config_id=$1 AND step_order=$2
    `
    var s model.FollowupStep
    err := r.DB.QueryRow(query, configID, stepOrder).Scan(&s.ID, &s.ConfigID, &s.StepOrder, &s.Title, &s.DelayValue, &s.DelayUnit, &s.MessageTemplate, &s.CreatedAt)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, nil
        }
        return nil, err
    }
    return &s, nil
}

func (r *ConfigRepository) DeleteStep(stepID int) error {
    _, err := r.DB.Exec(`DELETE FROM followup_steps WHERE id=$1`, stepID)
    return err
}

var _ ConfigRepositoryInterface = (*ConfigRepository)(nil)
