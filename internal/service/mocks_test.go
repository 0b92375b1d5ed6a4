package service_test

import (
	"fmt"
	"sync"
	"time"

	appErrors "github.com/leadloop/followup-backend/internal/errors"
	"github.com/leadloop/followup-backend/internal/model"
	"github.com/leadloop/followup-backend/internal/service"
)

// --- Mock Repositories ---

type MockConfigRepo struct {
	mu      sync.Mutex
	nextID  int
	configs map[int]*model.FollowupConfig
	steps   []*model.FollowupStep
}

func NewMockConfigRepo() *MockConfigRepo {
	return &MockConfigRepo{configs: map[int]*model.FollowupConfig{}}
}

func (m *MockConfigRepo) Create(c *model.FollowupConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	m.configs[c.ID] = c
	return nil
}

func (m *MockConfigRepo) Update(c *model.FollowupConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[c.ID] = c
	return nil
}

func (m *MockConfigRepo) GetByID(id int) (*model.FollowupConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.configs[id]
	if !ok {
		return nil, appErrors.NewConfigNotFound(id)
	}
	return c, nil
}

func (m *MockConfigRepo) ListConfigs(offset, limit int, agentID int, activeOnly bool) ([]*model.FollowupConfig, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.FollowupConfig{}
	for _, c := range m.configs {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *MockConfigRepo) UpdateActive(configID int, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.configs[configID]; ok {
		c.IsActive = active
	}
	return nil
}

func (m *MockConfigRepo) Delete(configID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.configs, configID)
	kept := []*model.FollowupStep{}
	for _, s := range m.steps {
		if s.ConfigID != configID {
			kept = append(kept, s)
		}
	}
	m.steps = kept
	return nil
}

func (m *MockConfigRepo) CreateStep(s *model.FollowupStep) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	s.CreatedAt = time.Now()
	m.steps = append(m.steps, s)
	return nil
}

func (m *MockConfigRepo) ListSteps(configID int) ([]model.FollowupStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.FollowupStep{}
	// steps are appended in order in the tests
	for _, s := range m.steps {
		if s.ConfigID == configID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *MockConfigRepo) GetStepByID(id int) (*model.FollowupStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.steps {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (m *MockConfigRepo) GetStepByOrder(configID, stepOrder int) (*model.FollowupStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.steps {
		if s.ConfigID == configID && s.StepOrder == stepOrder {
			return s, nil
		}
	}
	return nil, nil
}

func (m *MockConfigRepo) DeleteStep(stepID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := []*model.FollowupStep{}
	for _, s := range m.steps {
		if s.ID != stepID {
			kept = append(kept, s)
		}
	}
	m.steps = kept
	return nil
}

type MockExecutionRepo struct {
	mu     sync.Mutex
	nextID int
	execs  map[int]*model.FollowupExecution
	Steps  *MockConfigRepo
}

func NewMockExecutionRepo(steps *MockConfigRepo) *MockExecutionRepo {
	return &MockExecutionRepo{execs: map[int]*model.FollowupExecution{}, Steps: steps}
}

func (m *MockExecutionRepo) stepOrder(stepID int) int {
	s, _ := m.Steps.GetStepByID(stepID)
	if s == nil {
		return 0
	}
	return s.StepOrder
}

func (m *MockExecutionRepo) Create(e *model.FollowupExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = m.nextID
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Status == "" {
		e.Status = model.ExecutionScheduled
	}
	m.execs[e.ID] = e
	return nil
}

// Read methods hand out copies so concurrent tests never observe a
// half-written status.
func (m *MockExecutionRepo) GetByID(id int) (*model.FollowupExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.execs[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *MockExecutionRepo) GetScheduled(conversationID, stepID int) (*model.FollowupExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.execs {
		if e.ConversationID == conversationID && e.StepID == stepID && e.Status == model.ExecutionScheduled {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockExecutionRepo) LatestNonCancelled(conversationID, configID int) (*model.FollowupExecution, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.FollowupExecution
	for _, e := range m.execs {
		if e.ConversationID != conversationID || e.ConfigID != configID || e.Status == model.ExecutionCancelled {
			continue
		}
		if latest == nil || e.ID > latest.ID {
			latest = e
		}
	}
	if latest == nil {
		return nil, 0, nil
	}
	cp := *latest
	return &cp, m.stepOrder(latest.StepID), nil
}

func (m *MockExecutionRepo) LatestByConversation(conversationID int) (*model.FollowupExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.FollowupExecution
	for _, e := range m.execs {
		if e.ConversationID != conversationID {
			continue
		}
		if latest == nil || e.ID > latest.ID {
			latest = e
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *MockExecutionRepo) LastSentAt(conversationID int) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *time.Time
	for _, e := range m.execs {
		if e.ConversationID != conversationID || e.SentAt == nil {
			continue
		}
		if last == nil || e.SentAt.After(*last) {
			t := *e.SentAt
			last = &t
		}
	}
	return last, nil
}

func (m *MockExecutionRepo) ListDue(now time.Time, limit int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []int{}
	for _, e := range m.execs {
		if e.Status == model.ExecutionScheduled && !e.ScheduledAt.After(now) {
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}

// ClaimForSend mirrors the conditional UPDATE: only one caller wins.
func (m *MockExecutionRepo) ClaimForSend(id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.execs[id]
	if !ok || e.Status != model.ExecutionScheduled {
		return false, nil
	}
	now := time.Now()
	e.Status = model.ExecutionSent
	e.SentAt = &now
	return true, nil
}

func (m *MockExecutionRepo) MarkCompleted(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.execs[id]; ok && e.Status == model.ExecutionSent {
		e.Status = model.ExecutionCompleted
	}
	return nil
}

func (m *MockExecutionRepo) MarkFailed(id int, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.execs[id]; ok {
		e.Status = model.ExecutionFailed
		e.LastError = lastError
	}
	return nil
}

func (m *MockExecutionRepo) CancelScheduledForConversation(conversationID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, e := range m.execs {
		if e.ConversationID == conversationID && e.Status == model.ExecutionScheduled {
			e.Status = model.ExecutionCancelled
			count++
		}
	}
	return count, nil
}

func (m *MockExecutionRepo) CountScheduledByConfig(configID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, e := range m.execs {
		if e.ConfigID == configID && e.Status == model.ExecutionScheduled {
			count++
		}
	}
	return count, nil
}

func (m *MockExecutionRepo) ConversationsForConfig(configID int, from, to time.Time) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[int]bool{}
	ids := []int{}
	for _, e := range m.execs {
		if e.ConfigID == configID && !seen[e.ConversationID] {
			seen[e.ConversationID] = true
			ids = append(ids, e.ConversationID)
		}
	}
	return ids, nil
}

func (m *MockExecutionRepo) CountsByStatus(configID int) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := map[string]int{"scheduled": 0, "sent": 0, "completed": 0, "failed": 0, "cancelled": 0}
	for _, e := range m.execs {
		if e.ConfigID == configID {
			stats[e.Status]++
		}
	}
	return stats, nil
}

func (m *MockExecutionRepo) All() []*model.FollowupExecution {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.FollowupExecution{}
	for _, e := range m.execs {
		out = append(out, e)
	}
	return out
}

type MockHistoryRepo struct {
	mu     sync.Mutex
	events []model.HistoryEvent
}

func (m *MockHistoryRepo) Append(conversationID int, eventType, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, model.HistoryEvent{
		ID:             len(m.events) + 1,
		ConversationID: conversationID,
		EventType:      eventType,
		Payload:        payload,
		CreatedAt:      time.Now(),
	})
	return nil
}

func (m *MockHistoryRepo) ListByConversation(conversationID int) ([]model.HistoryEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.HistoryEvent{}
	for _, ev := range m.events {
		if ev.ConversationID == conversationID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type MockConversationRepo struct {
	mu       sync.Mutex
	convs    map[int]*model.Conversation
	messages []model.ConversationMessage
}

func NewMockConversationRepo() *MockConversationRepo {
	return &MockConversationRepo{convs: map[int]*model.Conversation{}}
}

func (m *MockConversationRepo) AddConversation(c *model.Conversation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.convs[c.ID] = c
}

func (m *MockConversationRepo) GetByID(id int) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.convs[id], nil
}

func (m *MockConversationRepo) SetPaused(id int, paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.convs[id]; ok {
		c.IsPaused = paused
	}
	return nil
}

func (m *MockConversationRepo) InsertMessage(msg *model.ConversationMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = len(m.messages) + 1
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, *msg)
	if c, ok := m.convs[msg.ConversationID]; ok {
		t := msg.CreatedAt
		c.LastMessageAt = &t
	}
	return nil
}

func (m *MockConversationRepo) HasInboundSince(conversationID int, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID && msg.Direction == model.DirectionInbound && msg.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

// CountingSender records every send; FailAll flips it into a dead gateway.
type CountingSender struct {
	mu      sync.Mutex
	Sends   int
	FailAll bool
}

func (s *CountingSender) Send(conversation *model.Conversation, body string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAll {
		return "", fmt.Errorf("gateway unreachable")
	}
	s.Sends++
	return fmt.Sprintf("receipt-%d", s.Sends), nil
}

// --- Engine wiring helper ---

type engine struct {
	configRepo    *MockConfigRepo
	execRepo      *MockExecutionRepo
	historyRepo   *MockHistoryRepo
	convRepo      *MockConversationRepo
	sender        *CountingSender
	scheduler     *service.SchedulerService
	executor      *service.ExecutorService
	classifier    *service.ClassifierService
	conversations *service.ConversationService
	history       *service.HistoryService
}

func newEngine() *engine {
	configRepo := NewMockConfigRepo()
	execRepo := NewMockExecutionRepo(configRepo)
	historyRepo := &MockHistoryRepo{}
	convRepo := NewMockConversationRepo()
	snd := &CountingSender{}

	scheduler := &service.SchedulerService{
		ConfigRepo:    configRepo,
		ExecutionRepo: execRepo,
	}
	loop := &service.LoopController{
		ConfigRepo:       configRepo,
		ConversationRepo: convRepo,
		HistoryRepo:      historyRepo,
		Scheduler:        scheduler,
	}
	executor := &service.ExecutorService{
		ExecutionRepo:    execRepo,
		ConfigRepo:       configRepo,
		ConversationRepo: convRepo,
		HistoryRepo:      historyRepo,
		Sender:           snd,
		Scheduler:        scheduler,
		Loop:             loop,
	}
	classifier := &service.ClassifierService{
		ExecutionRepo:    execRepo,
		HistoryRepo:      historyRepo,
		ConversationRepo: convRepo,
		ConfigRepo:       configRepo,
	}
	conversations := &service.ConversationService{
		ConversationRepo: convRepo,
		ExecutionRepo:    execRepo,
		HistoryRepo:      historyRepo,
	}
	history := &service.HistoryService{
		HistoryRepo:      historyRepo,
		ExecutionRepo:    execRepo,
		ConversationRepo: convRepo,
	}

	return &engine{
		configRepo:    configRepo,
		execRepo:      execRepo,
		historyRepo:   historyRepo,
		convRepo:      convRepo,
		sender:        snd,
		scheduler:     scheduler,
		executor:      executor,
		classifier:    classifier,
		conversations: conversations,
		history:       history,
	}
}

func intPtr(i int) *int { return &i }

// seedLoopConfig creates the three-step config with loop range (1, 3) used in
// several tests: A(delay 0), B(1h), C(1h).
func (e *engine) seedLoopConfig() *model.FollowupConfig {
	config := &model.FollowupConfig{
		AgentID:      1,
		Name:         "Reactivation",
		IsActive:     true,
		AutoMessage:  true,
		LoopFromStep: intPtr(1),
		LoopToStep:   intPtr(3),
	}
	e.configRepo.Create(config)
	e.configRepo.CreateStep(&model.FollowupStep{ConfigID: config.ID, StepOrder: 1, Title: "A", DelayValue: 0, DelayUnit: model.DelayUnitMinutes, MessageTemplate: "Hi {contact_name}"})
	e.configRepo.CreateStep(&model.FollowupStep{ConfigID: config.ID, StepOrder: 2, Title: "B", DelayValue: 1, DelayUnit: model.DelayUnitHours, MessageTemplate: "Reminder for {contact_name}"})
	e.configRepo.CreateStep(&model.FollowupStep{ConfigID: config.ID, StepOrder: 3, Title: "C", DelayValue: 1, DelayUnit: model.DelayUnitHours, MessageTemplate: "Last call {contact_name}"})
	return config
}

func (e *engine) seedConversation(id int) *model.Conversation {
	conv := &model.Conversation{ID: id, Phone: "254700111222", ContactName: "Alice", AgentID: 1}
	e.convRepo.AddConversation(conv)
	return conv
}
