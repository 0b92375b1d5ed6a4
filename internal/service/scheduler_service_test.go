package service_test

import (
	"errors"
	"testing"
	"time"

	appErrors "github.com/leadloop/followup-backend/internal/errors"
	"github.com/leadloop/followup-backend/internal/model"
	"github.com/leadloop/followup-backend/internal/service"
)

func TestScheduleNextIdempotent(t *testing.T) {
	e := newEngine()
	config := e.seedLoopConfig()
	e.seedConversation(1)

	first, err := e.scheduler.ScheduleNext(1, config.ID)
	if err != nil {
		t.Fatalf("first ScheduleNext failed: %v", err)
	}
	if first == nil {
		t.Fatal("expected an execution, got nil")
	}

	second, err := e.scheduler.ScheduleNext(1, config.ID)
	if err != nil {
		t.Fatalf("second ScheduleNext failed: %v", err)
	}
	if second == nil || second.ID != first.ID {
		t.Errorf("expected the existing execution back, got %+v", second)
	}

	scheduled := 0
	for _, ex := range e.execRepo.All() {
		if ex.Status == model.ExecutionScheduled {
			scheduled++
		}
	}
	if scheduled != 1 {
		t.Errorf("expected exactly 1 scheduled execution, got %d", scheduled)
	}
}

func TestScheduleNextInactiveConfig(t *testing.T) {
	e := newEngine()
	config := e.seedLoopConfig()
	config.IsActive = false
	e.configRepo.Update(config)
	e.seedConversation(1)

	_, err := e.scheduler.ScheduleNext(1, config.ID)
	var inactive *appErrors.ErrConfigInactive
	if !errors.As(err, &inactive) {
		t.Errorf("expected ErrConfigInactive, got %v", err)
	}
}

func TestScheduleNextNoSteps(t *testing.T) {
	e := newEngine()
	config := &model.FollowupConfig{AgentID: 1, Name: "Empty", IsActive: true}
	e.configRepo.Create(config)
	e.seedConversation(1)

	_, err := e.scheduler.ScheduleNext(1, config.ID)
	var noSteps *appErrors.ErrNoSteps
	if !errors.As(err, &noSteps) {
		t.Errorf("expected ErrNoSteps, got %v", err)
	}
}

func TestScheduleNextWaitsForCurrentStep(t *testing.T) {
	e := newEngine()
	config := e.seedLoopConfig()
	e.seedConversation(1)

	first, err := e.scheduler.ScheduleNext(1, config.ID)
	if err != nil || first == nil {
		t.Fatalf("seed scheduling failed: %v", err)
	}

	// Step 1 is still scheduled; step 2 must not be created underneath it.
	// ScheduleNext returns the pending step-1 row instead.
	again, err := e.scheduler.ScheduleNext(1, config.ID)
	if err != nil {
		t.Fatalf("ScheduleNext failed: %v", err)
	}
	if again == nil || again.ID != first.ID {
		t.Errorf("expected pending step 1 execution back, got %+v", again)
	}
	if len(e.execRepo.All()) != 1 {
		t.Errorf("expected 1 execution total, got %d", len(e.execRepo.All()))
	}
}

func TestScheduleNextAfterFailureTargetsSameStep(t *testing.T) {
	e := newEngine()
	config := e.seedLoopConfig()
	e.seedConversation(1)

	first, _ := e.scheduler.ScheduleNext(1, config.ID)
	e.execRepo.ClaimForSend(first.ID)
	e.execRepo.MarkFailed(first.ID, "gateway unreachable")

	retry, err := e.scheduler.ScheduleNext(1, config.ID)
	if err != nil {
		t.Fatalf("ScheduleNext failed: %v", err)
	}
	if retry == nil {
		t.Fatal("expected a fresh execution for the failed step")
	}
	if retry.ID == first.ID {
		t.Error("failed execution must not be retried in place")
	}
	if retry.StepID != first.StepID {
		t.Errorf("expected same step %d, got %d", first.StepID, retry.StepID)
	}
}

func TestClampToBusinessHours(t *testing.T) {
	loc := time.Local
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)

	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"before opening", day.Add(7 * time.Hour), day.Add(9 * time.Hour)},
		{"inside window", day.Add(12 * time.Hour), day.Add(12 * time.Hour)},
		{"after closing", day.Add(20 * time.Hour), day.Add(33 * time.Hour)}, // next day 09:00
	}

	for _, c := range cases {
		got := service.ClampToBusinessHours(c.in, "09:00", "18:00")
		if !got.Equal(c.want) {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}

	// No window configured: untouched.
	at := day.Add(3 * time.Hour)
	if got := service.ClampToBusinessHours(at, "", ""); !got.Equal(at) {
		t.Errorf("expected unclamped time, got %v", got)
	}
}
