// internal/service/classifier_service.go
package service

import (
    "time"

    "github.com/leadloop/followup-backend/internal/model"
    "github.com/leadloop/followup-backend/internal/repository"
)

// ClassifierService is strictly read-side: it never writes, so it can run on
// every dashboard refresh without touching engine state.
type ClassifierService struct {
    ExecutionRepo    repository.ExecutionRepositoryInterface
    HistoryRepo      repository.HistoryRepositoryInterface
    ConversationRepo repository.ConversationRepositoryInterface
    ConfigRepo       repository.ConfigRepositoryInterface
}

// Classify derives the funnel category from the full history, in fixed
// priority order. A reply always wins regardless of when it arrived relative
// to loop re-entries or no_response events. Empty history is the well-defined
// active state, not an error.
func (s *ClassifierService) Classify(conversationID int) (model.FunnelCategory, error) {
    events, err := s.HistoryRepo.ListByConversation(conversationID)
    if err != nil {
        return "", err
    }

    seen := map[string]bool{}
    for _, ev := range events {
        seen[ev.EventType] = true
    }

    switch {
    case seen[model.EventAgentPaused]:
        return model.CategoryExcluded, nil
    case seen[model.EventUserResponded]:
        return model.CategoryResponded, nil
    case seen[model.EventNoResponse]:
        return model.CategoryLost, nil
    case seen[model.EventInfiniteLoop]:
        return model.CategoryInfiniteLoop, nil
    }

    latest, err := s.ExecutionRepo.LatestByConversation(conversationID)
    if err != nil {
        return "", err
    }
    if latest != nil && latest.IsInfiniteLoop {
        return model.CategoryInfiniteLoop, nil
    }
    return model.CategoryActive, nil
}

// ListByCategory is the dashboard read API: one row per conversation the
// config touched inside the window, paused conversations excluded entirely.
func (s *ClassifierService) ListByCategory(configID int, from, to time.Time) ([]model.FunnelEntry, error) {
    ids, err := s.ExecutionRepo.ConversationsForConfig(configID, from, to)
    if err != nil {
        return nil, err
    }

    entries := []model.FunnelEntry{}
    for _, convID := range ids {
        category, err := s.Classify(convID)
        if err != nil {
            return nil, err
        }
        if category == model.CategoryExcluded {
            continue
        }

        conv, err := s.ConversationRepo.GetByID(convID)
        if err != nil {
            return nil, err
        }
        if conv == nil {
            continue
        }

        exec, stepOrder, err := s.ExecutionRepo.LatestNonCancelled(convID, configID)
        if err != nil {
            return nil, err
        }

        entry := model.FunnelEntry{
            Conversation:    *conv,
            CurrentStep:     stepOrder,
            Category:        category,
            LastInteraction: conv.LastMessageAt,
        }
        if exec != nil {
            entry.LoopIteration = exec.LoopIteration
        }
        entries = append(entries, entry)
    }
    return entries, nil
}

// Counts aggregates ListByCategory into per-category totals.
func (s *ClassifierService) Counts(configID int, from, to time.Time) (map[string]int, error) {
    entries, err := s.ListByCategory(configID, from, to)
    if err != nil {
        return nil, err
    }

    counts := map[string]int{
        string(model.CategoryActive):       0,
        string(model.CategoryResponded):    0,
        string(model.CategoryLost):         0,
        string(model.CategoryInfiniteLoop): 0,
    }
    for _, e := range entries {
        counts[string(e.Category)]++
    }
    counts["total"] = len(entries)
    return counts, nil
}
