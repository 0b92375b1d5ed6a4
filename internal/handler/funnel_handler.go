// internal/handler/funnel_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
	"log"

	"github.com/go-chi/chi/v5"
	"github.com/leadloop/followup-backend/internal/model"
	"github.com/leadloop/followup-backend/internal/service"
)

// FunnelHandler serves the dashboard read API. It only ever reads.
type FunnelHandler struct {
	Classifier *service.ClassifierService
}

func NewFunnelHandler(classifier *service.ClassifierService) *FunnelHandler {
	return &FunnelHandler{
		Classifier: classifier,
	}
}

// parseWindow reads from/to query params, defaulting to the last 30 days.
func parseWindow(r *http.Request) (time.Time, time.Time) {
	from := time.Now().AddDate(0, 0, -30)
	to := time.Now()

	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			from = t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			to = t
		}
	}
	return from, to
}

// ListFunnelHandler returns one row per conversation with its funnel category
func (h *FunnelHandler) ListFunnelHandler(w http.ResponseWriter, r *http.Request) {
	configID, err := strconv.Atoi(r.URL.Query().Get("config_id"))
	if err != nil || configID < 1 {
		http.Error(w, "invalid config_id", http.StatusBadRequest)
		return
	}
	from, to := parseWindow(r)

	entries, err := h.Classifier.ListByCategory(configID, from, to)
	if err != nil {
		log.Println("❌ Error listing funnel:", err)
		http.Error(w, "failed to fetch funnel: "+err.Error(), http.StatusInternalServerError)
		return
	}

	category := model.FunnelCategory(r.URL.Query().Get("category"))
	if category != "" {
		filtered := []model.FunnelEntry{}
		for _, e := range entries {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": entries,
	})
}

// FunnelCountsHandler returns aggregate counts per category
func (h *FunnelHandler) FunnelCountsHandler(w http.ResponseWriter, r *http.Request) {
	configID, err := strconv.Atoi(r.URL.Query().Get("config_id"))
	if err != nil || configID < 1 {
		http.Error(w, "invalid config_id", http.StatusBadRequest)
		return
	}
	from, to := parseWindow(r)

	counts, err := h.Classifier.Counts(configID, from, to)
	if err != nil {
		http.Error(w, "failed to fetch counts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(counts)
}

// ClassifyHandler returns the funnel category of a single conversation
func (h *FunnelHandler) ClassifyHandler(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid conversation id", http.StatusBadRequest)
		return
	}

	category, err := h.Classifier.Classify(id)
	if err != nil {
		http.Error(w, "failed to classify: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"conversation_id": id,
		"category":        category,
		"shown":           category != model.CategoryExcluded,
	})
}
