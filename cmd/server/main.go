// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/go-chi/chi/v5"

	"github.com/leadloop/followup-backend/internal/controller"
	"github.com/leadloop/followup-backend/internal/db"
	"github.com/leadloop/followup-backend/internal/handler"
	"github.com/leadloop/followup-backend/internal/queue"
	"github.com/leadloop/followup-backend/internal/repository"
	"github.com/leadloop/followup-backend/internal/sender"
	"github.com/leadloop/followup-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()
	q := queue.NewInMemoryQueue()

	configRepo := &repository.ConfigRepository{DB: db.DB}
	executionRepo := &repository.ExecutionRepository{DB: db.DB}
	historyRepo := &repository.HistoryRepository{DB: db.DB}
	conversationRepo := &repository.ConversationRepository{DB: db.DB}

	schedulerService := &service.SchedulerService{
		ConfigRepo:    configRepo,
		ExecutionRepo: executionRepo,
	}

	loopController := &service.LoopController{
		ConfigRepo:       configRepo,
		ConversationRepo: conversationRepo,
		HistoryRepo:      historyRepo,
		Scheduler:        schedulerService,
	}

	executorService := &service.ExecutorService{
		ExecutionRepo:    executionRepo,
		ConfigRepo:       configRepo,
		ConversationRepo: conversationRepo,
		HistoryRepo:      historyRepo,
		Sender:           sender.NewGatewaySenderFromEnv(),
		Scheduler:        schedulerService,
		Loop:             loopController,
	}

	queue.StartExecutionSubscriber(q, executorService)

	configService := &service.ConfigService{
		ConfigRepo:       configRepo,
		ExecutionRepo:    executionRepo,
		ConversationRepo: conversationRepo,
	}

	conversationService := &service.ConversationService{
		ConversationRepo: conversationRepo,
		ExecutionRepo:    executionRepo,
		HistoryRepo:      historyRepo,
	}

	historyService := &service.HistoryService{
		HistoryRepo:      historyRepo,
		ExecutionRepo:    executionRepo,
		ConversationRepo: conversationRepo,
	}

	classifierService := &service.ClassifierService{
		ExecutionRepo:    executionRepo,
		HistoryRepo:      historyRepo,
		ConversationRepo: conversationRepo,
		ConfigRepo:       configRepo,
	}

	configController := &controller.ConfigController{
		ConfigService: configService,
	}

	engineController := &controller.EngineController{
		Scheduler:           schedulerService,
		ConversationService: conversationService,
		HistoryService:      historyService,
		Queue:               q,
	}

	funnelHandler := handler.NewFunnelHandler(classifierService)

	r := chi.NewRouter()

	// Config routes
	r.Post("/configs", configController.CreateConfig)
	r.Get("/configs", configController.ListConfigs)
	r.Get("/configs/{id}", configController.GetConfig)
	r.Put("/configs/{id}", configController.UpdateConfig)
	r.Delete("/configs/{id}", configController.DeleteConfig)
	r.Post("/configs/{id}/steps", configController.AddStep)
	r.Delete("/steps/{stepID}", configController.RemoveStep)
	r.Post("/configs/{id}/steps/{order}/preview", configController.PreviewStep)

	// Engine routes
	r.Post("/conversations/{id}/schedule", engineController.ScheduleConversation)
	r.Post("/conversations/{id}/pause", engineController.PauseConversation)
	r.Post("/conversations/{id}/resume", engineController.ResumeConversation)
	r.Post("/conversations/{id}/inbound", engineController.InboundMessage)

	// Read API for dashboards
	r.Get("/funnel", funnelHandler.ListFunnelHandler)
	r.Get("/funnel/counts", funnelHandler.FunnelCountsHandler)
	r.Get("/conversations/{id}/classification", funnelHandler.ClassifyHandler)

	log.Println("🚀 Server running on :8080")
	log.Fatal(http.ListenAndServe(":8080", r))
}
