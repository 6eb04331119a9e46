package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clearstack/agentbox/internal/api"
	"github.com/clearstack/agentbox/internal/api/handlers"
	"github.com/clearstack/agentbox/internal/api/middleware"
)

type RouterConfig struct {
	AgentHandler     *handlers.AgentHandler
	ChatHandler      *handlers.ChatHandler
	KnowledgeHandler *handlers.KnowledgeHandler
	MaxBodyBytes     int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = 5 * 1024 * 1024
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/agents", func(r chi.Router) {
		r.Post("/", cfg.AgentHandler.Create)
		r.Get("/", cfg.AgentHandler.List)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", cfg.AgentHandler.Get)
			r.Patch("/", cfg.AgentHandler.Update)
			r.Delete("/", cfg.AgentHandler.Delete)
			r.Get("/status", cfg.AgentHandler.Status)
			r.Get("/conversations", cfg.AgentHandler.ListConversations)

			r.Post("/chat", cfg.ChatHandler.Chat)

			r.Route("/knowledge", func(r chi.Router) {
				r.Post("/", cfg.KnowledgeHandler.Upload)
				r.Get("/", cfg.KnowledgeHandler.Status)
				r.Delete("/", cfg.KnowledgeHandler.Reset)
			})
		})
	})

	return r
}
