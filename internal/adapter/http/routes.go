package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Teams
		r.Post("/teams", h.CreateTeam)
		r.Get("/teams/{id}", h.GetTeam)
		r.Delete("/teams/{id}", h.DeleteTeam)
		r.Get("/teams/{id}/agents", h.ListTeamAgents)

		// Aides
		r.Post("/aides", h.CreateAide)
		r.Get("/aides/{id}", h.GetAide)
		r.Delete("/aides/{id}", h.DeleteAide)

		// Agents
		r.Get("/agents/{id}", h.GetAgent)
		r.Post("/agents/{id}/subordinates", h.AddSubordinate)

		// Foreground conversation
		r.Post("/agents/{id}/messages", h.SendMessage)
		r.Get("/agents/{id}/messages", h.ListConversationMessages)

		// Task queue
		r.Get("/agents/{id}/tasks", h.ListAgentTasks)
		r.Get("/agents/{id}/queue", h.AgentQueueStatus)

		// Background context
		r.Get("/agents/{id}/knowledge", h.ListAgentKnowledge)
		r.Delete("/agents/{id}/knowledge/{itemId}", h.DeleteAgentKnowledge)
		r.Get("/agents/{id}/memories", h.ListAgentMemories)

		// User inbox
		r.Get("/users/{id}/inbox", h.ListInbox)
		r.Post("/inbox/{id}/read", h.MarkInboxRead)

		// LLM gateway
		r.Get("/llm/health", h.LLMHealth)
	})
}
