package http

import (
	"net/http"

	"github.com/adjutant-ai/adjutant/internal/adapter/litellm"
	"github.com/adjutant-ai/adjutant/internal/domain/briefing"
	"github.com/adjutant-ai/adjutant/internal/domain/conversation"
	"github.com/adjutant-ai/adjutant/internal/domain/knowledge"
	"github.com/adjutant-ai/adjutant/internal/domain/memory"
	"github.com/adjutant-ai/adjutant/internal/domain/owner"
	"github.com/adjutant-ai/adjutant/internal/domain/roster"
	"github.com/adjutant-ai/adjutant/internal/domain/task"
	"github.com/adjutant-ai/adjutant/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Roster    *service.RosterService
	Agents    *service.AgentService
	Queue     *service.QueueService
	Knowledge *service.KnowledgeService
	Memories  *service.MemoryService
	Briefings *service.BriefingService
	LiteLLM   *litellm.Client
}

// --- Teams and aides ---

type createOwnerResponse[T any] struct {
	Owner     T      `json:"owner"`
	LeadAgent any    `json:"lead_agent"`
	LeadID    string `json:"lead_agent_id"`
}

func (h *Handlers) CreateTeam(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[roster.CreateTeamRequest](w, r)
	if !ok {
		return
	}
	t, lead, err := h.Roster.CreateTeam(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "team creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, createOwnerResponse[*roster.Team]{Owner: t, LeadAgent: lead, LeadID: lead.ID})
}

func (h *Handlers) GetTeam(w http.ResponseWriter, r *http.Request) {
	t, err := h.Roster.GetTeam(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "team not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) ListTeamAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Roster.ListTeamAgents(r.Context(), owner.ForTeam(urlParam(r, "id")))
	if err != nil {
		writeDomainError(w, err, "team not found")
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (h *Handlers) CreateAide(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[roster.CreateAideRequest](w, r)
	if !ok {
		return
	}
	a, lead, err := h.Roster.CreateAide(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "aide creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, createOwnerResponse[*roster.Aide]{Owner: a, LeadAgent: lead, LeadID: lead.ID})
}

func (h *Handlers) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := h.Roster.DeleteTeam(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "team not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetAide(w http.ResponseWriter, r *http.Request) {
	a, err := h.Roster.GetAide(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "aide not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handlers) DeleteAide(w http.ResponseWriter, r *http.Request) {
	if err := h.Roster.DeleteAide(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "aide not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Agents ---

func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	a, err := h.Agents.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type addSubordinateRequest struct {
	Name       string `json:"name"`
	RolePrompt string `json:"role_prompt"`
}

func (h *Handlers) AddSubordinate(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[addSubordinateRequest](w, r)
	if !ok {
		return
	}
	sub, err := h.Roster.AddSubordinate(r.Context(), urlParam(r, "id"), req.Name, req.RolePrompt)
	if err != nil {
		writeDomainError(w, err, "lead agent not found")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// --- Conversation ---

type sendMessageRequest struct {
	Content string `json:"content"`
}

type sendMessageResponse struct {
	Ack string `json:"ack"`
}

// SendMessage routes a user message to a lead agent's foreground
// conversation. The response carries the agent's acknowledgment; the
// substantive answer arrives later via briefings and the inbox.
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[sendMessageRequest](w, r)
	if !ok {
		return
	}
	ack, err := h.Agents.HandleUserMessage(r.Context(), urlParam(r, "id"), req.Content)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, sendMessageResponse{Ack: ack})
}

func (h *Handlers) ListConversationMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Agents.ConversationHistory(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "conversation not found")
		return
	}
	if msgs == nil {
		msgs = []conversation.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// --- Tasks ---

func (h *Handlers) ListAgentTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Queue.ListByAgent(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handlers) AgentQueueStatus(w http.ResponseWriter, r *http.Request) {
	qs, err := h.Queue.Status(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

// --- Knowledge and memories ---

func (h *Handlers) ListAgentKnowledge(w http.ResponseWriter, r *http.Request) {
	items, err := h.Knowledge.ListByAgent(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	if items == nil {
		items = []knowledge.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) DeleteAgentKnowledge(w http.ResponseWriter, r *http.Request) {
	if err := h.Knowledge.Delete(r.Context(), urlParam(r, "itemId"), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "knowledge item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListAgentMemories(w http.ResponseWriter, r *http.Request) {
	mems, err := h.Memories.ListByAgent(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	if mems == nil {
		mems = []memory.Memory{}
	}
	writeJSON(w, http.StatusOK, mems)
}

// --- Inbox ---

func (h *Handlers) ListInbox(w http.ResponseWriter, r *http.Request) {
	items, err := h.Briefings.ListInbox(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	if items == nil {
		items = []briefing.InboxItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) MarkInboxRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Briefings.MarkRead(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "inbox item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- LLM ---

func (h *Handlers) LLMHealth(w http.ResponseWriter, r *http.Request) {
	ok, err := h.LiteLLM.Health(r.Context())
	if err != nil || !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"healthy": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"healthy": true})
}
