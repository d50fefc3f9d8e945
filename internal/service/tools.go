package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adjutant-ai/adjutant/internal/domain"
	"github.com/adjutant-ai/adjutant/internal/domain/agent"
	"github.com/adjutant-ai/adjutant/internal/domain/briefing"
	"github.com/adjutant-ai/adjutant/internal/domain/conversation"
	"github.com/adjutant-ai/adjutant/internal/domain/knowledge"
	"github.com/adjutant-ai/adjutant/internal/domain/task"
	"github.com/adjutant-ai/adjutant/internal/port/database"
	"github.com/adjutant-ai/adjutant/internal/port/llm"
)

// toolName enumerates the closed tool catalog. Dispatch switches over
// this set so the compiler covers every variant; there is no runtime
// string-keyed registry.
type toolName string

const (
	// lead tools
	toolDelegateTask    toolName = "delegate_task"
	toolTeamStatus      toolName = "team_status"
	toolPublishBriefing toolName = "publish_briefing"
	toolSelfAssign      toolName = "self_assign"
	// subordinate tools
	toolReportToLead     toolName = "report_to_lead"
	toolRequestUserInput toolName = "request_user_input"
	// shared
	toolRecordKnowledge toolName = "record_knowledge"
)

// ToolService executes the background tool catalog. Lead and subordinate
// agents see different tool sets.
type ToolService struct {
	store     database.Store
	queueSvc  *QueueService
	knowledge *KnowledgeService
	briefings *BriefingService
}

// NewToolService creates a new ToolService.
func NewToolService(store database.Store, queueSvc *QueueService, knowledgeSvc *KnowledgeService, briefingSvc *BriefingService) *ToolService {
	return &ToolService{store: store, queueSvc: queueSvc, knowledge: knowledgeSvc, briefings: briefingSvc}
}

// Defs returns the tool definitions offered to the model for an agent.
func (s *ToolService) Defs(isLead bool) []llm.ToolDef {
	shared := []llm.ToolDef{
		{
			Name:        string(toolRecordKnowledge),
			Description: "Record a durable learning (fact, technique, pattern, or lesson) to reuse in future sessions.",
			Parameters: objectSchema(map[string]any{
				"type":       map[string]any{"type": "string", "enum": []string{"fact", "technique", "pattern", "lesson"}},
				"content":    map[string]any{"type": "string"},
				"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			}, "type", "content"),
		},
	}

	if isLead {
		return append([]llm.ToolDef{
			{
				Name:        string(toolDelegateTask),
				Description: "Delegate a task to one of your subordinate agents.",
				Parameters: objectSchema(map[string]any{
					"agent_id":    map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"priority":    map[string]any{"type": "integer"},
				}, "agent_id", "description"),
			},
			{
				Name:        string(toolTeamStatus),
				Description: "Get the queue status of yourself and all your subordinates.",
				Parameters:  objectSchema(map[string]any{}),
			},
			{
				Name:        string(toolPublishBriefing),
				Description: "Publish a briefing to the user's inbox right now. Use sparingly, only for genuinely noteworthy findings.",
				Parameters: objectSchema(map[string]any{
					"title":   map[string]any{"type": "string"},
					"summary": map[string]any{"type": "string"},
					"message": map[string]any{"type": "string"},
				}, "title", "summary", "message"),
			},
			{
				Name:        string(toolSelfAssign),
				Description: "Queue a follow-up task for yourself to handle later in this or a future session.",
				Parameters: objectSchema(map[string]any{
					"description": map[string]any{"type": "string"},
				}, "description"),
			},
		}, shared...)
	}

	return append([]llm.ToolDef{
		{
			Name:        string(toolReportToLead),
			Description: "Report the outcome of your current task to your lead. Ends the task.",
			Parameters: objectSchema(map[string]any{
				"status":  map[string]any{"type": "string", "enum": []string{"completed", "failed"}},
				"summary": map[string]any{"type": "string"},
			}, "status", "summary"),
		},
		{
			Name:        string(toolRequestUserInput),
			Description: "Ask the user a question via your lead's conversation when you are blocked.",
			Parameters: objectSchema(map[string]any{
				"question": map[string]any{"type": "string"},
			}, "question"),
		},
	}, shared...)
}

// Dispatch executes one tool call for the agent and returns the text fed
// back to the model as the tool result. Validation failures come back as
// errors; the session loop reports them to the model instead of aborting.
func (s *ToolService) Dispatch(ctx context.Context, a *agent.Agent, threadID string, cur *task.Task, call llm.ToolCall) (string, error) {
	switch toolName(call.Name) {
	case toolDelegateTask:
		if !a.IsLead() {
			return "", fmt.Errorf("delegate_task: only leads may delegate: %w", domain.ErrValidation)
		}
		return s.delegateTask(ctx, a, call.Arguments)
	case toolTeamStatus:
		if !a.IsLead() {
			return "", fmt.Errorf("team_status: only leads may query team status: %w", domain.ErrValidation)
		}
		return s.teamStatus(ctx, a)
	case toolPublishBriefing:
		if !a.IsLead() {
			return "", fmt.Errorf("publish_briefing: only leads may brief the user: %w", domain.ErrValidation)
		}
		return s.publishBriefing(ctx, a, threadID, call.Arguments)
	case toolSelfAssign:
		if !a.IsLead() {
			return "", fmt.Errorf("self_assign: only leads may self-assign: %w", domain.ErrValidation)
		}
		return s.selfAssign(ctx, a, call.Arguments)
	case toolReportToLead:
		if a.IsLead() {
			return "", fmt.Errorf("report_to_lead: leads have no lead to report to: %w", domain.ErrValidation)
		}
		return s.reportToLead(ctx, a, cur, call.Arguments)
	case toolRequestUserInput:
		if a.IsLead() {
			return "", fmt.Errorf("request_user_input: leads talk to the user directly: %w", domain.ErrValidation)
		}
		return s.requestUserInput(ctx, a, call.Arguments)
	case toolRecordKnowledge:
		return s.recordKnowledge(ctx, a, threadID, call.Arguments)
	}
	return "", fmt.Errorf("unknown tool %q: %w", call.Name, domain.ErrValidation)
}

func (s *ToolService) delegateTask(ctx context.Context, a *agent.Agent, args json.RawMessage) (string, error) {
	var in struct {
		AgentID     string `json:"agent_id"`
		Description string `json:"description"`
		Priority    int    `json:"priority"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("delegate_task: decode arguments: %w", domain.ErrValidation)
	}

	target, err := s.store.GetAgent(ctx, in.AgentID)
	if err != nil {
		return "", fmt.Errorf("delegate_task: %w", err)
	}
	// Ownership check: a lead may only delegate to its own children.
	if target.ParentAgentID != a.ID || target.Owner != a.Owner {
		return "", fmt.Errorf("delegate_task: agent %s is not a subordinate of %s: %w", in.AgentID, a.ID, domain.ErrValidation)
	}

	t, err := s.queueSvc.Enqueue(ctx, task.EnqueueRequest{
		Owner:        a.Owner,
		AssignedToID: target.ID,
		AssignedByID: a.ID,
		Description:  in.Description,
		Source:       task.SourceDelegation,
		Priority:     in.Priority,
	})
	if err != nil {
		return "", fmt.Errorf("delegate_task: %w", err)
	}
	return fmt.Sprintf("Delegated task %s to %s.", t.ID, target.Name), nil
}

func (s *ToolService) teamStatus(ctx context.Context, a *agent.Agent) (string, error) {
	var b strings.Builder

	own, err := s.queueSvc.Status(ctx, a.ID)
	if err != nil {
		return "", fmt.Errorf("team_status: %w", err)
	}
	fmt.Fprintf(&b, "%s (you): %d pending, %d in progress\n", a.Name, own.PendingCount, own.InProgressCount)

	children, err := s.store.ListChildAgents(ctx, a.ID)
	if err != nil {
		return "", fmt.Errorf("team_status: %w", err)
	}
	for _, c := range children {
		qs, err := s.queueSvc.Status(ctx, c.ID)
		if err != nil {
			return "", fmt.Errorf("team_status: %w", err)
		}
		fmt.Fprintf(&b, "%s [%s]: %d pending, %d in progress\n", c.Name, c.Status, qs.PendingCount, qs.InProgressCount)
	}
	return strings.TrimSpace(b.String()), nil
}

func (s *ToolService) publishBriefing(ctx context.Context, a *agent.Agent, threadID string, args json.RawMessage) (string, error) {
	var in struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("publish_briefing: decode arguments: %w", domain.ErrValidation)
	}

	decision := briefing.Decision{ShouldBrief: true, Title: in.Title, Summary: in.Summary, Message: in.Message}
	if err := decision.Validate(); err != nil {
		return "", fmt.Errorf("publish_briefing: %w: %w", err, domain.ErrValidation)
	}

	b, err := s.briefings.Publish(ctx, a, threadID, decision)
	if err != nil {
		return "", fmt.Errorf("publish_briefing: %w", err)
	}
	return fmt.Sprintf("Briefing %q published to the user's inbox (id %s).", b.Title, b.ID), nil
}

func (s *ToolService) selfAssign(ctx context.Context, a *agent.Agent, args json.RawMessage) (string, error) {
	var in struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("self_assign: decode arguments: %w", domain.ErrValidation)
	}

	t, err := s.queueSvc.Enqueue(ctx, task.EnqueueRequest{
		Owner:        a.Owner,
		AssignedToID: a.ID,
		AssignedByID: a.ID,
		Description:  in.Description,
		Source:       task.SourceSelf,
	})
	if err != nil {
		return "", fmt.Errorf("self_assign: %w", err)
	}
	return fmt.Sprintf("Queued follow-up task %s.", t.ID), nil
}

// reportToLead finalizes the subordinate's current task per the reported
// status and queues the report on the lead so it surfaces in the lead's
// next session.
func (s *ToolService) reportToLead(ctx context.Context, a *agent.Agent, cur *task.Task, args json.RawMessage) (string, error) {
	var in struct {
		Status  string `json:"status"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("report_to_lead: decode arguments: %w", domain.ErrValidation)
	}
	if cur == nil {
		return "", fmt.Errorf("report_to_lead: no task is in progress: %w", domain.ErrValidation)
	}

	switch in.Status {
	case "completed":
		if err := s.queueSvc.Complete(ctx, cur, in.Summary); err != nil {
			return "", fmt.Errorf("report_to_lead: %w", err)
		}
	case "failed":
		if err := s.queueSvc.Fail(ctx, cur, in.Summary); err != nil {
			return "", fmt.Errorf("report_to_lead: %w", err)
		}
	default:
		return "", fmt.Errorf("report_to_lead: status must be completed or failed: %w", domain.ErrValidation)
	}

	_, err := s.queueSvc.Enqueue(ctx, task.EnqueueRequest{
		Owner:        a.Owner,
		AssignedToID: a.ParentAgentID,
		AssignedByID: a.ID,
		Description:  fmt.Sprintf("Report from %s (%s): %s", a.Name, in.Status, in.Summary),
		Source:       task.SourceSystem,
	})
	if err != nil {
		return "", fmt.Errorf("report_to_lead: %w", err)
	}
	return "Report delivered to your lead.", nil
}

// requestUserInput surfaces a subordinate's question through the lead's
// foreground conversation, since subordinates never talk to users.
func (s *ToolService) requestUserInput(ctx context.Context, a *agent.Agent, args json.RawMessage) (string, error) {
	var in struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("request_user_input: decode arguments: %w", domain.ErrValidation)
	}

	conv, err := s.store.GetConversationByAgent(ctx, a.ParentAgentID)
	if err != nil {
		return "", fmt.Errorf("request_user_input: %w", err)
	}
	msg := &conversation.Message{
		ConversationID: conv.ID,
		Role:           "assistant",
		Content:        fmt.Sprintf("%s needs input: %s", a.Name, in.Question),
	}
	if err := s.store.AppendConversationMessage(ctx, msg); err != nil {
		return "", fmt.Errorf("request_user_input: %w", err)
	}
	return "Question forwarded to the user.", nil
}

func (s *ToolService) recordKnowledge(ctx context.Context, a *agent.Agent, threadID string, args json.RawMessage) (string, error) {
	var in struct {
		Type       string   `json:"type"`
		Content    string   `json:"content"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("record_knowledge: decode arguments: %w", domain.ErrValidation)
	}

	item, err := s.knowledge.Record(ctx, knowledge.CreateRequest{
		AgentID:        a.ID,
		Type:           knowledge.Type(in.Type),
		Content:        in.Content,
		Confidence:     in.Confidence,
		SourceThreadID: threadID,
	})
	if err != nil {
		return "", fmt.Errorf("record_knowledge: %w", err)
	}
	return fmt.Sprintf("Recorded %s knowledge item %s.", item.Type, item.ID), nil
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
