package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adjutant-ai/adjutant/internal/domain"
	"github.com/adjutant-ai/adjutant/internal/domain/agent"
	"github.com/adjutant-ai/adjutant/internal/domain/owner"
	"github.com/adjutant-ai/adjutant/internal/domain/roster"
	"github.com/adjutant-ai/adjutant/internal/domain/task"
	"github.com/adjutant-ai/adjutant/internal/port/database"
)

const bootstrapTask = "Review your mission and plan initial work."

// RosterService provisions teams, aides, and the agents that serve them.
// Creating an owner always yields a ready-to-run lead: agent, empty
// conversation, and a bootstrap task so the first scheduler tick has
// something to do.
type RosterService struct {
	store    database.Store
	queueSvc *QueueService
}

// NewRosterService creates a new RosterService.
func NewRosterService(store database.Store, queueSvc *QueueService) *RosterService {
	return &RosterService{store: store, queueSvc: queueSvc}
}

// CreateTeam creates a team and its lead agent.
func (s *RosterService) CreateTeam(ctx context.Context, req roster.CreateTeamRequest) (*roster.Team, *agent.Agent, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, fmt.Errorf("create team: %w: %w", err, domain.ErrValidation)
	}

	t, err := s.store.CreateTeam(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	prompt := fmt.Sprintf("You are %s, the lead agent of a team. Your mission: %s\n"+
		"You coordinate the team: delegate to subordinates, track their progress, and brief the user on what matters.", req.Name, req.Mission)
	lead, err := s.provisionLead(ctx, owner.ForTeam(t.ID), req.Name, prompt)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("team created", "team_id", t.ID, "lead_agent_id", lead.ID)
	return t, lead, nil
}

// CreateAide creates an aide and its lead agent.
func (s *RosterService) CreateAide(ctx context.Context, req roster.CreateAideRequest) (*roster.Aide, *agent.Agent, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, fmt.Errorf("create aide: %w: %w", err, domain.ErrValidation)
	}

	a, err := s.store.CreateAide(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	prompt := fmt.Sprintf("You are %s, a personal assistant. Your purpose: %s\n"+
		"Work through queued requests on your own and keep the user informed of anything that needs their attention.", req.Name, req.Purpose)
	lead, err := s.provisionLead(ctx, owner.ForAide(a.ID), req.Name, prompt)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("aide created", "aide_id", a.ID, "lead_agent_id", lead.ID)
	return a, lead, nil
}

// AddSubordinate creates a worker agent under a lead. Subordinates have
// no conversation and no bootstrap task: they run only when delegated to.
func (s *RosterService) AddSubordinate(ctx context.Context, leadID, name, rolePrompt string) (*agent.Agent, error) {
	if name == "" || rolePrompt == "" {
		return nil, fmt.Errorf("add subordinate: name and role_prompt are required: %w", domain.ErrValidation)
	}

	lead, err := s.store.GetAgent(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !lead.IsLead() {
		return nil, fmt.Errorf("add subordinate: agent %s is not a lead: %w", leadID, domain.ErrValidation)
	}

	sub := &agent.Agent{
		Owner:         lead.Owner,
		ParentAgentID: lead.ID,
		Name:          name,
		RolePrompt:    rolePrompt,
	}
	if err := s.store.CreateAgent(ctx, sub); err != nil {
		return nil, err
	}

	slog.Info("subordinate created", "agent_id", sub.ID, "lead_agent_id", lead.ID)
	return sub, nil
}

// ListTeamAgents returns the lead and subordinates serving an owner.
func (s *RosterService) ListTeamAgents(ctx context.Context, ref owner.Ref) ([]agent.Agent, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("list agents: %w: %w", err, domain.ErrValidation)
	}
	return s.store.ListAgentsByOwner(ctx, ref)
}

// GetTeam returns a team by id.
func (s *RosterService) GetTeam(ctx context.Context, id string) (*roster.Team, error) {
	return s.store.GetTeam(ctx, id)
}

// GetAide returns an aide by id.
func (s *RosterService) GetAide(ctx context.Context, id string) (*roster.Aide, error) {
	return s.store.GetAide(ctx, id)
}

// DeleteTeam removes a team. Its agents, tasks, threads, conversations,
// and briefings go with it through the schema's ON DELETE CASCADE.
func (s *RosterService) DeleteTeam(ctx context.Context, id string) error {
	if err := s.store.DeleteTeam(ctx, id); err != nil {
		return err
	}
	slog.Info("team deleted", "team_id", id)
	return nil
}

// DeleteAide removes an aide and, via cascade, everything it owns.
func (s *RosterService) DeleteAide(ctx context.Context, id string) error {
	if err := s.store.DeleteAide(ctx, id); err != nil {
		return err
	}
	slog.Info("aide deleted", "aide_id", id)
	return nil
}

func (s *RosterService) provisionLead(ctx context.Context, ref owner.Ref, name, rolePrompt string) (*agent.Agent, error) {
	lead := &agent.Agent{
		Owner:      ref,
		Name:       name,
		RolePrompt: rolePrompt,
	}
	if err := s.store.CreateAgent(ctx, lead); err != nil {
		return nil, err
	}
	if _, err := s.store.CreateConversation(ctx, lead.ID); err != nil {
		return nil, err
	}

	if _, err := s.queueSvc.Enqueue(ctx, task.EnqueueRequest{
		Owner:        ref,
		AssignedToID: lead.ID,
		AssignedByID: lead.ID,
		Description:  bootstrapTask,
		Source:       task.SourceSystem,
	}); err != nil {
		return nil, err
	}
	return lead, nil
}
