package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adjutant-ai/adjutant/internal/domain"
	"github.com/adjutant-ai/adjutant/internal/domain/agent"
	"github.com/adjutant-ai/adjutant/internal/domain/owner"
	"github.com/adjutant-ai/adjutant/internal/domain/roster"
	"github.com/adjutant-ai/adjutant/internal/domain/task"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Teams and aides ---

func (s *Store) CreateTeam(ctx context.Context, req roster.CreateTeamRequest) (*roster.Team, error) {
	var t roster.Team
	err := s.pool.QueryRow(ctx,
		`INSERT INTO teams (user_id, name, mission)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, name, mission, status, created_at`,
		req.UserID, req.Name, req.Mission,
	).Scan(&t.ID, &t.UserID, &t.Name, &t.Mission, &t.Status, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	return &t, nil
}

func (s *Store) GetTeam(ctx context.Context, id string) (*roster.Team, error) {
	var t roster.Team
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, mission, status, created_at
		 FROM teams WHERE id = $1`, id,
	).Scan(&t.ID, &t.UserID, &t.Name, &t.Mission, &t.Status, &t.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get team %s", id)
	}
	return &t, nil
}

func (s *Store) CreateAide(ctx context.Context, req roster.CreateAideRequest) (*roster.Aide, error) {
	var a roster.Aide
	err := s.pool.QueryRow(ctx,
		`INSERT INTO aides (user_id, name, purpose)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, name, purpose, status, created_at`,
		req.UserID, req.Name, req.Purpose,
	).Scan(&a.ID, &a.UserID, &a.Name, &a.Purpose, &a.Status, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create aide: %w", err)
	}
	return &a, nil
}

func (s *Store) GetAide(ctx context.Context, id string) (*roster.Aide, error) {
	var a roster.Aide
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, purpose, status, created_at
		 FROM aides WHERE id = $1`, id,
	).Scan(&a.ID, &a.UserID, &a.Name, &a.Purpose, &a.Status, &a.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get aide %s", id)
	}
	return &a, nil
}

func (s *Store) DeleteTeam(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete team %s", id)
}

func (s *Store) DeleteAide(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM aides WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete aide %s", id)
}

// --- Agents ---

const agentColumns = `id, team_id, aide_id, parent_agent_id, name, role_prompt, status,
	 next_run_at, backoff_next_run_at, backoff_attempts, created_at, updated_at`

func scanAgent(row scannable) (agent.Agent, error) {
	var (
		a              agent.Agent
		teamID, aideID *string
		parentID       *string
	)
	err := row.Scan(&a.ID, &teamID, &aideID, &parentID, &a.Name, &a.RolePrompt, &a.Status,
		&a.NextRunAt, &a.BackoffNextRun, &a.BackoffAttempts, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return agent.Agent{}, err
	}
	a.ParentAgentID = strOrEmpty(parentID)
	a.Owner, err = owner.FromColumns(teamID, aideID)
	if err != nil {
		return agent.Agent{}, fmt.Errorf("agent %s: %w", a.ID, err)
	}
	return a, nil
}

func (s *Store) CreateAgent(ctx context.Context, a *agent.Agent) error {
	teamID, aideID := a.Owner.Columns()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO agents (team_id, aide_id, parent_agent_id, name, role_prompt, next_run_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, status, backoff_attempts, created_at, updated_at`,
		teamID, aideID, nullIfEmpty(a.ParentAgentID), a.Name, a.RolePrompt, a.NextRunAt,
	).Scan(&a.ID, &a.Status, &a.BackoffAttempts, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	return nil
}

func (s *Store) GetAgent(ctx context.Context, id string) (*agent.Agent, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = $1`, id)

	a, err := scanAgent(row)
	if err != nil {
		return nil, notFoundWrap(err, "get agent %s", id)
	}
	return &a, nil
}

func (s *Store) ListAgentsByOwner(ctx context.Context, ref owner.Ref) ([]agent.Agent, error) {
	teamID, aideID := ref.Columns()
	rows, err := s.pool.Query(ctx,
		`SELECT `+agentColumns+` FROM agents
		 WHERE team_id IS NOT DISTINCT FROM $1 AND aide_id IS NOT DISTINCT FROM $2
		 ORDER BY created_at`, teamID, aideID)
	if err != nil {
		return nil, fmt.Errorf("list agents for %s: %w", ref, err)
	}
	defer rows.Close()
	return collectAgents(rows)
}

func (s *Store) ListChildAgents(ctx context.Context, parentID string) ([]agent.Agent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE parent_agent_id = $1 ORDER BY created_at`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child agents of %s: %w", parentID, err)
	}
	defer rows.Close()
	return collectAgents(rows)
}

func collectAgents(rows pgx.Rows) ([]agent.Agent, error) {
	var agents []agent.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (s *Store) UpdateAgentStatus(ctx context.Context, id string, status agent.Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE agents SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	return execExpectOne(tag, err, "update agent %s status", id)
}

func (s *Store) TryMarkAgentRunning(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE agents SET status = 'running', updated_at = now()
		 WHERE id = $1 AND status = 'idle'`, id)
	if err != nil {
		return false, fmt.Errorf("mark agent %s running: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ResetRunningAgents(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE agents SET status = 'idle', updated_at = now() WHERE status = 'running'`)
	if err != nil {
		return 0, fmt.Errorf("reset running agents: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) UpdateAgentNextRun(ctx context.Context, id string, nextRunAt *time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE agents SET next_run_at = $2, updated_at = now() WHERE id = $1`, id, nextRunAt)
	return execExpectOne(tag, err, "update agent %s next run", id)
}

func (s *Store) UpdateAgentBackoff(ctx context.Context, id string, attempts int, nextRunAt *time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE agents SET backoff_attempts = $2, backoff_next_run_at = $3, updated_at = now()
		 WHERE id = $1`, id, attempts, nextRunAt)
	return execExpectOne(tag, err, "update agent %s backoff", id)
}

// ListDueAgents returns idle agents of an active team or aide that either
// have pending queued work or, for leads, have reached their proactive
// next_run_at. Agents suppressed by failure backoff are excluded.
func (s *Store) ListDueAgents(ctx context.Context, now time.Time) ([]agent.Agent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.team_id, a.aide_id, a.parent_agent_id, a.name, a.role_prompt, a.status,
		        a.next_run_at, a.backoff_next_run_at, a.backoff_attempts, a.created_at, a.updated_at
		 FROM agents a
		 LEFT JOIN teams t ON a.team_id = t.id
		 LEFT JOIN aides d ON a.aide_id = d.id
		 WHERE a.status = 'idle'
		   AND COALESCE(t.status, d.status) = 'active'
		   AND (a.backoff_next_run_at IS NULL OR a.backoff_next_run_at <= $1)
		   AND (
		     EXISTS (SELECT 1 FROM tasks k WHERE k.assigned_to_id = a.id AND k.status = 'pending')
		     OR (a.parent_agent_id IS NULL AND a.next_run_at IS NOT NULL AND a.next_run_at <= $1)
		   )
		 ORDER BY a.created_at`, now)
	if err != nil {
		return nil, fmt.Errorf("list due agents: %w", err)
	}
	defer rows.Close()
	return collectAgents(rows)
}

// --- Tasks ---

const taskColumns = `id, team_id, aide_id, assigned_to_id, assigned_by_id, description, result,
	 status, source, priority, created_at, started_at, completed_at`

func scanTask(row scannable) (task.Task, error) {
	var (
		t              task.Task
		teamID, aideID *string
		result         *string
	)
	err := row.Scan(&t.ID, &teamID, &aideID, &t.AssignedToID, &t.AssignedByID, &t.Description,
		&result, &t.Status, &t.Source, &t.Priority, &t.CreatedAt, &t.StartedAt, &t.CompletedAt)
	if err != nil {
		return task.Task{}, err
	}
	t.Result = strOrEmpty(result)
	t.Owner, err = owner.FromColumns(teamID, aideID)
	if err != nil {
		return task.Task{}, fmt.Errorf("task %s: %w", t.ID, err)
	}
	return t, nil
}

func (s *Store) CreateTask(ctx context.Context, req task.EnqueueRequest) (*task.Task, error) {
	teamID, aideID := req.Owner.Columns()
	row := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (team_id, aide_id, assigned_to_id, assigned_by_id, description, source, priority)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+taskColumns,
		teamID, aideID, req.AssignedToID, req.AssignedByID, req.Description, req.Source, req.Priority)

	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &t, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*task.Task, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)

	t, err := scanTask(row)
	if err != nil {
		return nil, notFoundWrap(err, "get task %s", id)
	}
	return &t, nil
}

func (s *Store) ListTasksByAgent(ctx context.Context, agentID string) ([]task.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE assigned_to_id = $1 ORDER BY created_at DESC`, agentID)
	if err != nil {
		return nil, fmt.Errorf("list tasks for agent %s: %w", agentID, err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ClaimNextTask atomically claims the highest-priority oldest pending task
// for the agent. FOR UPDATE SKIP LOCKED makes concurrent claimers pick
// disjoint rows instead of blocking.
func (s *Store) ClaimNextTask(ctx context.Context, agentID string) (*task.Task, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE tasks SET status = 'in_progress', started_at = now()
		 WHERE id = (
		   SELECT id FROM tasks
		   WHERE assigned_to_id = $1 AND status = 'pending'
		   ORDER BY priority DESC, created_at ASC
		   LIMIT 1
		   FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+taskColumns, agentID)

	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim next task for agent %s: %w", agentID, err)
	}
	return &t, nil
}

func (s *Store) CompleteTask(ctx context.Context, id, result string) error {
	return s.finishTask(ctx, id, task.StatusCompleted, result)
}

func (s *Store) FailTask(ctx context.Context, id, errMsg string) error {
	return s.finishTask(ctx, id, task.StatusFailed, errMsg)
}

// finishTask transitions in_progress to a terminal status. A zero row
// count means the task is missing or not in_progress; the follow-up read
// distinguishes ErrNotFound from ErrConflict.
func (s *Store) finishTask(ctx context.Context, id string, status task.Status, result string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = $2, result = $3, completed_at = now()
		 WHERE id = $1 AND status = 'in_progress'`, id, status, result)
	if err != nil {
		return fmt.Errorf("finish task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		var got task.Status
		err := s.pool.QueryRow(ctx, `SELECT status FROM tasks WHERE id = $1`, id).Scan(&got)
		if err != nil {
			return notFoundWrap(err, "finish task %s", id)
		}
		return fmt.Errorf("finish task %s: status is %s, not in_progress: %w", id, got, domain.ErrConflict)
	}
	return nil
}

func (s *Store) QueueStatus(ctx context.Context, agentID string) (*task.QueueStatus, error) {
	var qs task.QueueStatus
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE status = 'pending'),
		        COUNT(*) FILTER (WHERE status = 'in_progress')
		 FROM tasks WHERE assigned_to_id = $1`, agentID,
	).Scan(&qs.PendingCount, &qs.InProgressCount)
	if err != nil {
		return nil, fmt.Errorf("queue status for agent %s: %w", agentID, err)
	}
	qs.HasPendingWork = qs.PendingCount > 0
	return &qs, nil
}

// RequeueStaleTasks recovers tasks stranded in_progress by a crashed
// session. Tasks whose agent is still marked running are left alone.
func (s *Store) RequeueStaleTasks(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`UPDATE tasks SET status = 'pending', started_at = NULL
		 WHERE status = 'in_progress' AND started_at < $1
		   AND NOT EXISTS (
		     SELECT 1 FROM agents a WHERE a.id = tasks.assigned_to_id AND a.status = 'running'
		   )
		 RETURNING id`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("requeue stale tasks: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
