package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/domain/model"
)

type CompetitionRepository interface {
	Create(ctx context.Context, competition *model.Competition) error
	Update(ctx context.Context, competition *model.Competition) error
	FindByID(ctx context.Context, id string) (*model.Competition, error)
	CountByStatus(ctx context.Context) (map[model.CompetitionStatus]int, error)
}

type pgCompetitionRepository struct {
	db *sql.DB
}

func NewPgCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &pgCompetitionRepository{db: db}
}

func (r *pgCompetitionRepository) Create(ctx context.Context, c *model.Competition) error {
	agentIDs, err := json.Marshal(c.AgentIDs)
	if err != nil {
		return fmt.Errorf("pgCompetitionRepository.Create: marshal agent ids: %w", err)
	}
	query := `INSERT INTO competitions (id, challenge_id, agent_ids, status, timeout_seconds, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.db.ExecContext(ctx, query, c.ID, c.ChallengeID, agentIDs, c.Status, c.TimeoutSeconds, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgCompetitionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCompetitionRepository) Update(ctx context.Context, c *model.Competition) error {
	query := `UPDATE competitions SET
	            status = $1, winner_agent_id = $2, error_message = $3,
	            started_at = $4, completed_at = $5
	          WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query, c.Status, c.WinnerAgentID, c.ErrorMessage, c.StartedAt, c.CompletedAt, c.ID)
	if err != nil {
		return fmt.Errorf("pgCompetitionRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCompetitionRepository) FindByID(ctx context.Context, id string) (*model.Competition, error) {
	query := `SELECT id, challenge_id, agent_ids, status, winner_agent_id, error_message, timeout_seconds, created_at, started_at, completed_at
	          FROM competitions WHERE id = $1`
	c := &model.Competition{}
	var agentIDs []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.ChallengeID, &agentIDs, &c.Status, &c.WinnerAgentID, &c.ErrorMessage, &c.TimeoutSeconds, &c.CreatedAt, &c.StartedAt, &c.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCompetitionRepository.FindByID: %w", err)
	}
	if err := json.Unmarshal(agentIDs, &c.AgentIDs); err != nil {
		return nil, fmt.Errorf("pgCompetitionRepository.FindByID: unmarshal agent ids: %w", err)
	}
	return c, nil
}

func (r *pgCompetitionRepository) CountByStatus(ctx context.Context) (map[model.CompetitionStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM competitions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("pgCompetitionRepository.CountByStatus: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.CompetitionStatus]int)
	for rows.Next() {
		var status model.CompetitionStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("pgCompetitionRepository.CountByStatus: scan: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
