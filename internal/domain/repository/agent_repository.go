package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type AgentRepository interface {
	Create(ctx context.Context, agent *model.AgentRecord) error
	FindByID(ctx context.Context, id string) (*model.AgentRecord, error)
	List(ctx context.Context) ([]*model.AgentRecord, error)
}

type pgAgentRepository struct {
	db *sql.DB
}

func NewPgAgentRepository(db *sql.DB) AgentRepository {
	return &pgAgentRepository{db: db}
}

func (r *pgAgentRepository) Create(ctx context.Context, a *model.AgentRecord) error {
	query := `INSERT INTO agents (id, name, provider, model_name, temperature, max_tokens, max_iterations, system_prompt, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.Name, a.Provider, a.ModelName, a.Temperature, a.MaxTokens, a.MaxIterations, a.SystemPrompt, a.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("agent with this name already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgAgentRepository.Create: %w", err)
	}
	return nil
}

func (r *pgAgentRepository) FindByID(ctx context.Context, id string) (*model.AgentRecord, error) {
	query := `SELECT id, name, provider, model_name, temperature, max_tokens, max_iterations, system_prompt, is_active, created_at
	          FROM agents WHERE id = $1`
	a := &model.AgentRecord{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Name, &a.Provider, &a.ModelName, &a.Temperature, &a.MaxTokens, &a.MaxIterations, &a.SystemPrompt, &a.IsActive, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgAgentRepository.FindByID: %w", err)
	}
	return a, nil
}

func (r *pgAgentRepository) List(ctx context.Context) ([]*model.AgentRecord, error) {
	query := `SELECT id, name, provider, model_name, temperature, max_tokens, max_iterations, system_prompt, is_active, created_at
	          FROM agents ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgAgentRepository.List: %w", err)
	}
	defer rows.Close()

	var agents []*model.AgentRecord
	for rows.Next() {
		a := &model.AgentRecord{}
		if err := rows.Scan(&a.ID, &a.Name, &a.Provider, &a.ModelName, &a.Temperature, &a.MaxTokens, &a.MaxIterations, &a.SystemPrompt, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgAgentRepository.List: scan: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}
