package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *model.Challenge) error
	FindByID(ctx context.Context, id string) (*model.Challenge, error)
	FindBySlug(ctx context.Context, slug string) (*model.Challenge, error)
	List(ctx context.Context, limit, offset int, difficulty model.ChallengeDifficulty) ([]*model.Challenge, int, error)
}

type pgChallengeRepository struct {
	db *sql.DB
}

func NewPgChallengeRepository(db *sql.DB) ChallengeRepository {
	return &pgChallengeRepository{db: db}
}

// Test cases and tags are stored as JSONB columns: challenges are immutable
// after creation, so there is nothing to gain from join tables here.
func (r *pgChallengeRepository) Create(ctx context.Context, c *model.Challenge) error {
	testCases, err := json.Marshal(c.TestCases)
	if err != nil {
		return fmt.Errorf("pgChallengeRepository.Create: marshal test cases: %w", err)
	}
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return fmt.Errorf("pgChallengeRepository.Create: marshal tags: %w", err)
	}

	query := `INSERT INTO challenges (id, title, slug, description, difficulty, test_cases, constraints, time_limit, memory_limit, tags)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.db.ExecContext(ctx, query, c.ID, c.Title, c.Slug, c.Description, c.Difficulty, testCases, c.Constraints, c.TimeLimit, c.MemoryLimit, tags)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("challenge with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgChallengeRepository.Create: %w", err)
	}
	return nil
}

func (r *pgChallengeRepository) FindByID(ctx context.Context, id string) (*model.Challenge, error) {
	return r.findBy(ctx, "id", id)
}

func (r *pgChallengeRepository) FindBySlug(ctx context.Context, slug string) (*model.Challenge, error) {
	return r.findBy(ctx, "slug", slug)
}

func (r *pgChallengeRepository) findBy(ctx context.Context, column, value string) (*model.Challenge, error) {
	query := `SELECT id, title, slug, description, difficulty, test_cases, constraints, time_limit, memory_limit, tags, created_at
	          FROM challenges WHERE ` + column + ` = $1`
	row := r.db.QueryRowContext(ctx, query, value)

	c := &model.Challenge{}
	var testCases, tags []byte
	err := row.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.Difficulty, &testCases, &c.Constraints, &c.TimeLimit, &c.MemoryLimit, &tags, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgChallengeRepository.findBy %s: %w", column, err)
	}
	if err := json.Unmarshal(testCases, &c.TestCases); err != nil {
		return nil, fmt.Errorf("pgChallengeRepository.findBy: unmarshal test cases: %w", err)
	}
	if err := json.Unmarshal(tags, &c.Tags); err != nil {
		return nil, fmt.Errorf("pgChallengeRepository.findBy: unmarshal tags: %w", err)
	}
	return c, nil
}

func (r *pgChallengeRepository) List(ctx context.Context, limit, offset int, difficulty model.ChallengeDifficulty) ([]*model.Challenge, int, error) {
	where := ""
	args := []interface{}{}
	if difficulty != "" {
		where = " WHERE difficulty = $1"
		args = append(args, difficulty)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM challenges"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgChallengeRepository.List: count: %w", err)
	}

	query := fmt.Sprintf(`SELECT id, title, slug, description, difficulty, test_cases, constraints, time_limit, memory_limit, tags, created_at
	          FROM challenges%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgChallengeRepository.List: %w", err)
	}
	defer rows.Close()

	var challenges []*model.Challenge
	for rows.Next() {
		c := &model.Challenge{}
		var testCases, tags []byte
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.Difficulty, &testCases, &c.Constraints, &c.TimeLimit, &c.MemoryLimit, &tags, &c.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("pgChallengeRepository.List: scan: %w", err)
		}
		if err := json.Unmarshal(testCases, &c.TestCases); err != nil {
			return nil, 0, fmt.Errorf("pgChallengeRepository.List: unmarshal test cases: %w", err)
		}
		if err := json.Unmarshal(tags, &c.Tags); err != nil {
			return nil, 0, fmt.Errorf("pgChallengeRepository.List: unmarshal tags: %w", err)
		}
		challenges = append(challenges, c)
	}
	return challenges, total, rows.Err()
}
