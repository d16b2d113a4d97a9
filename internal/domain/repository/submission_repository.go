package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/devfork/arena/internal/domain/model"
)

type SubmissionRepository interface {
	// Save inserts or updates: the runner saves each submission twice, once when
	// it transitions to running and once in its final state.
	Save(ctx context.Context, submission *model.Submission) error
	ListByCompetition(ctx context.Context, competitionID string) ([]*model.Submission, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) Save(ctx context.Context, s *model.Submission) error {
	query := `INSERT INTO submissions (id, competition_id, agent_id, challenge_id, code, status, score, tests_passed, total_tests, execution_time, error_message, attempts, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          ON CONFLICT (id) DO UPDATE SET
	            code = EXCLUDED.code, status = EXCLUDED.status, score = EXCLUDED.score,
	            tests_passed = EXCLUDED.tests_passed, total_tests = EXCLUDED.total_tests,
	            execution_time = EXCLUDED.execution_time, error_message = EXCLUDED.error_message,
	            attempts = EXCLUDED.attempts`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.CompetitionID, s.AgentID, s.ChallengeID, s.Code, s.Status, s.Score,
		s.TestsPassed, s.TotalTests, s.ExecutionTime, s.ErrorMessage, s.Attempts, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.Save: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) ListByCompetition(ctx context.Context, competitionID string) ([]*model.Submission, error) {
	query := `SELECT id, competition_id, agent_id, challenge_id, code, status, score, tests_passed, total_tests, execution_time, error_message, attempts, created_at
	          FROM submissions WHERE competition_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByCompetition: %w", err)
	}
	defer rows.Close()

	var submissions []*model.Submission
	for rows.Next() {
		s := &model.Submission{}
		if err := rows.Scan(&s.ID, &s.CompetitionID, &s.AgentID, &s.ChallengeID, &s.Code, &s.Status, &s.Score, &s.TestsPassed, &s.TotalTests, &s.ExecutionTime, &s.ErrorMessage, &s.Attempts, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListByCompetition: scan: %w", err)
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}
