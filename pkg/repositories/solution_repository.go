package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dealdesk-io/dealdesk-engine/pkg/apperrors"
	"github.com/dealdesk-io/dealdesk-engine/pkg/database"
	"github.com/dealdesk-io/dealdesk-engine/pkg/models"
)

// SolutionRepository provides data access for solutions.
type SolutionRepository interface {
	Create(ctx context.Context, solution *models.Solution) error
	Update(ctx context.Context, solution *models.Solution) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Solution, error)
	List(ctx context.Context) ([]*models.Solution, error)
}

type solutionRepository struct {
	db *database.DB
}

// NewSolutionRepository creates a new SolutionRepository.
func NewSolutionRepository(db *database.DB) SolutionRepository {
	return &solutionRepository{db: db}
}

var _ SolutionRepository = (*solutionRepository)(nil)

func (r *solutionRepository) Create(ctx context.Context, solution *models.Solution) error {
	now := time.Now()

	query := `
		INSERT INTO solutions (name, description, pain_points, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		solution.Name,
		solution.Description,
		solution.PainPoints,
		solution.IsActive,
		now,
		now,
	).Scan(&solution.ID, &solution.CreatedAt, &solution.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateName
		}
		return fmt.Errorf("failed to create solution: %w", err)
	}

	return nil
}

func (r *solutionRepository) Update(ctx context.Context, solution *models.Solution) error {
	query := `
		UPDATE solutions
		SET name = $2, description = $3, pain_points = $4, is_active = $5, updated_at = $6
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		solution.ID,
		solution.Name,
		solution.Description,
		solution.PainPoints,
		solution.IsActive,
		time.Now(),
	).Scan(&solution.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateName
		}
		return fmt.Errorf("failed to update solution: %w", err)
	}

	return nil
}

func (r *solutionRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.Exec(ctx,
		`UPDATE solutions SET is_active = $2, updated_at = $3 WHERE id = $1`,
		id, active, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set solution active state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *solutionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM solutions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete solution: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *solutionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Solution, error) {
	query := `
		SELECT id, name, description, pain_points, is_active, created_at, updated_at
		FROM solutions
		WHERE id = $1`

	var s models.Solution
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Description, &s.PainPoints, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get solution: %w", err)
	}

	return &s, nil
}

func (r *solutionRepository) List(ctx context.Context) ([]*models.Solution, error) {
	query := `
		SELECT id, name, description, pain_points, is_active, created_at, updated_at
		FROM solutions
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions: %w", err)
	}
	defer rows.Close()

	var solutions []*models.Solution
	for rows.Next() {
		var s models.Solution
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.PainPoints, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan solution: %w", err)
		}
		solutions = append(solutions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read solutions: %w", err)
	}

	return solutions, nil
}
