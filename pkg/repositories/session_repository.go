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

// SessionRepository provides data access for discovery sessions and their
// solution links.
type SessionRepository interface {
	Create(ctx context.Context, session *models.DiscoverySession) error
	Update(ctx context.Context, session *models.DiscoverySession) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.DiscoverySession, error)
	List(ctx context.Context) ([]*models.DiscoverySession, error)

	// LinkSolution inserts the (session, solution) pair. Returns false with
	// no error when the pair already exists.
	LinkSolution(ctx context.Context, sessionID, solutionID uuid.UUID) (bool, error)

	// UnlinkSolution deletes the pair. Deleting an absent pair is a no-op.
	UnlinkSolution(ctx context.Context, sessionID, solutionID uuid.UUID) error

	// LinkedSolutions returns the solutions linked to a session, by name.
	LinkedSolutions(ctx context.Context, sessionID uuid.UUID) ([]models.LinkedSolution, error)
}

type sessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *database.DB) SessionRepository {
	return &sessionRepository{db: db}
}

var _ SessionRepository = (*sessionRepository)(nil)

const sessionColumns = `id, client_name, opportunity_name, session_date, notes, template_id, created_at, updated_at`

func (r *sessionRepository) Create(ctx context.Context, session *models.DiscoverySession) error {
	now := time.Now()

	query := `
		INSERT INTO discovery_sessions (client_name, opportunity_name, session_date, notes, template_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		session.ClientName,
		session.OpportunityName,
		session.SessionDate,
		session.Notes,
		session.TemplateID,
		now,
		now,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to create discovery session: %w", err)
	}

	return nil
}

func (r *sessionRepository) Update(ctx context.Context, session *models.DiscoverySession) error {
	query := `
		UPDATE discovery_sessions
		SET client_name = $2, opportunity_name = $3, session_date = $4, notes = $5,
		    template_id = $6, updated_at = $7
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		session.ID,
		session.ClientName,
		session.OpportunityName,
		session.SessionDate,
		session.Notes,
		session.TemplateID,
		time.Now(),
	).Scan(&session.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		if isForeignKeyViolation(err) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update discovery session: %w", err)
	}

	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM discovery_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete discovery session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DiscoverySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM discovery_sessions WHERE id = $1`

	var s models.DiscoverySession
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.ClientName, &s.OpportunityName, &s.SessionDate, &s.Notes,
		&s.TemplateID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get discovery session: %w", err)
	}

	return &s, nil
}

func (r *sessionRepository) List(ctx context.Context) ([]*models.DiscoverySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM discovery_sessions ORDER BY session_date DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list discovery sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.DiscoverySession
	for rows.Next() {
		var s models.DiscoverySession
		if err := rows.Scan(&s.ID, &s.ClientName, &s.OpportunityName, &s.SessionDate, &s.Notes,
			&s.TemplateID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan discovery session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read discovery sessions: %w", err)
	}

	return sessions, nil
}

// LinkSolution inserts the link pair idempotently. ON CONFLICT DO NOTHING
// makes a repeat insert affect zero rows, which reports as already-linked
// rather than an error.
func (r *sessionRepository) LinkSolution(ctx context.Context, sessionID, solutionID uuid.UUID) (bool, error) {
	result, err := r.db.Exec(ctx, `
		INSERT INTO discovery_session_solutions (discovery_session_id, solution_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (discovery_session_id, solution_id) DO NOTHING`,
		sessionID, solutionID, time.Now())
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, apperrors.ErrNotFound
		}
		return false, fmt.Errorf("failed to link solution: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// UnlinkSolution deletes the link pair. Zero rows affected means the pair
// was already absent; that is a silent no-op, not an error.
func (r *sessionRepository) UnlinkSolution(ctx context.Context, sessionID, solutionID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM discovery_session_solutions
		WHERE discovery_session_id = $1 AND solution_id = $2`,
		sessionID, solutionID)
	if err != nil {
		return fmt.Errorf("failed to unlink solution: %w", err)
	}
	return nil
}

func (r *sessionRepository) LinkedSolutions(ctx context.Context, sessionID uuid.UUID) ([]models.LinkedSolution, error) {
	query := `
		SELECT s.id, s.name
		FROM discovery_session_solutions l
		JOIN solutions s ON s.id = l.solution_id
		WHERE l.discovery_session_id = $1
		ORDER BY s.name`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked solutions: %w", err)
	}
	defer rows.Close()

	var linked []models.LinkedSolution
	for rows.Next() {
		var l models.LinkedSolution
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, fmt.Errorf("failed to scan linked solution: %w", err)
		}
		linked = append(linked, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read linked solutions: %w", err)
	}

	return linked, nil
}
