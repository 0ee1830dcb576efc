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

// TemplateRepository provides data access for discovery templates.
// Sections are stored as a JSONB array; insertion order is preserved.
type TemplateRepository interface {
	Create(ctx context.Context, template *models.DiscoveryTemplate) error
	Update(ctx context.Context, template *models.DiscoveryTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.DiscoveryTemplate, error)
	List(ctx context.Context) ([]*models.DiscoveryTemplate, error)
	CountReferencingSessions(ctx context.Context, id uuid.UUID) (int, error)
}

type templateRepository struct {
	db *database.DB
}

// NewTemplateRepository creates a new TemplateRepository.
func NewTemplateRepository(db *database.DB) TemplateRepository {
	return &templateRepository{db: db}
}

var _ TemplateRepository = (*templateRepository)(nil)

func (r *templateRepository) Create(ctx context.Context, template *models.DiscoveryTemplate) error {
	now := time.Now()

	query := `
		INSERT INTO discovery_templates (name, sections, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		template.Name,
		template.Sections,
		now,
		now,
	).Scan(&template.ID, &template.CreatedAt, &template.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateName
		}
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

func (r *templateRepository) Update(ctx context.Context, template *models.DiscoveryTemplate) error {
	query := `
		UPDATE discovery_templates
		SET name = $2, sections = $3, updated_at = $4
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		template.ID,
		template.Name,
		template.Sections,
		time.Now(),
	).Scan(&template.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateName
		}
		return fmt.Errorf("failed to update template: %w", err)
	}

	return nil
}

// Delete removes a template. The sessions FK is ON DELETE RESTRICT, so a
// reference created between the service-level check and this delete still
// fails here rather than orphaning sessions.
func (r *templateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM discovery_templates WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrTemplateInUse
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *templateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DiscoveryTemplate, error) {
	query := `
		SELECT id, name, sections, created_at, updated_at
		FROM discovery_templates
		WHERE id = $1`

	var t models.DiscoveryTemplate
	err := r.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Sections, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return &t, nil
}

func (r *templateRepository) List(ctx context.Context) ([]*models.DiscoveryTemplate, error) {
	query := `
		SELECT id, name, sections, created_at, updated_at
		FROM discovery_templates
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.DiscoveryTemplate
	for rows.Next() {
		var t models.DiscoveryTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Sections, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}

	return templates, nil
}

// CountReferencingSessions returns how many discovery sessions reference the
// template. A non-zero count blocks deletion.
func (r *templateRepository) CountReferencingSessions(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM discovery_sessions WHERE template_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count referencing sessions: %w", err)
	}
	return count, nil
}
