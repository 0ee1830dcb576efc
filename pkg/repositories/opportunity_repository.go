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
	"github.com/dealdesk-io/dealdesk-engine/pkg/views"
)

// OpportunityListOptions carries the filter and sort selections for a list
// query. Empty or sentinel filter values disable the predicate.
type OpportunityListOptions struct {
	Stage           string
	OpportunityType string
	SortBy          string
	SortOrder       string
}

// OpportunityRepository provides data access for opportunities.
type OpportunityRepository interface {
	Create(ctx context.Context, opportunity *models.Opportunity) error
	Update(ctx context.Context, opportunity *models.Opportunity) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error)
	List(ctx context.Context, opts OpportunityListOptions) ([]*models.Opportunity, error)
	SetDiscoverySession(ctx context.Context, id uuid.UUID, sessionID *uuid.UUID) error
	CountByStage(ctx context.Context) ([]views.StageSummary, error)
	CountByType(ctx context.Context) ([]views.TypeSummary, error)
}

type opportunityRepository struct {
	db *database.DB
}

// NewOpportunityRepository creates a new OpportunityRepository.
func NewOpportunityRepository(db *database.DB) OpportunityRepository {
	return &opportunityRepository{db: db}
}

var _ OpportunityRepository = (*opportunityRepository)(nil)

const opportunityColumns = `id, name, client_name, description, opportunity_type, stage,
	estimated_value, discovery_session_id, created_at, updated_at`

// sortColumns whitelists sortable fields. Anything else falls back to name.
var sortColumns = map[string]string{
	"name":            "name",
	"client_name":     "client_name",
	"stage":           "stage",
	"estimated_value": "estimated_value",
	"created_at":      "created_at",
	"updated_at":      "updated_at",
}

func (r *opportunityRepository) Create(ctx context.Context, opportunity *models.Opportunity) error {
	now := time.Now()

	query := `
		INSERT INTO opportunities (name, client_name, description, opportunity_type, stage,
			estimated_value, discovery_session_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		opportunity.Name,
		opportunity.ClientName,
		opportunity.Description,
		opportunity.OpportunityType,
		opportunity.Stage,
		opportunity.EstimatedValue,
		opportunity.DiscoverySessionID,
		now,
		now,
	).Scan(&opportunity.ID, &opportunity.CreatedAt, &opportunity.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create opportunity: %w", err)
	}

	return nil
}

func (r *opportunityRepository) Update(ctx context.Context, opportunity *models.Opportunity) error {
	query := `
		UPDATE opportunities
		SET name = $2, client_name = $3, description = $4, opportunity_type = $5,
		    stage = $6, estimated_value = $7, updated_at = $8
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		opportunity.ID,
		opportunity.Name,
		opportunity.ClientName,
		opportunity.Description,
		opportunity.OpportunityType,
		opportunity.Stage,
		opportunity.EstimatedValue,
		time.Now(),
	).Scan(&opportunity.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update opportunity: %w", err)
	}

	return nil
}

func (r *opportunityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM opportunities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete opportunity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *opportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE id = $1`

	o, err := scanOpportunity(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}
	return o, nil
}

// List applies the active exact-match filters with AND and orders by the
// requested column. Null estimated values sort as the lowest value in both
// directions (NULLS FIRST ascending, NULLS LAST descending).
func (r *opportunityRepository) List(ctx context.Context, opts OpportunityListOptions) ([]*models.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities`

	var conditions []string
	var args []any
	if opts.Stage != "" && opts.Stage != views.AllStages {
		args = append(args, opts.Stage)
		conditions = append(conditions, fmt.Sprintf("stage = $%d", len(args)))
	}
	if opts.OpportunityType != "" && opts.OpportunityType != views.AllTypes {
		args = append(args, opts.OpportunityType)
		conditions = append(conditions, fmt.Sprintf("opportunity_type = $%d", len(args)))
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	column, ok := sortColumns[opts.SortBy]
	if !ok {
		column = "name"
	}
	direction := "ASC"
	nulls := "NULLS FIRST"
	if opts.SortOrder == views.SortDesc {
		direction = "DESC"
		nulls = "NULLS LAST"
	}
	query += fmt.Sprintf(" ORDER BY %s %s %s", column, direction, nulls)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	defer rows.Close()

	var opportunities []*models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opportunities = append(opportunities, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read opportunities: %w", err)
	}

	return opportunities, nil
}

// SetDiscoverySession links (or, with nil, unlinks) the opportunity's
// discovery session.
func (r *opportunityRepository) SetDiscoverySession(ctx context.Context, id uuid.UUID, sessionID *uuid.UUID) error {
	result, err := r.db.Exec(ctx,
		`UPDATE opportunities SET discovery_session_id = $2, updated_at = $3 WHERE id = $1`,
		id, sessionID, time.Now())
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to set discovery session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// CountByStage tallies all opportunities per stage, unfiltered. Summary
// widgets read these tallies regardless of the active list filters.
func (r *opportunityRepository) CountByStage(ctx context.Context) ([]views.StageSummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT stage, COUNT(*) FROM opportunities GROUP BY stage ORDER BY stage`)
	if err != nil {
		return nil, fmt.Errorf("failed to count opportunities by stage: %w", err)
	}
	defer rows.Close()

	var summaries []views.StageSummary
	for rows.Next() {
		var s views.StageSummary
		if err := rows.Scan(&s.Stage, &s.Count); err != nil {
			return nil, fmt.Errorf("failed to scan stage summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stage summaries: %w", err)
	}

	return summaries, nil
}

// CountByType tallies all opportunities per type, unfiltered.
func (r *opportunityRepository) CountByType(ctx context.Context) ([]views.TypeSummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT opportunity_type, COUNT(*) FROM opportunities GROUP BY opportunity_type ORDER BY opportunity_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count opportunities by type: %w", err)
	}
	defer rows.Close()

	var summaries []views.TypeSummary
	for rows.Next() {
		var s views.TypeSummary
		if err := rows.Scan(&s.OpportunityType, &s.Count); err != nil {
			return nil, fmt.Errorf("failed to scan type summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read type summaries: %w", err)
	}

	return summaries, nil
}

func scanOpportunity(row pgx.Row) (*models.Opportunity, error) {
	var o models.Opportunity
	err := row.Scan(
		&o.ID, &o.Name, &o.ClientName, &o.Description, &o.OpportunityType,
		&o.Stage, &o.EstimatedValue, &o.DiscoverySessionID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
