package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealdesk-io/dealdesk-engine/pkg/apperrors"
	"github.com/dealdesk-io/dealdesk-engine/pkg/cache"
	"github.com/dealdesk-io/dealdesk-engine/pkg/models"
	"github.com/dealdesk-io/dealdesk-engine/pkg/repositories"
	"github.com/dealdesk-io/dealdesk-engine/pkg/views"
)

// OpportunityInput carries the fields of an opportunity create/update
// request. Stage may be empty, in which case it is derived from the type.
type OpportunityInput struct {
	Name            string
	ClientName      string
	Description     *string
	OpportunityType string
	Stage           string
	EstimatedValue  *float64
}

// OpportunitySummary bundles the unfiltered stage and type tallies shown on
// the dashboard and next to the opportunities table.
type OpportunitySummary struct {
	Total    int                  `json:"total"`
	ByStage  []views.StageSummary `json:"by_stage"`
	ByType   []views.TypeSummary  `json:"by_type"`
}

// OpportunityService provides operations for managing the sales pipeline.
type OpportunityService interface {
	Create(ctx context.Context, in OpportunityInput) (*models.Opportunity, error)
	Update(ctx context.Context, id uuid.UUID, in OpportunityInput) (*models.Opportunity, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Opportunity, error)
	List(ctx context.Context, opts repositories.OpportunityListOptions) ([]*models.Opportunity, error)

	// Summary tallies the entire collection, independent of any list filter.
	Summary(ctx context.Context) (*OpportunitySummary, error)

	// SetDiscoverySession links a discovery session to the opportunity, or
	// clears the link when sessionID is nil.
	SetDiscoverySession(ctx context.Context, id uuid.UUID, sessionID *uuid.UUID) error
}

type opportunityService struct {
	repo   repositories.OpportunityRepository
	cache  *cache.ListCache
	logger *zap.Logger
}

// NewOpportunityService creates a new OpportunityService.
func NewOpportunityService(repo repositories.OpportunityRepository, listCache *cache.ListCache, logger *zap.Logger) OpportunityService {
	return &opportunityService{repo: repo, cache: listCache, logger: logger}
}

func (s *opportunityService) Create(ctx context.Context, in OpportunityInput) (*models.Opportunity, error) {
	if !models.ValidType(in.OpportunityType) {
		return nil, apperrors.ErrInvalidStage
	}

	stage := in.Stage
	if stage == "" {
		stage = models.DefaultStage(in.OpportunityType)
	} else if !models.ValidStage(in.OpportunityType, stage) {
		return nil, apperrors.ErrInvalidStage
	}

	opportunity := &models.Opportunity{
		Name:            in.Name,
		ClientName:      in.ClientName,
		Description:     in.Description,
		OpportunityType: in.OpportunityType,
		Stage:           stage,
		EstimatedValue:  in.EstimatedValue,
	}
	if err := s.repo.Create(ctx, opportunity); err != nil {
		return nil, err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationOpportunityCreate)
	s.logger.Info("Created opportunity",
		zap.String("opportunity_id", opportunity.ID.String()),
		zap.String("stage", opportunity.Stage))
	return opportunity, nil
}

// Update enforces the stage/type pairing. When the type changes without an
// explicit stage that is valid for the new type, the stage resets to the new
// type's first value. An invalid stage without a type change is rejected.
func (s *opportunityService) Update(ctx context.Context, id uuid.UUID, in OpportunityInput) (*models.Opportunity, error) {
	if !models.ValidType(in.OpportunityType) {
		return nil, apperrors.ErrInvalidStage
	}

	opportunity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	typeChanged := in.OpportunityType != opportunity.OpportunityType
	stage := in.Stage
	switch {
	case stage == "" && typeChanged:
		stage = models.DefaultStage(in.OpportunityType)
	case stage == "":
		stage = opportunity.Stage
	case !models.ValidStage(in.OpportunityType, stage):
		if !typeChanged {
			return nil, apperrors.ErrInvalidStage
		}
		stage = models.DefaultStage(in.OpportunityType)
	}

	opportunity.Name = in.Name
	opportunity.ClientName = in.ClientName
	opportunity.Description = in.Description
	opportunity.OpportunityType = in.OpportunityType
	opportunity.Stage = stage
	opportunity.EstimatedValue = in.EstimatedValue

	if err := s.repo.Update(ctx, opportunity); err != nil {
		return nil, err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationOpportunityUpdate)
	return opportunity, nil
}

func (s *opportunityService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationOpportunityDelete)
	s.logger.Info("Deleted opportunity", zap.String("opportunity_id", id.String()))
	return nil
}

func (s *opportunityService) Get(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	return s.repo.GetByID(ctx, id)
}

// List caches each filter/sort parameter combination under its own key, so a
// stale fill for one combination can never serve another.
func (s *opportunityService) List(ctx context.Context, opts repositories.OpportunityListOptions) ([]*models.Opportunity, error) {
	key := cache.Key(cache.CollectionOpportunities,
		"stage="+opts.Stage,
		"type="+opts.OpportunityType,
		"sort="+opts.SortBy,
		"order="+opts.SortOrder)

	var cached []*models.Opportunity
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	opportunities, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, opportunities)
	return opportunities, nil
}

func (s *opportunityService) Summary(ctx context.Context) (*OpportunitySummary, error) {
	key := cache.Key(cache.CollectionDashboard)

	var cached OpportunitySummary
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	byStage, err := s.repo.CountByStage(ctx)
	if err != nil {
		return nil, err
	}
	byType, err := s.repo.CountByType(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, t := range byType {
		total += t.Count
	}

	summary := &OpportunitySummary{Total: total, ByStage: byStage, ByType: byType}
	s.cache.Set(ctx, key, summary)
	return summary, nil
}

func (s *opportunityService) SetDiscoverySession(ctx context.Context, id uuid.UUID, sessionID *uuid.UUID) error {
	if err := s.repo.SetDiscoverySession(ctx, id, sessionID); err != nil {
		return err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationOpportunityLinkSession)
	return nil
}
