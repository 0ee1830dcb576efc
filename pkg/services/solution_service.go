// Package services contains the business rules of dealdesk-engine, layered
// between the HTTP handlers and the repositories.
package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealdesk-io/dealdesk-engine/pkg/cache"
	"github.com/dealdesk-io/dealdesk-engine/pkg/models"
	"github.com/dealdesk-io/dealdesk-engine/pkg/repositories"
	"github.com/dealdesk-io/dealdesk-engine/pkg/views"
)

// SolutionInput carries the fields of a solution create/update request.
type SolutionInput struct {
	Name        string
	Description *string
	PainPoints  *string
}

// SolutionService provides operations for managing solutions.
type SolutionService interface {
	Create(ctx context.Context, in SolutionInput) (*models.Solution, error)
	Update(ctx context.Context, id uuid.UUID, in SolutionInput) (*models.Solution, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Solution, error)

	// List returns all solutions, filtered by picker search when query is
	// non-empty.
	List(ctx context.Context, query string) ([]*models.Solution, error)
}

type solutionService struct {
	repo   repositories.SolutionRepository
	cache  *cache.ListCache
	logger *zap.Logger
}

// NewSolutionService creates a new SolutionService.
func NewSolutionService(repo repositories.SolutionRepository, listCache *cache.ListCache, logger *zap.Logger) SolutionService {
	return &solutionService{repo: repo, cache: listCache, logger: logger}
}

func (s *solutionService) Create(ctx context.Context, in SolutionInput) (*models.Solution, error) {
	solution := &models.Solution{
		Name:        in.Name,
		Description: in.Description,
		PainPoints:  in.PainPoints,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, solution); err != nil {
		return nil, err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationSolutionCreate)
	s.logger.Info("Created solution", zap.String("solution_id", solution.ID.String()))
	return solution, nil
}

func (s *solutionService) Update(ctx context.Context, id uuid.UUID, in SolutionInput) (*models.Solution, error) {
	solution, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	solution.Name = in.Name
	solution.Description = in.Description
	solution.PainPoints = in.PainPoints
	if err := s.repo.Update(ctx, solution); err != nil {
		return nil, err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationSolutionUpdate)
	return solution, nil
}

func (s *solutionService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationSolutionArchive)
	s.logger.Info("Toggled solution active state",
		zap.String("solution_id", id.String()),
		zap.Bool("active", active))
	return nil
}

func (s *solutionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationSolutionDelete)
	s.logger.Info("Deleted solution", zap.String("solution_id", id.String()))
	return nil
}

func (s *solutionService) Get(ctx context.Context, id uuid.UUID) (*models.Solution, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *solutionService) List(ctx context.Context, query string) ([]*models.Solution, error) {
	key := cache.Key(cache.CollectionSolutions, "q="+query)

	var cached []*models.Solution
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	solutions, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	solutions = views.SearchSolutions(solutions, query)

	s.cache.Set(ctx, key, solutions)
	return solutions, nil
}
