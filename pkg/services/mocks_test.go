package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/dealdesk-io/dealdesk-engine/pkg/apperrors"
	"github.com/dealdesk-io/dealdesk-engine/pkg/models"
	"github.com/dealdesk-io/dealdesk-engine/pkg/repositories"
	"github.com/dealdesk-io/dealdesk-engine/pkg/views"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockSolutionRepo implements repositories.SolutionRepository in memory.
type mockSolutionRepo struct {
	solutions map[uuid.UUID]*models.Solution
	createErr error
}

func newMockSolutionRepo() *mockSolutionRepo {
	return &mockSolutionRepo{solutions: make(map[uuid.UUID]*models.Solution)}
}

func (m *mockSolutionRepo) Create(ctx context.Context, solution *models.Solution) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.solutions {
		if existing.Name == solution.Name {
			return apperrors.ErrDuplicateName
		}
	}
	solution.ID = uuid.New()
	m.solutions[solution.ID] = solution
	return nil
}

func (m *mockSolutionRepo) Update(ctx context.Context, solution *models.Solution) error {
	if _, ok := m.solutions[solution.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.solutions[solution.ID] = solution
	return nil
}

func (m *mockSolutionRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	s, ok := m.solutions[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	s.IsActive = active
	return nil
}

func (m *mockSolutionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.solutions[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.solutions, id)
	return nil
}

func (m *mockSolutionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Solution, error) {
	s, ok := m.solutions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return s, nil
}

func (m *mockSolutionRepo) List(ctx context.Context) ([]*models.Solution, error) {
	out := make([]*models.Solution, 0, len(m.solutions))
	for _, s := range m.solutions {
		out = append(out, s)
	}
	return out, nil
}

// mockOpportunityRepo implements repositories.OpportunityRepository in memory.
type mockOpportunityRepo struct {
	opportunities map[uuid.UUID]*models.Opportunity
}

func newMockOpportunityRepo() *mockOpportunityRepo {
	return &mockOpportunityRepo{opportunities: make(map[uuid.UUID]*models.Opportunity)}
}

func (m *mockOpportunityRepo) Create(ctx context.Context, o *models.Opportunity) error {
	o.ID = uuid.New()
	m.opportunities[o.ID] = o
	return nil
}

func (m *mockOpportunityRepo) Update(ctx context.Context, o *models.Opportunity) error {
	if _, ok := m.opportunities[o.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.opportunities[o.ID] = o
	return nil
}

func (m *mockOpportunityRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.opportunities[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.opportunities, id)
	return nil
}

func (m *mockOpportunityRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	o, ok := m.opportunities[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (m *mockOpportunityRepo) List(ctx context.Context, opts repositories.OpportunityListOptions) ([]*models.Opportunity, error) {
	all := make([]*models.Opportunity, 0, len(m.opportunities))
	for _, o := range m.opportunities {
		all = append(all, o)
	}
	filtered := views.FilterOpportunities(all, views.OpportunityFilter{
		Stage:           opts.Stage,
		OpportunityType: opts.OpportunityType,
	})
	return views.SortOpportunities(filtered, opts.SortBy, opts.SortOrder), nil
}

func (m *mockOpportunityRepo) SetDiscoverySession(ctx context.Context, id uuid.UUID, sessionID *uuid.UUID) error {
	o, ok := m.opportunities[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	o.DiscoverySessionID = sessionID
	return nil
}

func (m *mockOpportunityRepo) CountByStage(ctx context.Context) ([]views.StageSummary, error) {
	all := make([]*models.Opportunity, 0, len(m.opportunities))
	for _, o := range m.opportunities {
		all = append(all, o)
	}
	return views.SummarizeStages(all), nil
}

func (m *mockOpportunityRepo) CountByType(ctx context.Context) ([]views.TypeSummary, error) {
	all := make([]*models.Opportunity, 0, len(m.opportunities))
	for _, o := range m.opportunities {
		all = append(all, o)
	}
	return views.SummarizeTypes(all), nil
}

// mockSessionRepo implements repositories.SessionRepository in memory.
type mockSessionRepo struct {
	sessions map[uuid.UUID]*models.DiscoverySession
	links    map[uuid.UUID]map[uuid.UUID]bool
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{
		sessions: make(map[uuid.UUID]*models.DiscoverySession),
		links:    make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (m *mockSessionRepo) Create(ctx context.Context, s *models.DiscoverySession) error {
	s.ID = uuid.New()
	m.sessions[s.ID] = s
	return nil
}

func (m *mockSessionRepo) Update(ctx context.Context, s *models.DiscoverySession) error {
	if _, ok := m.sessions[s.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.sessions[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.DiscoverySession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *mockSessionRepo) List(ctx context.Context) ([]*models.DiscoverySession, error) {
	out := make([]*models.DiscoverySession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockSessionRepo) LinkSolution(ctx context.Context, sessionID, solutionID uuid.UUID) (bool, error) {
	if m.links[sessionID] == nil {
		m.links[sessionID] = make(map[uuid.UUID]bool)
	}
	if m.links[sessionID][solutionID] {
		return false, nil
	}
	m.links[sessionID][solutionID] = true
	return true, nil
}

func (m *mockSessionRepo) UnlinkSolution(ctx context.Context, sessionID, solutionID uuid.UUID) error {
	delete(m.links[sessionID], solutionID)
	return nil
}

func (m *mockSessionRepo) LinkedSolutions(ctx context.Context, sessionID uuid.UUID) ([]models.LinkedSolution, error) {
	var out []models.LinkedSolution
	for solutionID := range m.links[sessionID] {
		out = append(out, models.LinkedSolution{ID: solutionID, Name: "Solution"})
	}
	return out, nil
}

// mockTemplateRepo implements repositories.TemplateRepository in memory.
type mockTemplateRepo struct {
	templates  map[uuid.UUID]*models.DiscoveryTemplate
	references map[uuid.UUID]int
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{
		templates:  make(map[uuid.UUID]*models.DiscoveryTemplate),
		references: make(map[uuid.UUID]int),
	}
}

func (m *mockTemplateRepo) Create(ctx context.Context, t *models.DiscoveryTemplate) error {
	for _, existing := range m.templates {
		if existing.Name == t.Name {
			return apperrors.ErrDuplicateName
		}
	}
	t.ID = uuid.New()
	m.templates[t.ID] = t
	return nil
}

func (m *mockTemplateRepo) Update(ctx context.Context, t *models.DiscoveryTemplate) error {
	if _, ok := m.templates[t.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.templates[t.ID] = t
	return nil
}

func (m *mockTemplateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.templates[id]; !ok {
		return apperrors.ErrNotFound
	}
	if m.references[id] > 0 {
		return apperrors.ErrTemplateInUse
	}
	delete(m.templates, id)
	return nil
}

func (m *mockTemplateRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.DiscoveryTemplate, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return t, nil
}

func (m *mockTemplateRepo) List(ctx context.Context) ([]*models.DiscoveryTemplate, error) {
	out := make([]*models.DiscoveryTemplate, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTemplateRepo) CountReferencingSessions(ctx context.Context, id uuid.UUID) (int, error) {
	return m.references[id], nil
}
