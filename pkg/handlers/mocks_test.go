package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dealdesk-io/dealdesk-engine/pkg/auth"
	"github.com/dealdesk-io/dealdesk-engine/pkg/models"
	"github.com/dealdesk-io/dealdesk-engine/pkg/repositories"
	"github.com/dealdesk-io/dealdesk-engine/pkg/services"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockSolutionService implements services.SolutionService for handler tests.
type mockSolutionService struct {
	solutions []*models.Solution
	solution  *models.Solution
	err       error

	lastQuery  string
	lastActive *bool
	deleted    []uuid.UUID
}

func (m *mockSolutionService) Create(ctx context.Context, in services.SolutionInput) (*models.Solution, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Solution{ID: uuid.New(), Name: in.Name, Description: in.Description, PainPoints: in.PainPoints, IsActive: true}, nil
}

func (m *mockSolutionService) Update(ctx context.Context, id uuid.UUID, in services.SolutionInput) (*models.Solution, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Solution{ID: id, Name: in.Name, Description: in.Description, PainPoints: in.PainPoints, IsActive: true}, nil
}

func (m *mockSolutionService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	m.lastActive = &active
	return m.err
}

func (m *mockSolutionService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockSolutionService) Get(ctx context.Context, id uuid.UUID) (*models.Solution, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.solution, nil
}

func (m *mockSolutionService) List(ctx context.Context, query string) ([]*models.Solution, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.solutions, nil
}

// mockOpportunityService implements services.OpportunityService for handler
// tests.
type mockOpportunityService struct {
	opportunities []*models.Opportunity
	opportunity   *models.Opportunity
	summary       *services.OpportunitySummary
	err           error

	lastOpts      repositories.OpportunityListOptions
	lastSessionID *uuid.UUID
	sessionSet    bool
}

func (m *mockOpportunityService) Create(ctx context.Context, in services.OpportunityInput) (*models.Opportunity, error) {
	if m.err != nil {
		return nil, m.err
	}
	stage := in.Stage
	if stage == "" {
		stage = models.DefaultStage(in.OpportunityType)
	}
	return &models.Opportunity{
		ID:              uuid.New(),
		Name:            in.Name,
		ClientName:      in.ClientName,
		Description:     in.Description,
		OpportunityType: in.OpportunityType,
		Stage:           stage,
		EstimatedValue:  in.EstimatedValue,
	}, nil
}

func (m *mockOpportunityService) Update(ctx context.Context, id uuid.UUID, in services.OpportunityInput) (*models.Opportunity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Opportunity{ID: id, Name: in.Name, ClientName: in.ClientName, OpportunityType: in.OpportunityType, Stage: in.Stage, EstimatedValue: in.EstimatedValue}, nil
}

func (m *mockOpportunityService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.err
}

func (m *mockOpportunityService) Get(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.opportunity, nil
}

func (m *mockOpportunityService) List(ctx context.Context, opts repositories.OpportunityListOptions) ([]*models.Opportunity, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.opportunities, nil
}

func (m *mockOpportunityService) Summary(ctx context.Context) (*services.OpportunitySummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func (m *mockOpportunityService) SetDiscoverySession(ctx context.Context, id uuid.UUID, sessionID *uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	m.lastSessionID = sessionID
	m.sessionSet = true
	return nil
}

// mockDiscoveryService implements services.DiscoveryService for handler
// tests.
type mockDiscoveryService struct {
	sessions  []*models.DiscoverySession
	session   *models.DiscoverySession
	templates []*models.DiscoveryTemplate
	template  *models.DiscoveryTemplate
	err       error
	linkErr   error

	linked   []uuid.UUID
	unlinked []uuid.UUID
}

func (m *mockDiscoveryService) CreateSession(ctx context.Context, in services.SessionInput) (*models.DiscoverySession, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.DiscoverySession{
		ID:              uuid.New(),
		ClientName:      in.ClientName,
		OpportunityName: in.OpportunityName,
		SessionDate:     in.SessionDate,
		Notes:           in.Notes,
		TemplateID:      in.TemplateID,
	}, nil
}

func (m *mockDiscoveryService) UpdateSession(ctx context.Context, id uuid.UUID, in services.SessionInput) (*models.DiscoverySession, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.DiscoverySession{ID: id, ClientName: in.ClientName, SessionDate: in.SessionDate}, nil
}

func (m *mockDiscoveryService) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return m.err
}

func (m *mockDiscoveryService) GetSession(ctx context.Context, id uuid.UUID) (*models.DiscoverySession, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

func (m *mockDiscoveryService) ListSessions(ctx context.Context, query string) ([]*models.DiscoverySession, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sessions, nil
}

func (m *mockDiscoveryService) LinkSolution(ctx context.Context, sessionID, solutionID uuid.UUID) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	m.linked = append(m.linked, solutionID)
	return nil
}

func (m *mockDiscoveryService) UnlinkSolution(ctx context.Context, sessionID, solutionID uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	m.unlinked = append(m.unlinked, solutionID)
	return nil
}

func (m *mockDiscoveryService) CreateTemplate(ctx context.Context, in services.TemplateInput) (*models.DiscoveryTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.DiscoveryTemplate{ID: uuid.New(), Name: in.Name, Sections: in.Sections}, nil
}

func (m *mockDiscoveryService) UpdateTemplate(ctx context.Context, id uuid.UUID, in services.TemplateInput) (*models.DiscoveryTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.DiscoveryTemplate{ID: id, Name: in.Name, Sections: in.Sections}, nil
}

func (m *mockDiscoveryService) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return m.err
}

func (m *mockDiscoveryService) GetTemplate(ctx context.Context, id uuid.UUID) (*models.DiscoveryTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.template, nil
}

func (m *mockDiscoveryService) ListTemplates(ctx context.Context) ([]*models.DiscoveryTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.templates, nil
}

// mockAuthService implements auth.AuthService for handler tests.
type mockAuthService struct {
	user   *models.User
	token  string
	claims *auth.Claims
	err    error
}

func (m *mockAuthService) Signup(ctx context.Context, email, password string) (*models.User, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.user, m.token, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.user, m.token, nil
}

func (m *mockAuthService) ValidateToken(token string) (*auth.Claims, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.claims, nil
}

func (m *mockAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.claims, m.token, nil
}
