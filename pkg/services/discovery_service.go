package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealdesk-io/dealdesk-engine/pkg/apperrors"
	"github.com/dealdesk-io/dealdesk-engine/pkg/cache"
	"github.com/dealdesk-io/dealdesk-engine/pkg/models"
	"github.com/dealdesk-io/dealdesk-engine/pkg/notes"
	"github.com/dealdesk-io/dealdesk-engine/pkg/repositories"
	"github.com/dealdesk-io/dealdesk-engine/pkg/views"
)

// SessionInput carries the fields of a discovery session create/update
// request. When Notes is nil and SectionNotes is set alongside a template,
// the per-section content is encoded into the stored notes string.
type SessionInput struct {
	ClientName      string
	OpportunityName *string
	SessionDate     time.Time
	Notes           *string
	SectionNotes    map[string]string
	TemplateID      *uuid.UUID
}

// TemplateInput carries the fields of a discovery template create/update
// request.
type TemplateInput struct {
	Name     string
	Sections []string
}

// DiscoveryService provides operations for discovery sessions, their
// templates, and session-solution links.
type DiscoveryService interface {
	CreateSession(ctx context.Context, in SessionInput) (*models.DiscoverySession, error)
	UpdateSession(ctx context.Context, id uuid.UUID, in SessionInput) (*models.DiscoverySession, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// GetSession returns the session with its template and linked solutions
	// embedded.
	GetSession(ctx context.Context, id uuid.UUID) (*models.DiscoverySession, error)
	ListSessions(ctx context.Context, query string) ([]*models.DiscoverySession, error)

	// LinkSolution is idempotent: linking an already-linked solution reports
	// apperrors.ErrAlreadyLinked, which callers surface as an informational
	// notice rather than a failure.
	LinkSolution(ctx context.Context, sessionID, solutionID uuid.UUID) error

	// UnlinkSolution is idempotent: unlinking an absent pair is a silent
	// no-op.
	UnlinkSolution(ctx context.Context, sessionID, solutionID uuid.UUID) error

	CreateTemplate(ctx context.Context, in TemplateInput) (*models.DiscoveryTemplate, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, in TemplateInput) (*models.DiscoveryTemplate, error)

	// DeleteTemplate fails with apperrors.ErrTemplateInUse while any session
	// references the template.
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	GetTemplate(ctx context.Context, id uuid.UUID) (*models.DiscoveryTemplate, error)
	ListTemplates(ctx context.Context) ([]*models.DiscoveryTemplate, error)
}

type discoveryService struct {
	sessions  repositories.SessionRepository
	templates repositories.TemplateRepository
	cache     *cache.ListCache
	logger    *zap.Logger
}

// NewDiscoveryService creates a new DiscoveryService.
func NewDiscoveryService(
	sessions repositories.SessionRepository,
	templates repositories.TemplateRepository,
	listCache *cache.ListCache,
	logger *zap.Logger,
) DiscoveryService {
	return &discoveryService{sessions: sessions, templates: templates, cache: listCache, logger: logger}
}

func (s *discoveryService) CreateSession(ctx context.Context, in SessionInput) (*models.DiscoverySession, error) {
	sessionNotes, err := s.resolveNotes(ctx, in)
	if err != nil {
		return nil, err
	}

	session := &models.DiscoverySession{
		ClientName:      in.ClientName,
		OpportunityName: in.OpportunityName,
		SessionDate:     in.SessionDate,
		Notes:           sessionNotes,
		TemplateID:      in.TemplateID,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationSessionCreate)
	s.logger.Info("Created discovery session", zap.String("session_id", session.ID.String()))
	return session, nil
}

func (s *discoveryService) UpdateSession(ctx context.Context, id uuid.UUID, in SessionInput) (*models.DiscoverySession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sessionNotes, err := s.resolveNotes(ctx, in)
	if err != nil {
		return nil, err
	}

	session.ClientName = in.ClientName
	session.OpportunityName = in.OpportunityName
	session.SessionDate = in.SessionDate
	session.Notes = sessionNotes
	session.TemplateID = in.TemplateID
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationSessionUpdate)
	return session, nil
}

func (s *discoveryService) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationSessionDelete)
	s.logger.Info("Deleted discovery session", zap.String("session_id", id.String()))
	return nil
}

func (s *discoveryService) GetSession(ctx context.Context, id uuid.UUID) (*models.DiscoverySession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.TemplateID != nil {
		template, err := s.templates.GetByID(ctx, *session.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("failed to load session template: %w", err)
		}
		session.Template = template

		flat := ""
		if session.Notes != nil {
			flat = *session.Notes
		}
		session.SectionNotes = notes.Decode(template.Sections, flat)
	}

	linked, err := s.sessions.LinkedSolutions(ctx, id)
	if err != nil {
		return nil, err
	}
	session.LinkedSolutions = linked

	return session, nil
}

func (s *discoveryService) ListSessions(ctx context.Context, query string) ([]*models.DiscoverySession, error) {
	key := cache.Key(cache.CollectionSessions, "q="+query)

	var cached []*models.DiscoverySession
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	sessions = views.SearchSessions(sessions, query)

	s.cache.Set(ctx, key, sessions)
	return sessions, nil
}

// resolveNotes picks the stored notes string for a session write. An explicit
// flat Notes value wins; otherwise per-section content is encoded against the
// attached template's section order.
func (s *discoveryService) resolveNotes(ctx context.Context, in SessionInput) (*string, error) {
	if in.Notes != nil || in.SectionNotes == nil || in.TemplateID == nil {
		return in.Notes, nil
	}

	template, err := s.templates.GetByID(ctx, *in.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session template: %w", err)
	}

	flat := notes.Encode(template.Sections, in.SectionNotes)
	return &flat, nil
}

func (s *discoveryService) LinkSolution(ctx context.Context, sessionID, solutionID uuid.UUID) error {
	inserted, err := s.sessions.LinkSolution(ctx, sessionID, solutionID)
	if err != nil {
		return err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationSessionLinkSolution)
	if !inserted {
		return apperrors.ErrAlreadyLinked
	}

	s.logger.Info("Linked solution to session",
		zap.String("session_id", sessionID.String()),
		zap.String("solution_id", solutionID.String()))
	return nil
}

func (s *discoveryService) UnlinkSolution(ctx context.Context, sessionID, solutionID uuid.UUID) error {
	if err := s.sessions.UnlinkSolution(ctx, sessionID, solutionID); err != nil {
		return err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationSessionUnlinkSolution)
	return nil
}

func (s *discoveryService) CreateTemplate(ctx context.Context, in TemplateInput) (*models.DiscoveryTemplate, error) {
	sections, err := normalizeSections(in.Sections)
	if err != nil {
		return nil, err
	}

	template := &models.DiscoveryTemplate{Name: in.Name, Sections: sections}
	if err := s.templates.Create(ctx, template); err != nil {
		return nil, err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationTemplateCreate)
	s.logger.Info("Created discovery template", zap.String("template_id", template.ID.String()))
	return template, nil
}

func (s *discoveryService) UpdateTemplate(ctx context.Context, id uuid.UUID, in TemplateInput) (*models.DiscoveryTemplate, error) {
	sections, err := normalizeSections(in.Sections)
	if err != nil {
		return nil, err
	}

	template, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	template.Name = in.Name
	template.Sections = sections
	if err := s.templates.Update(ctx, template); err != nil {
		return nil, err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationTemplateUpdate)
	return template, nil
}

// DeleteTemplate checks for referencing sessions before deleting. The check
// and the delete are not atomic: a session created in between makes the
// delete itself fail on the RESTRICT constraint, which reports the same
// in-use outcome.
func (s *discoveryService) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	count, err := s.templates.CountReferencingSessions(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.ErrTemplateInUse
	}

	if err := s.templates.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.InvalidateMutation(ctx, cache.MutationTemplateDelete)
	s.logger.Info("Deleted discovery template", zap.String("template_id", id.String()))
	return nil
}

func (s *discoveryService) GetTemplate(ctx context.Context, id uuid.UUID) (*models.DiscoveryTemplate, error) {
	return s.templates.GetByID(ctx, id)
}

func (s *discoveryService) ListTemplates(ctx context.Context) ([]*models.DiscoveryTemplate, error) {
	key := cache.Key(cache.CollectionTemplates)

	var cached []*models.DiscoveryTemplate
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	templates, err := s.templates.List(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, templates)
	return templates, nil
}

// normalizeSections trims section names, drops empties, and rejects
// duplicates while preserving insertion order.
func normalizeSections(sections []string) ([]string, error) {
	seen := make(map[string]bool, len(sections))
	out := make([]string, 0, len(sections))
	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		if seen[section] {
			return nil, fmt.Errorf("duplicate section %q", section)
		}
		seen[section] = true
		out = append(out, section)
	}
	return out, nil
}
