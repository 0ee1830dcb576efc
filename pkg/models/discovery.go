package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscoveryTemplate is a named, ordered list of section headings used to
// structure a discovery session's notes. Section order is meaningful and
// preserved as stored.
type DiscoveryTemplate struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Sections  []string  `json:"sections"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DiscoverySession is a recorded client conversation, optionally structured
// by a template and optionally linked to solutions and an opportunity.
type DiscoverySession struct {
	ID              uuid.UUID  `json:"id"`
	ClientName      string     `json:"client_name"`
	OpportunityName *string    `json:"opportunity_name"`
	SessionDate     time.Time  `json:"session_date"`
	Notes           *string    `json:"notes"`
	TemplateID      *uuid.UUID `json:"template_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Populated on detail reads, not stored on the sessions table.
	Template        *DiscoveryTemplate `json:"template,omitempty"`
	LinkedSolutions []LinkedSolution   `json:"linked_solutions,omitempty"`

	// SectionNotes is the per-section view of Notes, keyed by the template's
	// section names. Populated on detail reads when a template is attached.
	SectionNotes map[string]string `json:"section_notes,omitempty"`
}

// LinkedSolution is the slim solution view embedded in a session detail.
type LinkedSolution struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// SessionSolutionLink associates a discovery session with a solution.
// The (session, solution) pair is unique.
type SessionSolutionLink struct {
	DiscoverySessionID uuid.UUID `json:"discovery_session_id"`
	SolutionID         uuid.UUID `json:"solution_id"`
	CreatedAt          time.Time `json:"created_at"`
}
