package models

import (
	"time"

	"github.com/google/uuid"
)

// OpportunityType constants. Every opportunity is one of these two.
const (
	TypeConcept   = "Concept"
	TypePaidAudit = "Paid Audit"
)

// Stage sets per opportunity type. Order matters: the first entry is the
// stage a new or retyped opportunity starts in.
var (
	ConceptStages   = []string{"Discovery", "Proposal", "Agreement Sent", "Closed Won", "Closed Lost"}
	PaidAuditStages = []string{"Audit Proposed", "Audit Signed", "Audit Paid", "Audit Delivered", "Closed Won", "Closed Lost"}
)

// Opportunity represents a tracked potential sale moving through a
// type-specific pipeline of stages.
type Opportunity struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	ClientName         string     `json:"client_name"`
	Description        *string    `json:"description"`
	OpportunityType    string     `json:"opportunity_type"`
	Stage              string     `json:"stage"`
	EstimatedValue     *float64   `json:"estimated_value"`
	DiscoverySessionID *uuid.UUID `json:"discovery_session_id"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ValidType reports whether t is a known opportunity type.
func ValidType(t string) bool {
	return t == TypeConcept || t == TypePaidAudit
}

// StagesForType returns the ordered stage set for the given type.
// Unknown types return nil.
func StagesForType(opportunityType string) []string {
	switch opportunityType {
	case TypeConcept:
		return ConceptStages
	case TypePaidAudit:
		return PaidAuditStages
	}
	return nil
}

// ValidStage reports whether stage belongs to the stage set of the given type.
func ValidStage(opportunityType, stage string) bool {
	for _, s := range StagesForType(opportunityType) {
		if s == stage {
			return true
		}
	}
	return false
}

// DefaultStage returns the first stage for the given type ("Discovery" for
// Concept, "Audit Proposed" for Paid Audit). Empty for unknown types.
func DefaultStage(opportunityType string) string {
	stages := StagesForType(opportunityType)
	if len(stages) == 0 {
		return ""
	}
	return stages[0]
}

// StageCategory is the display category for a stage badge.
type StageCategory string

const (
	CategoryWon      StageCategory = "won"
	CategoryLost     StageCategory = "lost"
	CategoryOpen     StageCategory = "open"
	CategoryProposal StageCategory = "proposal"
	CategoryPaid     StageCategory = "paid"
	CategoryPending  StageCategory = "pending"
	CategoryDefault  StageCategory = "default"
)

type typeStage struct {
	opportunityType string
	stage           string
}

// stageCategories keys badge categories by (type, stage). Closed stages share
// a category regardless of type, so they are listed under both.
var stageCategories = map[typeStage]StageCategory{
	{TypeConcept, "Closed Won"}:    CategoryWon,
	{TypePaidAudit, "Closed Won"}:  CategoryWon,
	{TypeConcept, "Closed Lost"}:   CategoryLost,
	{TypePaidAudit, "Closed Lost"}: CategoryLost,

	{TypeConcept, "Discovery"}:      CategoryOpen,
	{TypeConcept, "Proposal"}:       CategoryProposal,
	{TypeConcept, "Agreement Sent"}: CategoryPending,

	{TypePaidAudit, "Audit Proposed"}:  CategoryOpen,
	{TypePaidAudit, "Audit Signed"}:    CategoryProposal,
	{TypePaidAudit, "Audit Paid"}:      CategoryPaid,
	{TypePaidAudit, "Audit Delivered"}: CategoryPending,
}

// BadgeCategory returns the display category for a (type, stage) pair,
// falling back to CategoryDefault for unknown combinations.
func BadgeCategory(opportunityType, stage string) StageCategory {
	if c, ok := stageCategories[typeStage{opportunityType, stage}]; ok {
		return c
	}
	return CategoryDefault
}
