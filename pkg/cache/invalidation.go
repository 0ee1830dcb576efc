// Package cache provides the parameter-keyed list cache and the explicit
// mutation-to-collection invalidation table.
package cache

// Collection identifiers. Cache keys are namespaced per collection, so
// invalidating a collection drops every parameter combination cached for it.
const (
	CollectionSolutions    = "solutions"
	CollectionOpportunities = "opportunities"
	CollectionSessions     = "discovery_sessions"
	CollectionTemplates    = "discovery_templates"
	CollectionDashboard    = "dashboard_summary"
)

// Mutation kinds.
const (
	MutationSolutionCreate  = "solution.create"
	MutationSolutionUpdate  = "solution.update"
	MutationSolutionDelete  = "solution.delete"
	MutationSolutionArchive = "solution.archive"

	MutationOpportunityCreate      = "opportunity.create"
	MutationOpportunityUpdate      = "opportunity.update"
	MutationOpportunityDelete      = "opportunity.delete"
	MutationOpportunityLinkSession = "opportunity.link_session"

	MutationSessionCreate         = "session.create"
	MutationSessionUpdate         = "session.update"
	MutationSessionDelete         = "session.delete"
	MutationSessionLinkSolution   = "session.link_solution"
	MutationSessionUnlinkSolution = "session.unlink_solution"

	MutationTemplateCreate = "template.create"
	MutationTemplateUpdate = "template.update"
	MutationTemplateDelete = "template.delete"
)

// invalidations maps each mutation kind to the collections it must refresh.
// This table is the single source of truth for cache invalidation: services
// consult it on every successful write.
var invalidations = map[string][]string{
	MutationSolutionCreate:  {CollectionSolutions},
	MutationSolutionUpdate:  {CollectionSolutions, CollectionSessions},
	MutationSolutionArchive: {CollectionSolutions},
	// Deleting a solution cascades its link rows, so session details change.
	MutationSolutionDelete: {CollectionSolutions, CollectionSessions},

	MutationOpportunityCreate:      {CollectionOpportunities, CollectionDashboard},
	MutationOpportunityUpdate:      {CollectionOpportunities, CollectionDashboard},
	MutationOpportunityDelete:      {CollectionOpportunities, CollectionDashboard},
	MutationOpportunityLinkSession: {CollectionOpportunities},

	MutationSessionCreate:         {CollectionSessions},
	MutationSessionUpdate:         {CollectionSessions},
	MutationSessionDelete:         {CollectionSessions},
	MutationSessionLinkSolution:   {CollectionSessions},
	MutationSessionUnlinkSolution: {CollectionSessions},

	MutationTemplateCreate: {CollectionTemplates},
	// Template edits reshape the notes sections of referencing sessions.
	MutationTemplateUpdate: {CollectionTemplates, CollectionSessions},
	MutationTemplateDelete: {CollectionTemplates},
}

// CollectionsFor returns the collections a mutation kind invalidates.
// Unknown kinds return nil rather than guessing.
func CollectionsFor(mutation string) []string {
	return invalidations[mutation]
}
