package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestKeyEncodesAllParameters(t *testing.T) {
	key := Key(CollectionOpportunities, "stage=Discovery", "type=Concept", "sort=name", "order=asc")
	assert.Equal(t, "dealdesk:opportunities:stage=Discovery:type=Concept:sort=name:order=asc", key)

	// Different parameter sets never collide.
	other := Key(CollectionOpportunities, "stage=Proposal", "type=Concept", "sort=name", "order=asc")
	assert.NotEqual(t, key, other)
}

func TestNilClientIsAlwaysMiss(t *testing.T) {
	c := NewListCache(nil, zap.NewNop())
	ctx := context.Background()

	var dest []string
	assert.False(t, c.Get(ctx, Key(CollectionSolutions), &dest))

	// No-ops, must not panic.
	c.Set(ctx, Key(CollectionSolutions), []string{"a"})
	c.InvalidateMutation(ctx, MutationSolutionCreate)
}

func TestInvalidationTable(t *testing.T) {
	cases := map[string][]string{
		MutationSolutionCreate:         {CollectionSolutions},
		MutationSolutionDelete:         {CollectionSolutions, CollectionSessions},
		MutationOpportunityCreate:      {CollectionOpportunities, CollectionDashboard},
		MutationOpportunityUpdate:      {CollectionOpportunities, CollectionDashboard},
		MutationOpportunityLinkSession: {CollectionOpportunities},
		MutationSessionLinkSolution:    {CollectionSessions},
		MutationSessionUnlinkSolution:  {CollectionSessions},
		MutationTemplateUpdate:         {CollectionTemplates, CollectionSessions},
		MutationTemplateDelete:         {CollectionTemplates},
	}
	for mutation, want := range cases {
		assert.Equal(t, want, CollectionsFor(mutation), "mutation %s", mutation)
	}
}

func TestUnknownMutationInvalidatesNothing(t *testing.T) {
	assert.Nil(t, CollectionsFor("unknown.mutation"))
}

// Every opportunity mutation that can change stage or type tallies must also
// refresh the dashboard summary collection.
func TestOpportunityWritesRefreshDashboard(t *testing.T) {
	for _, mutation := range []string{MutationOpportunityCreate, MutationOpportunityUpdate, MutationOpportunityDelete} {
		assert.Contains(t, CollectionsFor(mutation), CollectionDashboard, "mutation %s", mutation)
	}
}
