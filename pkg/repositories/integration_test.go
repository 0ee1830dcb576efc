package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealdesk-io/dealdesk-engine/pkg/apperrors"
	"github.com/dealdesk-io/dealdesk-engine/pkg/models"
	"github.com/dealdesk-io/dealdesk-engine/pkg/repositories"
	"github.com/dealdesk-io/dealdesk-engine/pkg/testhelpers"
)

func uniqueName(prefix string) string {
	return prefix + " " + uuid.NewString()[:8]
}

func TestSolutionRepository_CRUDAndUniqueName(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := repositories.NewSolutionRepository(db.DB)
	ctx := context.Background()

	name := uniqueName("Churn Radar")
	desc := "Flags accounts at churn risk"
	solution := &models.Solution{Name: name, Description: &desc, IsActive: true}
	require.NoError(t, repo.Create(ctx, solution))
	require.NotEqual(t, uuid.Nil, solution.ID)

	// Same name again violates the unique constraint.
	dup := &models.Solution{Name: name, IsActive: true}
	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateName)

	fetched, err := repo.GetByID(ctx, solution.ID)
	require.NoError(t, err)
	assert.Equal(t, name, fetched.Name)
	require.NotNil(t, fetched.Description)
	assert.Equal(t, desc, *fetched.Description)

	require.NoError(t, repo.SetActive(ctx, solution.ID, false))
	fetched, err = repo.GetByID(ctx, solution.ID)
	require.NoError(t, err)
	assert.False(t, fetched.IsActive)

	require.NoError(t, repo.Delete(ctx, solution.ID))
	_, err = repo.GetByID(ctx, solution.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Deleting again reports not found.
	assert.ErrorIs(t, repo.Delete(ctx, solution.ID), apperrors.ErrNotFound)
}

func TestOpportunityRepository_FilterSortAndNullValues(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := repositories.NewOpportunityRepository(db.DB)
	ctx := context.Background()

	// Clean slate for the list/sort assertions.
	_, err := db.DB.Pool.Exec(ctx, "DELETE FROM opportunities")
	require.NoError(t, err)

	high, low := 50000.0, 1000.0
	seed := []*models.Opportunity{
		{Name: "Big concept", ClientName: "Acme", OpportunityType: models.TypeConcept, Stage: "Proposal", EstimatedValue: &high},
		{Name: "Small concept", ClientName: "Globex", OpportunityType: models.TypeConcept, Stage: "Discovery", EstimatedValue: &low},
		{Name: "No estimate", ClientName: "Initech", OpportunityType: models.TypePaidAudit, Stage: "Audit Proposed"},
	}
	for _, o := range seed {
		require.NoError(t, repo.Create(ctx, o))
	}

	// Ascending by value places the null estimate first.
	list, err := repo.List(ctx, repositories.OpportunityListOptions{SortBy: "estimated_value", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Nil(t, list[0].EstimatedValue)
	assert.Equal(t, "Big concept", list[2].Name)

	// Descending places it last.
	list, err = repo.List(ctx, repositories.OpportunityListOptions{SortBy: "estimated_value", SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, "Big concept", list[0].Name)
	assert.Nil(t, list[2].EstimatedValue)

	// Type filter is exact-match.
	list, err = repo.List(ctx, repositories.OpportunityListOptions{OpportunityType: models.TypeConcept})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// Summary counts stay unfiltered.
	byStage, err := repo.CountByStage(ctx)
	require.NoError(t, err)
	total := 0
	for _, s := range byStage {
		total += s.Count
	}
	assert.Equal(t, 3, total)
}

func TestSessionRepository_LinksAndTemplateGuard(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	sessions := repositories.NewSessionRepository(db.DB)
	templates := repositories.NewTemplateRepository(db.DB)
	solutions := repositories.NewSolutionRepository(db.DB)
	ctx := context.Background()

	template := &models.DiscoveryTemplate{
		Name:     uniqueName("Standard Discovery"),
		Sections: []string{"Goals", "Pain Points", "Budget"},
	}
	require.NoError(t, templates.Create(ctx, template))

	session := &models.DiscoverySession{
		ClientName:  "Acme",
		SessionDate: time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
		TemplateID:  &template.ID,
	}
	require.NoError(t, sessions.Create(ctx, session))

	// Template delete is blocked by the referencing session.
	count, err := templates.CountReferencingSessions(ctx, template.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.ErrorIs(t, templates.Delete(ctx, template.ID), apperrors.ErrTemplateInUse)

	// Section order round-trips through JSONB.
	fetched, err := templates.GetByID(ctx, template.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Goals", "Pain Points", "Budget"}, fetched.Sections)

	solution := &models.Solution{Name: uniqueName("Churn Radar"), IsActive: true}
	require.NoError(t, solutions.Create(ctx, solution))

	inserted, err := sessions.LinkSolution(ctx, session.ID, solution.ID)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Relinking the same pair is a no-op, not an error.
	inserted, err = sessions.LinkSolution(ctx, session.ID, solution.ID)
	require.NoError(t, err)
	assert.False(t, inserted)

	linked, err := sessions.LinkedSolutions(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, solution.Name, linked[0].Name)

	require.NoError(t, sessions.UnlinkSolution(ctx, session.ID, solution.ID))
	linked, err = sessions.LinkedSolutions(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, linked)

	// Unlinking the absent pair stays silent.
	require.NoError(t, sessions.UnlinkSolution(ctx, session.ID, solution.ID))

	// After the session drops the template, delete goes through.
	session.TemplateID = nil
	require.NoError(t, sessions.Update(ctx, session))
	require.NoError(t, templates.Delete(ctx, template.ID))
}

func TestUserRepository_EmailIsCaseInsensitive(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := repositories.NewUserRepository(db.DB)
	ctx := context.Background()

	email := uuid.NewString()[:8] + "@example.com"
	user := &models.User{Email: "Mixed." + email, PasswordHash: "x"}
	require.NoError(t, repo.Create(ctx, user))

	fetched, err := repo.GetByEmail(ctx, "mixed."+email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, fetched.ID)
}
