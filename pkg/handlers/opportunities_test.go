package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dealdesk-io/dealdesk-engine/pkg/apperrors"
	"github.com/dealdesk-io/dealdesk-engine/pkg/models"
)

func TestOpportunitiesHandler_List_ForwardsFilterAndSort(t *testing.T) {
	value := 12000.0
	mock := &mockOpportunityService{opportunities: []*models.Opportunity{
		{
			ID:              uuid.New(),
			Name:            "Concept pilot",
			ClientName:      "Acme",
			OpportunityType: models.TypeConcept,
			Stage:           "Proposal",
			EstimatedValue:  &value,
		},
	}}
	handler := NewOpportunitiesHandler(mock, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet,
		"/api/opportunities?stage=Proposal&type=Concept&sort_by=estimated_value&sort_order=desc", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Proposal", mock.lastOpts.Stage)
	assert.Equal(t, "Concept", mock.lastOpts.OpportunityType)
	assert.Equal(t, "estimated_value", mock.lastOpts.SortBy)
	assert.Equal(t, "desc", mock.lastOpts.SortOrder)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)

	var listResponse OpportunityListResponse
	require.NoError(t, json.Unmarshal(dataBytes, &listResponse))
	require.Len(t, listResponse.Opportunities, 1)
	assert.Equal(t, models.CategoryProposal, listResponse.Opportunities[0].StageCategory)
	assert.Equal(t, "$12,000.00", listResponse.Opportunities[0].EstimatedValueDisplay)
}

func TestOpportunitiesHandler_List_NullValueDisplaysDash(t *testing.T) {
	mock := &mockOpportunityService{opportunities: []*models.Opportunity{
		{ID: uuid.New(), Name: "No estimate yet", OpportunityType: models.TypeConcept, Stage: "Discovery"},
	}}
	handler := NewOpportunitiesHandler(mock, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)

	var listResponse OpportunityListResponse
	require.NoError(t, json.Unmarshal(dataBytes, &listResponse))
	require.Len(t, listResponse.Opportunities, 1)
	assert.Equal(t, "—", listResponse.Opportunities[0].EstimatedValueDisplay)
}

func TestOpportunitiesHandler_Create_EmptyValueMeansNull(t *testing.T) {
	handler := NewOpportunitiesHandler(&mockOpportunityService{}, zap.NewNop())

	body, _ := json.Marshal(OpportunityRequest{
		Name:            "Concept pilot",
		ClientName:      "Acme",
		OpportunityType: models.TypeConcept,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/opportunities", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)

	var created OpportunityResponse
	require.NoError(t, json.Unmarshal(dataBytes, &created))
	assert.Nil(t, created.EstimatedValue)
	assert.Equal(t, "Discovery", created.Stage)
}

func TestOpportunitiesHandler_Create_RejectsWrongTypeStage(t *testing.T) {
	handler := NewOpportunitiesHandler(&mockOpportunityService{}, zap.NewNop())

	body, _ := json.Marshal(OpportunityRequest{
		Name:            "Concept pilot",
		ClientName:      "Acme",
		OpportunityType: models.TypeConcept,
		Stage:           "Audit Paid",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/opportunities", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpportunitiesHandler_Create_RejectsNegativeValue(t *testing.T) {
	handler := NewOpportunitiesHandler(&mockOpportunityService{}, zap.NewNop())

	body, _ := json.Marshal(OpportunityRequest{
		Name:            "Concept pilot",
		ClientName:      "Acme",
		OpportunityType: models.TypeConcept,
		EstimatedValue:  "-500",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/opportunities", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpportunitiesHandler_Update_InvalidStageFromService(t *testing.T) {
	handler := NewOpportunitiesHandler(&mockOpportunityService{err: apperrors.ErrInvalidStage}, zap.NewNop())

	id := uuid.New()
	body, _ := json.Marshal(OpportunityRequest{
		Name:            "Concept pilot",
		ClientName:      "Acme",
		OpportunityType: models.TypeConcept,
	})
	req := httptest.NewRequest(http.MethodPut, "/api/opportunities/"+id.String(), bytes.NewReader(body))
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "invalid_stage", errResp["error"])
}

func TestOpportunitiesHandler_LinkDiscoverySession(t *testing.T) {
	mock := &mockOpportunityService{}
	handler := NewOpportunitiesHandler(mock, zap.NewNop())

	id := uuid.New()
	sessionID := uuid.New()
	body, _ := json.Marshal(LinkDiscoverySessionRequest{DiscoverySessionID: sessionID})
	req := httptest.NewRequest(http.MethodPut, "/api/opportunities/"+id.String()+"/discovery-session", bytes.NewReader(body))
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()

	handler.LinkDiscoverySession(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, mock.lastSessionID)
	assert.Equal(t, sessionID, *mock.lastSessionID)
}

func TestOpportunitiesHandler_UnlinkDiscoverySession(t *testing.T) {
	mock := &mockOpportunityService{}
	handler := NewOpportunitiesHandler(mock, zap.NewNop())

	id := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/opportunities/"+id.String()+"/discovery-session", nil)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()

	handler.UnlinkDiscoverySession(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, mock.sessionSet)
	assert.Nil(t, mock.lastSessionID)
}
