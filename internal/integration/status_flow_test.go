package integration

import (
	"bytes"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-buyback-api/internal/handler"
	"asset-buyback-api/internal/model"
	"asset-buyback-api/internal/service"
)

// The label QR code leads to the status page, which only offers
// Approved -> Completed.
func TestIntegration_StatusPageFlow(t *testing.T) {
	suite := setupIntegrationTest(t)

	asset := suite.createAsset(t, assetRequest("SN1", "00:1A:2B:3C:4D:01"))
	id := asset.ID.String()

	rr := suite.do(t, httptest.NewRequest(http.MethodGet, "/api/assets/"+id+"/qr", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	_, err := png.Decode(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)

	options := func() service.StatusOptions {
		rr := suite.do(t, httptest.NewRequest(http.MethodGet, "/api/assets/"+id+"/status-options", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		var opts service.StatusOptions
		parseJSONResponse(t, rr, &opts)
		return opts
	}
	setStatus := func(status string) *httptest.ResponseRecorder {
		return suite.do(t, createJSONRequest(http.MethodPatch, "/api/assets/"+id+"/status", map[string]string{"status": status}))
	}

	opts := options()
	assert.Equal(t, model.StatusPending, opts.Current)
	assert.Empty(t, opts.AllowedTargets)

	// Pending assets cannot be completed from the status page.
	rr = setStatus("Completed")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	var resp handler.ErrorResponse
	parseJSONResponse(t, rr, &resp)
	assert.Equal(t, "TRANSITION_DENIED", resp.Code)
	assert.Equal(t, "not_approved", resp.Details["reason"])

	// Approval happens through a full edit.
	req := assetRequest("SN1", "00:1A:2B:3C:4D:01")
	req.BuybackStatus = "Approved"
	require.Equal(t, http.StatusOK, suite.do(t, createJSONRequest(http.MethodPut, "/api/assets/"+id, req)).Code)

	opts = options()
	assert.Equal(t, model.StatusApproved, opts.Current)
	assert.Equal(t, []model.BuybackStatus{model.StatusCompleted}, opts.AllowedTargets)

	rr = setStatus("Pending")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = setStatus("Finished")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	parseJSONResponse(t, rr, &resp)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)

	rr = setStatus("Completed")
	require.Equal(t, http.StatusOK, rr.Code)
	var completed model.Asset
	parseJSONResponse(t, rr, &completed)
	assert.Equal(t, model.StatusCompleted, completed.BuybackStatus)
	assert.True(t, !completed.UpdatedAt.Before(asset.UpdatedAt))
	assert.True(t, completed.CreatedAt.Equal(asset.CreatedAt))

	// Completed is terminal for status-only changes.
	rr = setStatus("Completed")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	parseJSONResponse(t, rr, &resp)
	assert.Equal(t, "no_change", resp.Details["reason"])

	assert.Empty(t, options().AllowedTargets)
}

func TestIntegration_StatusPageUnknownAsset(t *testing.T) {
	suite := setupIntegrationTest(t)
	id := "6f1c2f9e-0000-4000-8000-000000000001"

	assert.Equal(t, http.StatusNotFound, suite.do(t, httptest.NewRequest(http.MethodGet, "/api/assets/"+id+"/qr", nil)).Code)
	assert.Equal(t, http.StatusNotFound, suite.do(t, httptest.NewRequest(http.MethodGet, "/api/assets/"+id+"/status-options", nil)).Code)
	rr := suite.do(t, createJSONRequest(http.MethodPatch, "/api/assets/"+id+"/status", map[string]string{"status": "Completed"}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
