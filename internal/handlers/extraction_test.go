// internal/handlers/extraction_test.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policystack/agency-backend/internal/services"
)

func TestExtractionFailureCode(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{services.ErrExtractionTimeout, "EXTRACTION_TIMEOUT"},
		{fmt.Errorf("%w: upstream hung", services.ErrExtractionTimeout), "EXTRACTION_TIMEOUT"},
		{services.ErrExtractionNetwork, "EXTRACTION_NETWORK"},
		{fmt.Errorf("%w: status 503", services.ErrExtractionNetwork), "EXTRACTION_NETWORK"},
		{services.ErrExtractionBadResponse, "EXTRACTION_BAD_RESPONSE"},
		{services.ErrExtractionEmpty, "EXTRACTION_EMPTY"},
		{errors.New("boom"), ""},
	}

	for _, tc := range cases {
		code, _ := extractionFailureCode(tc.err)
		assert.Equal(t, tc.code, code)
	}
}

// When work was persisted before an extraction failed, the response stays
// success-shaped and carries the surviving state next to the failure code.
// The client must never mistake a failed next-file extraction for a failed
// save.
func TestExtractionPartialResponseKeepsPersistedState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	extractionPartialResponse(c, 200, gin.H{
		"batch":  gin.H{"id": "b-1"},
		"policy": gin.H{"id": "p-1"},
	}, fmt.Errorf("%w: upstream hung", services.ErrExtractionTimeout))

	assert.Equal(t, 200, rec.Code)

	var body struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.True(t, body.Success)
	assert.NotNil(t, body.Data["batch"])
	assert.NotNil(t, body.Data["policy"])

	failure, ok := body.Data["extraction_error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "EXTRACTION_TIMEOUT", failure["code"])
	assert.NotEmpty(t, failure["message"])
}

func TestExtractionPartialResponseGenericCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	extractionPartialResponse(c, 200, gin.H{
		"batch": gin.H{"id": "b-1"},
	}, errors.New("failed to mark file saved: connection reset"))

	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	failure, ok := body.Data["extraction_error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "EXTRACTION_FAILED", failure["code"])
}
