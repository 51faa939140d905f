// internal/services/policy_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/policystack/agency-backend/internal/models"
)

// A settled claim with a non-positive amount must be rejected before the
// service touches storage. The service here has no database at all, so any
// persistence attempt would panic.
func TestUpdateClaimRejectsNonPositiveSettlement(t *testing.T) {
	service := NewPolicyService(nil, nil)
	rc := RequestContext{ActorID: uuid.New()}

	for _, amount := range []float64{0, -1, -2500.50} {
		_, err := service.UpdateClaim(rc, uuid.New(), &UpdateClaimRequest{
			ClaimStatus:   models.ClaimStatusSettled,
			SettledAmount: amount,
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "settlement amount must be greater than zero")
	}
}

func TestUpdateClaimValidatesStatus(t *testing.T) {
	service := NewPolicyService(nil, nil)
	rc := RequestContext{ActorID: uuid.New()}

	_, err := service.UpdateClaim(rc, uuid.New(), &UpdateClaimRequest{
		ClaimStatus: "closed",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
