// internal/utils/jwt_test.go
package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	userID := uuid.New()
	token, err := GenerateJWT(userID, "agent@example.com", "agent", AccountTypeUser, 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "agent@example.com", claims.Email)
	assert.Equal(t, "agent", claims.Role)
	assert.Equal(t, AccountTypeUser, claims.AccountType)
	assert.Empty(t, claims.OwnerID)
}

func TestTeamMemberJWTCarriesOwnerAndPages(t *testing.T) {
	SetJWTSecret("test-secret")

	memberID := uuid.New()
	ownerID := uuid.New()
	token, err := GenerateTeamMemberJWT(memberID, ownerID, "member@example.com", []string{"policies", "leads"}, 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, memberID.String(), claims.UserID)
	assert.Equal(t, ownerID.String(), claims.OwnerID)
	assert.Equal(t, AccountTypeTeamMember, claims.AccountType)
	assert.Equal(t, []string{"policies", "leads"}, claims.AllowedPages)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	SetJWTSecret("first-secret")
	token, err := GenerateJWT(uuid.New(), "a@b.com", "agent", AccountTypeUser, 1)
	require.NoError(t, err)

	SetJWTSecret("second-secret")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	userID := uuid.New()
	token, err := GenerateRefreshToken(userID, 1)
	require.NoError(t, err)

	subject, err := ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), subject)
}
