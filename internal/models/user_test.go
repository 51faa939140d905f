// internal/models/user_test.go
package models

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPasswordHashing(t *testing.T) {
	user := &User{}
	require.NoError(t, user.SetPassword("Sup3rSecret!"))
	assert.NotEqual(t, "Sup3rSecret!", user.PasswordHash)
	assert.NoError(t, user.CheckPassword("Sup3rSecret!"))
	assert.Error(t, user.CheckPassword("wrong"))
}

func TestUserCanWrite(t *testing.T) {
	cases := []struct {
		status SubscriptionStatus
		want   bool
	}{
		{SubscriptionStatusTrial, true},
		{SubscriptionStatusActive, true},
		{SubscriptionStatusExpired, false},
		{SubscriptionStatusLocked, false},
	}
	for _, tc := range cases {
		user := &User{SubscriptionStatus: tc.status}
		assert.Equal(t, tc.want, user.CanWrite(), string(tc.status))
	}
}

func TestLeadStatusIsTerminal(t *testing.T) {
	for _, s := range []LeadStatus{LeadStatusWon, LeadStatusLost, LeadStatusCanceled} {
		assert.True(t, s.IsTerminal(), string(s))
	}
	for _, s := range []LeadStatus{LeadStatusNew, LeadStatusContacted, LeadStatusFollowUp, LeadStatusQuoted, LeadStatusNegotiation} {
		assert.False(t, s.IsTerminal(), string(s))
	}
}

func TestTeamMemberPageAccess(t *testing.T) {
	member := &TeamMember{
		AllowedPages: pq.StringArray{"policies", "leads"},
	}

	assert.True(t, member.HasPageAccess("policies"))
	assert.True(t, member.HasPageAccess("leads"))
	assert.False(t, member.HasPageAccess("claims"))
	assert.False(t, member.HasPageAccess(""))

	empty := &TeamMember{}
	assert.False(t, empty.HasPageAccess("policies"))
}
