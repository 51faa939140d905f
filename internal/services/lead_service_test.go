// internal/services/lead_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policystack/agency-backend/internal/models"
)

func leadWithFollowUp(name string, status models.LeadStatus, followUp time.Time) models.Lead {
	return models.Lead{
		Name:         name,
		Status:       status,
		FollowUpDate: &followUp,
	}
}

func TestFilterFollowUpsBuckets(t *testing.T) {
	now := time.Date(2024, 6, 12, 10, 30, 0, 0, time.UTC) // a Wednesday
	today := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)

	leads := []models.Lead{
		leadWithFollowUp("due-today", models.LeadStatusContacted, today),
		leadWithFollowUp("due-tomorrow", models.LeadStatusNew, today.AddDate(0, 0, 1)),
		leadWithFollowUp("due-saturday", models.LeadStatusQuoted, today.AddDate(0, 0, 3)),
		leadWithFollowUp("due-next-month", models.LeadStatusNew, today.AddDate(0, 1, 0)),
		leadWithFollowUp("overdue-open", models.LeadStatusFollowUp, today.AddDate(0, 0, -2)),
		{Name: "no-date", Status: models.LeadStatusNew},
	}

	names := func(got []models.Lead) []string {
		out := make([]string, 0, len(got))
		for _, l := range got {
			out = append(out, l.Name)
		}
		return out
	}

	assert.Equal(t, []string{"due-today"}, names(FilterFollowUps(leads, BucketToday, nil, nil, now)))
	assert.Equal(t, []string{"due-tomorrow"}, names(FilterFollowUps(leads, BucketTomorrow, nil, nil, now)))
	assert.Equal(t, []string{"due-today", "due-tomorrow", "due-saturday"}, names(FilterFollowUps(leads, BucketThisWeek, nil, nil, now)))
	assert.Equal(t, []string{"overdue-open"}, names(FilterFollowUps(leads, BucketOverdue, nil, nil, now)))
}

func TestFilterFollowUpsOverdueExcludesClosedLeads(t *testing.T) {
	now := time.Date(2024, 6, 12, 10, 30, 0, 0, time.UTC)
	past := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	leads := []models.Lead{
		leadWithFollowUp("still-open", models.LeadStatusNegotiation, past),
		leadWithFollowUp("already-won", models.LeadStatusWon, past),
		leadWithFollowUp("already-lost", models.LeadStatusLost, past),
		leadWithFollowUp("walked-away", models.LeadStatusCanceled, past),
	}

	got := FilterFollowUps(leads, BucketOverdue, nil, nil, now)
	require.Len(t, got, 1)
	assert.Equal(t, "still-open", got[0].Name)
}

func TestFilterFollowUpsCustomRangeInclusive(t *testing.T) {
	now := time.Date(2024, 6, 12, 10, 30, 0, 0, time.UTC)
	from := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

	leads := []models.Lead{
		leadWithFollowUp("before", models.LeadStatusNew, from.AddDate(0, 0, -1)),
		leadWithFollowUp("on-start", models.LeadStatusNew, from),
		leadWithFollowUp("on-end", models.LeadStatusNew, to),
		leadWithFollowUp("after", models.LeadStatusNew, to.AddDate(0, 0, 1)),
	}

	got := FilterFollowUps(leads, BucketCustom, &from, &to, now)
	require.Len(t, got, 2)
	assert.Equal(t, "on-start", got[0].Name)
	assert.Equal(t, "on-end", got[1].Name)

	// Missing bounds yield nothing rather than everything.
	assert.Empty(t, FilterFollowUps(leads, BucketCustom, &from, nil, now))
	assert.Empty(t, FilterFollowUps(leads, BucketCustom, nil, &to, now))
}

func TestFilterFollowUpsSortedAscending(t *testing.T) {
	now := time.Date(2024, 6, 12, 10, 30, 0, 0, time.UTC)
	today := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)

	leads := []models.Lead{
		leadWithFollowUp("third", models.LeadStatusNew, today.AddDate(0, 0, 5)),
		leadWithFollowUp("first", models.LeadStatusNew, today),
		leadWithFollowUp("second", models.LeadStatusNew, today.AddDate(0, 0, 2)),
	}

	got := FilterFollowUps(leads, BucketThisWeek, nil, nil, now)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, "second", got[1].Name)
	assert.Equal(t, "third", got[2].Name)
}

func TestFilterFollowUpsUnknownBucket(t *testing.T) {
	now := time.Now()
	leads := []models.Lead{leadWithFollowUp("x", models.LeadStatusNew, now)}
	assert.Nil(t, FilterFollowUps(leads, FollowUpBucket("someday"), nil, nil, now))
}

func TestUpdateLeadRequestChanges(t *testing.T) {
	empty := ""
	source := "referral"
	status := models.LeadStatusQuoted

	// Absent fields touch nothing.
	assert.Empty(t, (&UpdateLeadRequest{}).changes())

	// An explicit empty string clears free-text fields.
	got := (&UpdateLeadRequest{Notes: &empty, Source: &empty}).changes()
	assert.Equal(t, "", got["notes"])
	assert.Equal(t, "", got["source"])

	got = (&UpdateLeadRequest{Name: "Asha", Source: &source, Status: &status}).changes()
	assert.Equal(t, "Asha", got["name"])
	assert.Equal(t, "referral", got["source"])
	assert.Equal(t, models.LeadStatusQuoted, got["status"])
	assert.NotContains(t, got, "notes")
}
