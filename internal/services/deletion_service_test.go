// internal/services/deletion_service_test.go
package services

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/policystack/agency-backend/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func pendingRequestRows(requestID uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "policy_id", "policy_number", "requested_by", "reason", "status"}).
		AddRow(requestID.String(), uuid.New().String(), "POL-100", uuid.New().String(), "duplicate entry", "pending")
}

// A request that was already decided must not be decided again: the guarded
// update matches zero rows and the second rejection fails with a conflict.
func TestRejectSecondDecisionConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewDeletionService(db, NewActivityService(db))

	requestID := uuid.New()
	admin := RequestContext{ActorID: uuid.New(), IsAdmin: true}

	mock.ExpectQuery(`SELECT .+ FROM "policy_deletion_requests"`).
		WillReturnRows(pendingRequestRows(requestID))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "policy_deletion_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := service.Reject(admin, requestID, &ReviewDeletionRequest{})
	assert.True(t, errors.Is(err, ErrRequestAlreadyClosed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Approval races the same way: when the guarded update inside the
// transaction matches zero rows the whole transaction rolls back and the
// policy is never touched.
func TestApproveSecondDecisionRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewDeletionService(db, NewActivityService(db))

	requestID := uuid.New()
	admin := RequestContext{ActorID: uuid.New(), IsAdmin: true}

	mock.ExpectQuery(`SELECT .+ FROM "policy_deletion_requests"`).
		WillReturnRows(pendingRequestRows(requestID))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "policy_deletion_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := service.Approve(admin, requestID, &ReviewDeletionRequest{})
	assert.True(t, errors.Is(err, ErrRequestAlreadyClosed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectReturnsDecidedRequest(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewDeletionService(db, NewActivityService(db))

	requestID := uuid.New()
	admin := RequestContext{ActorID: uuid.New(), IsAdmin: true}

	mock.ExpectQuery(`SELECT .+ FROM "policy_deletion_requests"`).
		WillReturnRows(pendingRequestRows(requestID))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "policy_deletion_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT .+ FROM "policy_deletion_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "policy_number", "status", "review_comments"}).
			AddRow(requestID.String(), "POL-100", "rejected", "keep it"))

	request, err := service.Reject(admin, requestID, &ReviewDeletionRequest{Comments: "keep it"})
	require.NoError(t, err)
	assert.Equal(t, models.DeletionRequestStatusRejected, request.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectReloadFailureSurfaces(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewDeletionService(db, NewActivityService(db))

	requestID := uuid.New()
	admin := RequestContext{ActorID: uuid.New(), IsAdmin: true}

	mock.ExpectQuery(`SELECT .+ FROM "policy_deletion_requests"`).
		WillReturnRows(pendingRequestRows(requestID))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "policy_deletion_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT .+ FROM "policy_deletion_requests"`).
		WillReturnError(errors.New("connection reset"))

	_, err := service.Reject(admin, requestID, &ReviewDeletionRequest{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reload deletion request")
}

func TestReviewRequiresAdmin(t *testing.T) {
	db, _ := newMockDB(t)
	service := NewDeletionService(db, NewActivityService(db))

	agent := RequestContext{ActorID: uuid.New()}

	_, err := service.Approve(agent, uuid.New(), &ReviewDeletionRequest{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "admin")

	_, err = service.Reject(agent, uuid.New(), &ReviewDeletionRequest{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "admin")
}
