// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserNotFound       = "auth.user_not_found"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthAccountLocked      = "auth.account_locked"
	KeyAuthSubscriptionEnded  = "auth.subscription_ended"

	// Policies
	KeyPolicyCreated   = "policy.created"
	KeyPolicyUpdated   = "policy.updated"
	KeyPolicyDeleted   = "policy.deleted"
	KeyPolicyRestored  = "policy.restored"
	KeyPolicyNotFound  = "policy.not_found"
	KeyPolicyDuplicate = "policy.duplicate_number"

	// Claims
	KeyClaimUpdated       = "claim.updated"
	KeyClaimSettled       = "claim.settled"
	KeyClaimInvalidAmount = "claim.invalid_amount"

	// Deletion requests
	KeyDeletionRequested     = "deletion.requested"
	KeyDeletionApproved      = "deletion.approved"
	KeyDeletionRejected      = "deletion.rejected"
	KeyDeletionNotFound      = "deletion.not_found"
	KeyDeletionAlreadyClosed = "deletion.already_closed"
	KeyDeletionBadPassword   = "deletion.password_mismatch"

	// Leads
	KeyLeadCreated       = "lead.created"
	KeyLeadUpdated       = "lead.updated"
	KeyLeadDeleted       = "lead.deleted"
	KeyLeadNotFound      = "lead.not_found"
	KeyLeadConverted     = "lead.converted"
	KeyFollowUpRecorded  = "lead.follow_up_recorded"
	KeyFollowUpNoteEmpty = "lead.follow_up_note_required"

	// Extraction
	KeyExtractionStarted   = "extraction.started"
	KeyExtractionTimeout   = "extraction.timeout"
	KeyExtractionNetwork   = "extraction.network_error"
	KeyExtractionBadJSON   = "extraction.invalid_response"
	KeyExtractionEmpty     = "extraction.empty_response"
	KeyExtractionTooMany   = "extraction.too_many_files"
	KeyExtractionExhausted = "extraction.batch_exhausted"
	KeyExtractionFailed    = "extraction.failed"

	// Team
	KeyTeamMemberCreated  = "team.member_created"
	KeyTeamMemberUpdated  = "team.member_updated"
	KeyTeamMemberRemoved  = "team.member_removed"
	KeyTeamMemberNotFound = "team.member_not_found"
	KeyTeamPageDenied     = "team.page_access_denied"

	// Payments
	KeyPaymentSuccess = "payment.success"
	KeyPaymentFailed  = "payment.failed"

	// Admin
	KeyAdminAccessDenied  = "admin.access_denied"
	KeyAdminUserLocked    = "admin.user_locked"
	KeyAdminUserUnlocked  = "admin.user_unlocked"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
	KeyFileInvalidType   = "file.invalid_type"
	KeyFileTooLarge      = "file.too_large"
)
