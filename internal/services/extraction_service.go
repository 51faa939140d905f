// internal/services/extraction_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/policystack/agency-backend/internal/config"
	"github.com/policystack/agency-backend/internal/models"
)

// Extraction failures are classified so the client can tell a slow
// extractor from a broken one from a useless answer.
var (
	ErrExtractionTimeout     = errors.New("extraction request timed out")
	ErrExtractionNetwork     = errors.New("extraction service unreachable")
	ErrExtractionBadResponse = errors.New("extraction service returned malformed data")
	ErrExtractionEmpty       = errors.New("extraction service returned no data")
)

type ExtractionService struct {
	db            *gorm.DB
	config        *config.Config
	storage       *StorageService
	policyService *PolicyService
	client        *http.Client
}

func NewExtractionService(db *gorm.DB, cfg *config.Config, storage *StorageService, policyService *PolicyService) *ExtractionService {
	return &ExtractionService{
		db:            db,
		config:        cfg,
		storage:       storage,
		policyService: policyService,
		// Timeout is enforced per request via context; the client-level
		// timeout is a backstop.
		client: &http.Client{Timeout: time.Duration(cfg.Extraction.Timeout)*time.Second + 5*time.Second},
	}
}

// fieldAliases maps each policy field to the source-key spellings the
// extractor has been seen to emit, in priority order. The first key with a
// non-empty value wins.
var fieldAliases = map[string][]string{
	"policy_number":  {"policy_number", "policyNumber", "policy_no", "policyNo"},
	"customer_name":  {"customer_name", "customerName", "insured_name", "insuredName", "name"},
	"customer_phone": {"customer_phone", "customerPhone", "phone", "mobile", "mobile_number", "mobileNumber"},
	"customer_email": {"customer_email", "customerEmail", "email"},
	"policy_type":    {"policy_type", "policyType"},
	"product_type":   {"product_type", "productType", "product", "line_of_business", "lineOfBusiness"},
	"business_type":  {"business_type", "businessType"},
	"insurer_name":   {"insurer_name", "insurerName", "insurer", "insurance_company", "insuranceCompany", "company_name", "companyName"},
	"start_date":     {"start_date", "startDate", "risk_start_date", "riskStartDate", "policy_start_date", "policyStartDate"},
	"expiry_date":    {"expiry_date", "expiryDate", "end_date", "endDate", "risk_end_date", "riskEndDate", "policy_end_date", "policyEndDate"},
	"issue_date":     {"issue_date", "issueDate", "issued_on", "issuedOn"},
	"od_premium":     {"od_premium", "odPremium", "own_damage_premium", "ownDamagePremium"},
	"tp_premium":     {"tp_premium", "tpPremium", "third_party_premium", "thirdPartyPremium"},
	"net_premium":    {"net_premium", "netPremium", "net_od_premium", "netOdPremium"},
	"gst_amount":     {"gst_amount", "gstAmount", "gst", "tax_amount", "taxAmount"},
	"total_premium":  {"total_premium", "totalPremium", "gross_premium", "grossPremium", "premium_amount", "premiumAmount", "premium"},
	"sum_insured":    {"sum_insured", "sumInsured", "idv", "insured_declared_value", "insuredDeclaredValue"},
	"vehicle_number": {"vehicle_number", "vehicleNumber", "registration_number", "registrationNumber", "registration_no", "registrationNo"},
	"vehicle_make":   {"vehicle_make", "vehicleMake", "make"},
	"vehicle_model":  {"vehicle_model", "vehicleModel", "model", "make_model", "makeModel"},
	"vehicle_year":   {"vehicle_year", "vehicleYear", "manufacturing_year", "manufacturingYear", "year"},
}

// productCategories in match order. Substrings are matched against the
// lowercased raw value; more specific categories come first.
var productCategories = []struct {
	keyword  string
	category string
}{
	{"health", "health"},
	{"mediclaim", "health"},
	{"life", "life"},
	{"term", "life"},
	{"motor", "motor"},
	{"vehicle", "motor"},
	{"car", "motor"},
	{"bike", "motor"},
	{"two wheeler", "motor"},
	{"commercial", "motor"},
	{"travel", "travel"},
	{"fire", "fire"},
	{"property", "fire"},
	{"marine", "marine"},
	{"personal accident", "personal_accident"},
	{"accident", "personal_accident"},
}

// NormalizeProductType maps a free-text product description onto a fixed
// category set. Unrecognized values pass through as "other".
func NormalizeProductType(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	for _, pc := range productCategories {
		if strings.Contains(lower, pc.keyword) {
			return pc.category
		}
	}
	return "other"
}

// unwrapPayload peels the envelope off the extractor's response. The
// extractor has shipped three shapes over time: {"output": {...}},
// {"data": {...}}, and a bare object.
func unwrapPayload(body []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ErrExtractionEmpty
	}

	var raw interface{}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionBadResponse, err)
	}

	// A top-level array means one result per file; take the first entry.
	if arr, ok := raw.([]interface{}); ok {
		if len(arr) == 0 {
			return nil, ErrExtractionEmpty
		}
		raw = arr[0]
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrExtractionBadResponse)
	}

	for _, envelope := range []string{"output", "data"} {
		inner, present := obj[envelope]
		if !present {
			continue
		}
		if inner == nil {
			return nil, ErrExtractionEmpty
		}
		innerObj, ok := inner.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %s envelope is not an object", ErrExtractionBadResponse, envelope)
		}
		obj = innerObj
		break
	}

	if len(obj) == 0 {
		return nil, ErrExtractionEmpty
	}

	return obj, nil
}

func resolveField(payload map[string]interface{}, canonical string) string {
	for _, key := range fieldAliases[canonical] {
		if v, ok := payload[key]; ok {
			s := stringify(v)
			if s != "" {
				return s
			}
		}
	}
	return ""
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return ""
	}
}

func parseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// MapExtraction turns an unwrapped extractor payload into a policy create
// request the user can review and edit before saving.
func MapExtraction(payload map[string]interface{}) *CreatePolicyRequest {
	req := &CreatePolicyRequest{
		PolicyNumber:  resolveField(payload, "policy_number"),
		CustomerName:  resolveField(payload, "customer_name"),
		CustomerPhone: resolveField(payload, "customer_phone"),
		CustomerEmail: resolveField(payload, "customer_email"),
		PolicyType:    resolveField(payload, "policy_type"),
		ProductType:   NormalizeProductType(resolveField(payload, "product_type")),
		BusinessType:  resolveField(payload, "business_type"),
		InsurerName:   resolveField(payload, "insurer_name"),
		StartDate:     parseDate(resolveField(payload, "start_date")),
		ExpiryDate:    parseDate(resolveField(payload, "expiry_date")),
		IssueDate:     parseDate(resolveField(payload, "issue_date")),
		ODPremium:     parseAmount(resolveField(payload, "od_premium")),
		TPPremium:     parseAmount(resolveField(payload, "tp_premium")),
		NetPremium:    parseAmount(resolveField(payload, "net_premium")),
		GSTAmount:     parseAmount(resolveField(payload, "gst_amount")),
		TotalPremium:  parseAmount(resolveField(payload, "total_premium")),
		SumInsured:    parseAmount(resolveField(payload, "sum_insured")),
		VehicleNumber: resolveField(payload, "vehicle_number"),
		VehicleMake:   resolveField(payload, "vehicle_make"),
		VehicleModel:  resolveField(payload, "vehicle_model"),
	}

	if year := resolveField(payload, "vehicle_year"); year != "" {
		if y, err := strconv.Atoi(year); err == nil {
			req.VehicleYear = y
		}
	}

	return req
}

// ExtractFromBytes sends one document to the extraction webhook and returns
// the unwrapped payload.
func (s *ExtractionService) ExtractFromBytes(ctx context.Context, fileName string, data []byte) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.config.Extraction.Timeout)*time.Second)
	defer cancel()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Extraction.WebhookURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrExtractionNetwork, resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	return unwrapPayload(respBody)
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrExtractionTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrExtractionTimeout
	}
	return fmt.Errorf("%w: %v", ErrExtractionNetwork, err)
}

// StartBatch stores the uploaded files and opens a batch. Files are worked
// one at a time in upload order; the first file is extracted immediately.
func (s *ExtractionService) StartBatch(ctx context.Context, rc RequestContext, files []*multipart.FileHeader) (*models.ExtractionBatch, *CreatePolicyRequest, error) {
	if len(files) == 0 {
		return nil, nil, errors.New("no files provided")
	}
	if len(files) > models.MaxExtractionFiles {
		return nil, nil, fmt.Errorf("too many files: %d exceeds the limit of %d", len(files), models.MaxExtractionFiles)
	}

	options := s.storage.GetDefaultUploadOptions(rc.ActorID, "extraction")

	batch := &models.ExtractionBatch{
		UserID:    rc.ActorID,
		FileCount: len(files),
	}

	for i, header := range files {
		file, err := header.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file %s: %w", header.Filename, err)
		}
		result, err := s.storage.UploadFile(file, header, options)
		file.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to store file %s: %w", header.Filename, err)
		}

		batch.Files = append(batch.Files, models.ExtractionFile{
			Position:   i,
			FileName:   header.Filename,
			StorageKey: result.Key,
			Status:     models.ExtractionFileStatusQueued,
		})
	}

	if err := s.db.Create(batch).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create extraction batch: %w", err)
	}

	prefill, err := s.processCurrent(ctx, batch)
	if err != nil {
		return batch, nil, err
	}

	return batch, prefill, nil
}

// GetBatch loads a batch with its files in order.
func (s *ExtractionService) GetBatch(rc RequestContext, batchID uuid.UUID) (*models.ExtractionBatch, error) {
	var batch models.ExtractionBatch
	if err := s.db.Preload("Files", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&batch, "id = ?", batchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("extraction batch not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if batch.UserID != rc.ActorID && !rc.IsAdmin {
		return nil, errors.New("unauthorized to view this batch")
	}

	return &batch, nil
}

// RetryCurrent re-runs extraction for the current file. Used after a
// timeout or network failure.
func (s *ExtractionService) RetryCurrent(ctx context.Context, rc RequestContext, batchID uuid.UUID) (*models.ExtractionBatch, *CreatePolicyRequest, error) {
	batch, err := s.GetBatch(rc, batchID)
	if err != nil {
		return nil, nil, err
	}

	prefill, err := s.processCurrent(ctx, batch)
	if err != nil {
		return batch, nil, err
	}
	return batch, prefill, nil
}

// processCurrent extracts the file at the batch cursor and records the
// outcome on its row.
func (s *ExtractionService) processCurrent(ctx context.Context, batch *models.ExtractionBatch) (*CreatePolicyRequest, error) {
	file, err := batch.CurrentFile()
	if err != nil {
		return nil, err
	}

	data, err := s.storage.GetFile(file.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}

	payload, err := s.ExtractFromBytes(ctx, file.FileName, data)
	if err != nil {
		s.markFileFailed(file, err)
		return nil, err
	}

	extracted := models.JSONB(payload)
	updates := map[string]interface{}{
		"status":         models.ExtractionFileStatusExtracted,
		"extracted_data": extracted,
		"error_message":  "",
	}
	if dbErr := s.db.Model(&models.ExtractionFile{}).Where("id = ?", file.ID).Updates(updates).Error; dbErr != nil {
		return nil, fmt.Errorf("failed to record extraction result: %w", dbErr)
	}
	file.Status = models.ExtractionFileStatusExtracted
	file.ExtractedData = extracted

	return MapExtraction(payload), nil
}

func (s *ExtractionService) markFileFailed(file *models.ExtractionFile, cause error) {
	updates := map[string]interface{}{
		"status":        models.ExtractionFileStatusFailed,
		"error_message": cause.Error(),
	}
	if err := s.db.Model(&models.ExtractionFile{}).Where("id = ?", file.ID).Updates(updates).Error; err != nil {
		logrus.WithError(err).WithField("file_id", file.ID).Error("Failed to record extraction failure")
	}
	file.Status = models.ExtractionFileStatusFailed
}

// ConfirmSave creates a policy from the reviewed form data, ties it to the
// current file and advances the cursor. The next file, if any, is extracted
// before returning so the caller gets the next prefill in one round trip.
func (s *ExtractionService) ConfirmSave(ctx context.Context, rc RequestContext, batchID uuid.UUID, req *CreatePolicyRequest) (*models.ExtractionBatch, *models.Policy, *CreatePolicyRequest, error) {
	batch, err := s.GetBatch(rc, batchID)
	if err != nil {
		return nil, nil, nil, err
	}

	file, err := batch.CurrentFile()
	if err != nil {
		return nil, nil, nil, err
	}
	if file.Status != models.ExtractionFileStatusExtracted {
		return nil, nil, nil, fmt.Errorf("current file %s has not been extracted", file.FileName)
	}

	policy, err := s.policyService.CreatePolicy(rc, req)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := s.db.Model(&models.ExtractionFile{}).Where("id = ?", file.ID).Updates(map[string]interface{}{
		"status":    models.ExtractionFileStatusSaved,
		"policy_id": policy.ID,
	}).Error; err != nil {
		// The policy exists at this point; callers must not report the
		// save itself as failed.
		return batch, policy, nil, fmt.Errorf("failed to mark file saved: %w", err)
	}
	file.Status = models.ExtractionFileStatusSaved
	file.PolicyID = &policy.ID

	nextPrefill, err := s.advance(ctx, batch)
	if err != nil {
		return batch, policy, nil, err
	}

	return batch, policy, nextPrefill, nil
}

// SkipCurrent abandons the current file and moves on. The file keeps its
// last status so the batch record shows what happened to it.
func (s *ExtractionService) SkipCurrent(ctx context.Context, rc RequestContext, batchID uuid.UUID) (*models.ExtractionBatch, *CreatePolicyRequest, error) {
	batch, err := s.GetBatch(rc, batchID)
	if err != nil {
		return nil, nil, err
	}

	if _, err := batch.CurrentFile(); err != nil {
		return nil, nil, err
	}

	prefill, err := s.advance(ctx, batch)
	if err != nil {
		return batch, nil, err
	}
	return batch, prefill, nil
}

// advance moves the cursor forward, persists it, and extracts the next file
// when one remains.
func (s *ExtractionService) advance(ctx context.Context, batch *models.ExtractionBatch) (*CreatePolicyRequest, error) {
	remaining := batch.Advance()

	updates := map[string]interface{}{"current_index": batch.CurrentIndex}
	if !remaining {
		now := time.Now()
		updates["completed_at"] = now
		batch.CompletedAt = &now
	}
	if err := s.db.Model(&models.ExtractionBatch{}).Where("id = ?", batch.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to advance batch: %w", err)
	}

	if !remaining {
		return nil, nil
	}

	return s.processCurrent(ctx, batch)
}
