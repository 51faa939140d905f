// internal/services/extraction_service_test.go
package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapPayloadEnvelopes(t *testing.T) {
	bare := []byte(`{"policy_number": "PN-1"}`)
	output := []byte(`{"output": {"policy_number": "PN-1"}}`)
	data := []byte(`{"data": {"policy_number": "PN-1"}}`)
	array := []byte(`[{"policy_number": "PN-1"}]`)

	for _, body := range [][]byte{bare, output, data, array} {
		payload, err := unwrapPayload(body)
		require.NoError(t, err)
		assert.Equal(t, "PN-1", payload["policy_number"])
	}
}

func TestUnwrapPayloadFailures(t *testing.T) {
	_, err := unwrapPayload([]byte(""))
	assert.True(t, errors.Is(err, ErrExtractionEmpty))

	_, err = unwrapPayload([]byte("   \n"))
	assert.True(t, errors.Is(err, ErrExtractionEmpty))

	_, err = unwrapPayload([]byte("{}"))
	assert.True(t, errors.Is(err, ErrExtractionEmpty))

	_, err = unwrapPayload([]byte("[]"))
	assert.True(t, errors.Is(err, ErrExtractionEmpty))

	_, err = unwrapPayload([]byte("<html>502 Bad Gateway</html>"))
	assert.True(t, errors.Is(err, ErrExtractionBadResponse))

	_, err = unwrapPayload([]byte(`"just a string"`))
	assert.True(t, errors.Is(err, ErrExtractionBadResponse))
}

func TestUnwrapPayloadNonObjectEnvelope(t *testing.T) {
	_, err := unwrapPayload([]byte(`{"output": []}`))
	assert.True(t, errors.Is(err, ErrExtractionBadResponse))

	_, err = unwrapPayload([]byte(`{"output": "text"}`))
	assert.True(t, errors.Is(err, ErrExtractionBadResponse))

	_, err = unwrapPayload([]byte(`{"data": 5}`))
	assert.True(t, errors.Is(err, ErrExtractionBadResponse))

	_, err = unwrapPayload([]byte(`{"output": null}`))
	assert.True(t, errors.Is(err, ErrExtractionEmpty))
}

func TestResolveFieldAliasEquivalence(t *testing.T) {
	snake := map[string]interface{}{"policy_number": "PN-9", "customer_name": "Asha"}
	camel := map[string]interface{}{"policyNumber": "PN-9", "customerName": "Asha"}

	assert.Equal(t, resolveField(snake, "policy_number"), resolveField(camel, "policy_number"))
	assert.Equal(t, resolveField(snake, "customer_name"), resolveField(camel, "customer_name"))
}

func TestResolveFieldFirstNonEmptyWins(t *testing.T) {
	payload := map[string]interface{}{
		"policy_number": "",
		"policyNumber":  "PN-2",
		"policy_no":     "PN-3",
	}
	assert.Equal(t, "PN-2", resolveField(payload, "policy_number"))
}

func TestNormalizeProductType(t *testing.T) {
	assert.Equal(t, "health", NormalizeProductType("Family Health Floater"))
	assert.Equal(t, "motor", NormalizeProductType("Private Car Package"))
	assert.Equal(t, "motor", NormalizeProductType("two wheeler comprehensive"))
	assert.Equal(t, "life", NormalizeProductType("Term Plan"))
	assert.Equal(t, "fire", NormalizeProductType("Standard Fire & Special Perils"))
	assert.Equal(t, "other", NormalizeProductType("Crop Insurance"))
	assert.Equal(t, "", NormalizeProductType("   "))
}

func TestMapExtraction(t *testing.T) {
	payload := map[string]interface{}{
		"policyNumber":       "MH/2024/001",
		"insured_name":       "Ravi Kumar",
		"mobile":             "+919812345678",
		"insurer":            "Acme General",
		"product":            "Private Car",
		"netPremium":         "12,500.50",
		"total_premium":      float64(14750),
		"sumInsured":         "Rs 4,50,000",
		"registration_no":    "MH12AB1234",
		"start_date":         "2024-04-01",
		"expiryDate":         "31/03/2025",
		"manufacturing_year": "2021",
	}

	req := MapExtraction(payload)

	assert.Equal(t, "MH/2024/001", req.PolicyNumber)
	assert.Equal(t, "Ravi Kumar", req.CustomerName)
	assert.Equal(t, "+919812345678", req.CustomerPhone)
	assert.Equal(t, "Acme General", req.InsurerName)
	assert.Equal(t, "motor", req.ProductType)
	assert.Equal(t, 12500.50, req.NetPremium)
	assert.Equal(t, float64(14750), req.TotalPremium)
	assert.Equal(t, float64(450000), req.SumInsured)
	assert.Equal(t, "MH12AB1234", req.VehicleNumber)
	assert.Equal(t, 2021, req.VehicleYear)

	require.NotNil(t, req.StartDate)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), *req.StartDate)
	require.NotNil(t, req.ExpiryDate)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), *req.ExpiryDate)
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 1250.75, parseAmount("₹1,250.75"))
	assert.Equal(t, float64(0), parseAmount(""))
	assert.Equal(t, float64(0), parseAmount("n/a"))
	assert.Equal(t, float64(980), parseAmount("980"))
}

func TestParseDateLayouts(t *testing.T) {
	for _, s := range []string{"2024-06-15", "15/06/2024", "15-06-2024", "15 Jun 2024"} {
		d := parseDate(s)
		require.NotNil(t, d, s)
		assert.Equal(t, 2024, d.Year())
		assert.Equal(t, time.June, d.Month())
		assert.Equal(t, 15, d.Day())
	}
	assert.Nil(t, parseDate("soonish"))
	assert.Nil(t, parseDate(""))
}
