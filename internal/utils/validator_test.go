// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type policyNumberProbe struct {
	Number string `validate:"required,policy_number"`
}

type phoneProbe struct {
	Phone string `validate:"omitempty,phone"`
}

type passwordProbe struct {
	Password string `validate:"required,strong_password"`
}

func TestPolicyNumberValidation(t *testing.T) {
	valid := []string{"PN-123", "MH/2024/001", "ABC_99", "a1b"}
	for _, n := range valid {
		assert.NoError(t, ValidateStruct(&policyNumberProbe{Number: n}), n)
	}

	invalid := []string{"ab", "has space", "semi;colon", "pct%20"}
	for _, n := range invalid {
		assert.Error(t, ValidateStruct(&policyNumberProbe{Number: n}), n)
	}
}

func TestPhoneValidation(t *testing.T) {
	valid := []string{"", "+919812345678", "9812345678", "1234567"}
	for _, p := range valid {
		assert.NoError(t, ValidateStruct(&phoneProbe{Phone: p}), p)
	}

	invalid := []string{"123", "abcdefgh", "+12 34 56 78", "12345678901234567890"}
	for _, p := range invalid {
		assert.Error(t, ValidateStruct(&phoneProbe{Phone: p}), p)
	}
}

func TestStrongPasswordValidation(t *testing.T) {
	assert.NoError(t, ValidateStruct(&passwordProbe{Password: "Str0ng!pass"}))

	weak := []string{"short1!", "alllowercase1!", "ALLUPPERCASE1!", "NoNumbers!", "NoSpecial123"}
	for _, p := range weak {
		assert.Error(t, ValidateStruct(&passwordProbe{Password: p}), p)
	}
}

func TestGetValidationErrors(t *testing.T) {
	err := ValidateStruct(&policyNumberProbe{Number: ""})
	require.Error(t, err)

	errs := GetValidationErrors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, "number", errs[0].Field)
	assert.Equal(t, "required", errs[0].Tag)
	assert.NotEmpty(t, errs[0].Message)
}
