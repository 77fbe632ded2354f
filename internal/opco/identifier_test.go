package opco

import (
	"testing"

	"monopco-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSIRET(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", "44306184100047", "44306184100047", false},
		{"valid with spaces", "443 061 841 00047", "44306184100047", false},
		{"valid with tabs and newline", "443061841\t00047\n", "44306184100047", false},
		{"too short", "123", "", true},
		{"letter inside", "4430618410004A", "", true},
		{"too long", "443061841000470", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateSIRET(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				stdErr, ok := errors.AsStandardError(err)
				require.True(t, ok)
				assert.Equal(t, errors.ErrCodeInvalidIdentifierFormat, stdErr.Code)
				assert.Equal(t, "Le SIRET doit contenir exactement 14 chiffres", stdErr.Message)
				assert.False(t, stdErr.Retryable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateSIREN(t *testing.T) {
	got, err := ValidateSIREN(" 443 061 841 ")
	require.NoError(t, err)
	assert.Equal(t, "443061841", got)

	_, err = ValidateSIREN("44306184")
	require.Error(t, err)
	stdErr, _ := errors.AsStandardError(err)
	assert.Equal(t, "Le SIREN doit contenir exactement 9 chiffres", stdErr.Message)
}

func TestValidateIdentifier_PicksByLength(t *testing.T) {
	siren, err := ValidateIdentifier("443061841")
	require.NoError(t, err)
	assert.Equal(t, "443061841", siren)

	siret, err := ValidateIdentifier("44306184100047")
	require.NoError(t, err)
	assert.Equal(t, "44306184100047", siret)

	_, err = ValidateIdentifier("12345")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidIdentifierFormat))
}

func TestValidateSIRET_RejectsNonASCIIDigits(t *testing.T) {
	// Arabic-Indic digits are unicode digits but not ASCII.
	_, err := ValidateSIRET("٤٤٣٠٦١٨٤١٠٠٠٤٧")
	assert.Error(t, err)
}
