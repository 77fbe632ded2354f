package lookupcompany

import "monopco-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"identifier"},
		Properties: map[string]validation.Property{
			"identifier": {
				Type:        "string",
				Description: "SIRET (14 digits) or SIREN (9 digits), spaces allowed",
				MinLength:   validation.IntPtr(9),
				MaxLength:   validation.IntPtr(32),
			},
		},
	}
}
