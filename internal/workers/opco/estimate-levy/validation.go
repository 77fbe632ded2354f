package estimatelevy

import "monopco-workers/internal/common/validation"

// Both the French process variable names and the English ones are accepted.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"identifier": {
				Type:        "string",
				Description: "SIRET of the establishment",
				MaxLength:   validation.IntPtr(32),
			},
			"siret": {
				Type:        "string",
				Description: "Alias of identifier",
				MaxLength:   validation.IntPtr(32),
			},
			"headcount": {
				Type:        "number",
				Description: "Number of employees",
			},
			"nombreEmployes": {
				Type:        "number",
				Description: "Alias of headcount",
			},
		},
	}
}
