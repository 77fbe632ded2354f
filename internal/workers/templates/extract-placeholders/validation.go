package extractplaceholders

import "monopco-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"corps"},
		Properties: map[string]validation.Property{
			"sujet": {
				Type:        "string",
				Description: "Template subject",
				MaxLength:   validation.IntPtr(500),
			},
			"corps": {
				Type:        "string",
				Description: "Template body",
			},
			"values": {
				Type:        "object",
				Description: "Placeholder values used to render a preview",
			},
			"save": {
				Type:        "object",
				Description: "Persist the template for this user",
				Required:    []string{"userId", "nom"},
				Properties: map[string]validation.Property{
					"templateId": {Type: "string"},
					"userId":     {Type: "string", MinLength: validation.IntPtr(1)},
					"nom":        {Type: "string", MinLength: validation.IntPtr(1), MaxLength: validation.IntPtr(200)},
				},
			},
		},
	}
}
