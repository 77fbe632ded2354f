package tracksignaturerequest

import "monopco-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"signatureRequestId"},
		Properties: map[string]validation.Property{
			"signatureRequestId": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
			},
			"action": {
				Type:        "string",
				Description: "status (default) or cancel",
				Enum:        []string{ActionStatus, ActionCancel},
			},
			"reason": {
				Type:      "string",
				MaxLength: validation.IntPtr(255),
			},
		},
	}
}
