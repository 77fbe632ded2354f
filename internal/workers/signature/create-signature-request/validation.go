package createsignaturerequest

import "monopco-workers/internal/common/validation"

var authenticationModes = []string{"no_otp", "otp_email", "otp_sms"}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"documentName", "signers"},
		Properties: map[string]validation.Property{
			"documentName": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
				MaxLength: validation.IntPtr(255),
			},
			"document": {
				Type:     "object",
				Required: []string{"filename", "content"},
				Properties: map[string]validation.Property{
					"filename": {Type: "string", MinLength: validation.IntPtr(1)},
					"content":  {Type: "string", MinLength: validation.IntPtr(1), Description: "Base64 encoded file"},
				},
			},
			"signers": {
				Type:        "array",
				Description: "Signers, added in this order",
				MinItems:    validation.IntPtr(1),
				Items: &validation.Property{
					Type:     "object",
					Required: []string{"firstName", "lastName", "email"},
					Properties: map[string]validation.Property{
						"firstName":          {Type: "string", MinLength: validation.IntPtr(1)},
						"lastName":           {Type: "string", MinLength: validation.IntPtr(1)},
						"email":              {Type: "string", MinLength: validation.IntPtr(3)},
						"phone":              {Type: "string"},
						"signatureLevel":     {Type: "string"},
						"authenticationMode": {Type: "string", Enum: authenticationModes},
					},
				},
			},
			"customNote": {Type: "string", MaxLength: validation.IntPtr(500)},
			"expiresAt":  {Type: "string"},
		},
	}
}
