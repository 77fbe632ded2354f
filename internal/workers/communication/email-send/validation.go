package emailsend

import "monopco-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"to", "subject", "body"},
		Properties: map[string]validation.Property{
			"userId": {
				Type:        "string",
				Description: "Owner of the email, used for history and the in-app notification",
			},
			"dossierId": {
				Type:        "string",
				Description: "Dossier the email belongs to",
			},
			"to": {
				Type:        "string",
				Description: "Recipient email address",
				MinLength:   validation.IntPtr(5),
				MaxLength:   validation.IntPtr(255),
			},
			"replyTo": {
				Type:      "string",
				MaxLength: validation.IntPtr(255),
			},
			"subject": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
				MaxLength: validation.IntPtr(500),
			},
			"body": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
				MaxLength: validation.IntPtr(100000),
			},
			"isHtml": {
				Type: "boolean",
			},
			"values": {
				Type:        "object",
				Description: "Placeholder values keyed by token name",
			},
		},
	}
}
