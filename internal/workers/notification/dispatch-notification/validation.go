package dispatchnotification

import (
	"monopco-workers/internal/common/validation"
	"monopco-workers/internal/models"
)

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId", "kind"},
		Properties: map[string]validation.Property{
			"userId": {Type: "string", MinLength: validation.IntPtr(1)},
			"kind": {
				Type: "string",
				Enum: []string{
					models.KindNewDocument,
					models.KindStatusChange,
					models.KindNewDossier,
					models.KindEmailSent,
					models.KindGeneric,
				},
			},
			"category": {
				Type: "string",
				Enum: []string{models.CategoryInfo, models.CategorySuccess, models.CategoryWarning, models.CategoryError},
			},
			"recipient": {
				Type: "object",
				Properties: map[string]validation.Property{
					"email": {Type: "string"},
					"name":  {Type: "string"},
					"phone": {Type: "string"},
				},
			},
			"title":        {Type: "string", MaxLength: validation.IntPtr(200)},
			"message":      {Type: "string"},
			"link":         {Type: "string"},
			"metadata":     {Type: "object"},
			"dossierId":    {Type: "string"},
			"dossierName":  {Type: "string"},
			"documentName": {Type: "string"},
			"oldStatus":    {Type: "string"},
			"newStatus":    {Type: "string"},
			"subject":      {Type: "string"},
		},
	}
}
