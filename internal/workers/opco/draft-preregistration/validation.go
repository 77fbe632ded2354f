package draftpreregistration

import "monopco-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"estimation"},
		Properties: map[string]validation.Property{
			"estimation": {
				Type:        "object",
				Description: "Levy estimation produced by opco-levy-estimate",
				Required:    []string{"siret", "nomEntreprise", "opcoIdentifie", "nombreEmployes"},
				Properties: map[string]validation.Property{
					"siret":          {Type: "string"},
					"nomEntreprise":  {Type: "string"},
					"opcoIdentifie":  {Type: "string"},
					"nombreEmployes": {Type: "integer", Minimum: validation.FloatPtr(1)},
					"montantEstime":  {Type: "number"},
				},
			},
		},
	}
}
