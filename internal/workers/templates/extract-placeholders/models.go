package extractplaceholders

import (
	"monopco-workers/internal/common/database"
	"monopco-workers/internal/common/logger"
)

type Input struct {
	Subject string            `json:"sujet"`
	Body    string            `json:"corps"`
	Values  map[string]string `json:"values,omitempty"`

	// Save, when set, upserts the template into email_templates.
	Save *SaveRequest `json:"save,omitempty"`
}

type SaveRequest struct {
	TemplateID string `json:"templateId,omitempty"`
	UserID     string `json:"userId"`
	Name       string `json:"nom"`
}

type Preview struct {
	Subject string `json:"sujet"`
	Body    string `json:"corps"`
}

type Output struct {
	Placeholders []string `json:"placeholders"`
	Missing      []string `json:"missingPlaceholders"`
	Preview      *Preview `json:"preview,omitempty"`
	TemplateID   string   `json:"templateId,omitempty"`
}

type ServiceDependencies struct {
	Logger logger.Logger
	Store  database.Gateway
}
