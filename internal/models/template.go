// internal/models/template.go
package models

// EmailTemplate is a user email template. Placeholders is always derived from
// Subject and Body, never edited directly.
type EmailTemplate struct {
	ID           string   `json:"id,omitempty"`
	UserID       string   `json:"userId,omitempty"`
	Name         string   `json:"nom"`
	Subject      string   `json:"sujet"`
	Body         string   `json:"corps"`
	Placeholders []string `json:"placeholders"`
}
