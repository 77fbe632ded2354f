// internal/models/notification.go
package models

// Notification categories, as stored in notifications.type.
const (
	CategoryInfo    = "info"
	CategorySuccess = "success"
	CategoryWarning = "warning"
	CategoryError   = "error"
)

// Event kinds. Only NewDocument and StatusChange trigger an email.
const (
	KindNewDocument  = "new_document"
	KindStatusChange = "status_change"
	KindNewDossier   = "new_dossier"
	KindEmailSent    = "email_sent"
	KindGeneric      = "generic"
)

// Dossier statuses.
const (
	StatusPending    = "en_attente"
	StatusInProgress = "en_cours"
	StatusValidated  = "valide"
	StatusRefused    = "refuse"
)

// Recipient is who an email or SMS for the event goes to.
type Recipient struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// NotificationEvent is a domain event handed to the dispatcher. It carries no
// identity of its own.
type NotificationEvent struct {
	UserID    string                 `json:"userId"`
	Category  string                 `json:"category"`
	Kind      string                 `json:"kind"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Link      string                 `json:"link,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Recipient Recipient              `json:"recipient,omitempty"`
}

// NotificationPreferences mirrors a notification_preferences row.
type NotificationPreferences struct {
	UserID       string `json:"user_id"`
	EmailEnabled bool   `json:"email_enabled"`
	SMSEnabled   bool   `json:"sms_enabled"`
}
