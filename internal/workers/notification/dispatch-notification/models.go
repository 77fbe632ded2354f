package dispatchnotification

import (
	"context"

	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/models"
	"monopco-workers/internal/notify"
)

// Input carries the union of fields used by the event kinds. Which ones are
// read depends on Kind.
type Input struct {
	UserID    string                 `json:"userId"`
	Kind      string                 `json:"kind"`
	Recipient models.Recipient       `json:"recipient"`
	Category  string                 `json:"category,omitempty"`
	Title     string                 `json:"title,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Link      string                 `json:"link,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`

	DossierID    string `json:"dossierId,omitempty"`
	DossierName  string `json:"dossierName,omitempty"`
	DocumentName string `json:"documentName,omitempty"`
	OldStatus    string `json:"oldStatus,omitempty"`
	NewStatus    string `json:"newStatus,omitempty"`
	Subject      string `json:"subject,omitempty"`
}

type Output = notify.Result

// Dispatcher is satisfied by *notify.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev models.NotificationEvent) notify.Result
}

type ServiceDependencies struct {
	Logger     logger.Logger
	Dispatcher Dispatcher
}
