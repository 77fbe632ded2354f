package emailsend

import (
	"context"
	"time"

	"monopco-workers/internal/common/database"
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/models"
	"monopco-workers/internal/notify"
)

// Input is a user-authored email. When Values is set, {{name}} tokens in the
// subject and body are filled before sending.
type Input struct {
	UserID    string            `json:"userId,omitempty"`
	DossierID string            `json:"dossierId,omitempty"`
	To        string            `json:"to"`
	ReplyTo   string            `json:"replyTo,omitempty"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	IsHTML    bool              `json:"isHtml"`
	Values    map[string]string `json:"values,omitempty"`
}

type Output struct {
	EmailID        string    `json:"emailId,omitempty"`
	MessageID      string    `json:"messageId"`
	Provider       string    `json:"provider"`
	SentAt         time.Time `json:"sentAt"`
	NotificationID string    `json:"notificationId,omitempty"`
}

// Dispatcher is satisfied by *notify.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev models.NotificationEvent) notify.Result
}

type ServiceDependencies struct {
	Logger     logger.Logger
	Mailer     notify.Mailer
	Composer   *notify.Composer
	Store      database.Gateway
	Dispatcher Dispatcher
}
