package dispatchnotification

import (
	"context"
	"fmt"

	"monopco-workers/internal/common/errors"
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/models"
	"monopco-workers/internal/notify"
)

type Service struct {
	logger     logger.Logger
	dispatcher Dispatcher
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{logger: deps.Logger, dispatcher: deps.Dispatcher}
}

// Execute only fails on a malformed event. Sink failures are reported in the
// result and never fail the job.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	ev, err := BuildEvent(input)
	if err != nil {
		return nil, err
	}

	res := s.dispatcher.Dispatch(ctx, ev)
	return &res, nil
}

// BuildEvent turns job input into a notification event using the builder
// for its kind.
func BuildEvent(in *Input) (models.NotificationEvent, error) {
	switch in.Kind {
	case models.KindNewDocument:
		if err := requireFields(in.Kind, "documentName", in.DocumentName, "dossierName", in.DossierName, "dossierId", in.DossierID); err != nil {
			return models.NotificationEvent{}, err
		}
		return notify.NewDocumentEvent(in.UserID, in.Recipient, in.DocumentName, in.DossierName, in.DossierID), nil

	case models.KindStatusChange:
		if err := requireFields(in.Kind, "dossierName", in.DossierName, "dossierId", in.DossierID, "newStatus", in.NewStatus); err != nil {
			return models.NotificationEvent{}, err
		}
		return notify.StatusChangeEvent(in.UserID, in.Recipient, in.DossierName, in.DossierID, in.OldStatus, in.NewStatus), nil

	case models.KindNewDossier:
		if err := requireFields(in.Kind, "dossierName", in.DossierName, "dossierId", in.DossierID); err != nil {
			return models.NotificationEvent{}, err
		}
		return notify.NewDossierEvent(in.UserID, in.DossierName, in.DossierID), nil

	case models.KindEmailSent:
		if err := requireFields(in.Kind, "recipient.email", in.Recipient.Email, "subject", in.Subject); err != nil {
			return models.NotificationEvent{}, err
		}
		return notify.EmailSentEvent(in.UserID, in.Recipient.Email, in.Subject), nil

	default:
		if err := requireFields(in.Kind, "title", in.Title, "message", in.Message); err != nil {
			return models.NotificationEvent{}, err
		}
		category := in.Category
		if category == "" {
			category = models.CategoryInfo
		}
		return models.NotificationEvent{
			UserID:    in.UserID,
			Category:  category,
			Kind:      models.KindGeneric,
			Title:     in.Title,
			Message:   in.Message,
			Link:      in.Link,
			Metadata:  in.Metadata,
			Recipient: in.Recipient,
		}, nil
	}
}

// requireFields takes name, value pairs and reports the first empty value.
func requireFields(kind string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return errors.NewValidationError(fmt.Sprintf("%s is required for kind %s", pairs[i], kind))
		}
	}
	return nil
}
