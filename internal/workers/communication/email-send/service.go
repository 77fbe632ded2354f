package emailsend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"monopco-workers/internal/common/database"
	"monopco-workers/internal/common/errors"
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/notify"
	"monopco-workers/internal/placeholders"
)

const (
	providerSES = "SES"
	statusSent  = "envoye"
)

type Service struct {
	config     *Config
	logger     logger.Logger
	mailer     notify.Mailer
	composer   *notify.Composer
	store      database.Gateway
	dispatcher Dispatcher
	now        func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:     config,
		logger:     deps.Logger,
		mailer:     deps.Mailer,
		composer:   deps.Composer,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateAddresses(input); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	subject, body := input.Subject, input.Body
	if input.Values != nil {
		missing := placeholders.Missing(placeholders.ExtractTemplate(subject, body), input.Values)
		if len(missing) > 0 {
			return nil, errors.NewValidationError(fmt.Sprintf("unfilled placeholders: %s", strings.Join(missing, ", ")))
		}
		subject = placeholders.Render(subject, input.Values)
		body = placeholders.Render(body, input.Values)
	}

	msg := s.buildMessage(input, subject, body)

	s.logger.Info("Sending email", map[string]interface{}{
		"to":      input.To,
		"subject": subject,
		"userId":  input.UserID,
	})

	messageID, err := s.mailer.Send(ctx, msg)
	if err != nil {
		return nil, errors.NewEmailSendFailedError(providerSES, err)
	}

	out := &Output{MessageID: messageID, Provider: providerSES, SentAt: s.now().UTC()}

	// The message is already out, so history and notification failures are
	// logged rather than failing the job into a resend.
	if s.config.Persist && s.store != nil {
		id, err := s.store.Insert(ctx, "emails", emailRecord(input, subject, body, messageID, out.SentAt))
		if err != nil {
			s.logger.Error("Failed to record sent email", map[string]interface{}{
				"messageId": messageID,
				"error":     err.Error(),
			})
		} else {
			out.EmailID = id
		}
	}

	if input.UserID != "" && s.dispatcher != nil {
		res := s.dispatcher.Dispatch(ctx, notify.EmailSentEvent(input.UserID, input.To, subject))
		out.NotificationID = res.NotificationID
	}

	s.logger.Info("Email sent", map[string]interface{}{
		"to":        input.To,
		"messageId": messageID,
	})
	return out, nil
}

func (s *Service) buildMessage(input *Input, subject, body string) notify.Message {
	html, text := "", body
	if input.IsHTML {
		html, text = body, ""
	}

	var msg notify.Message
	if s.composer != nil {
		msg = s.composer.Custom(input.To, subject, html, text)
	} else {
		msg = notify.Message{To: []string{input.To}, Subject: subject, HTML: html, Text: text}
	}

	msg.ReplyTo = input.ReplyTo
	if msg.ReplyTo == "" {
		msg.ReplyTo = s.config.DefaultReplyTo
	}
	return msg
}

func emailRecord(input *Input, subject, body, messageID string, sentAt time.Time) database.Record {
	rec := database.Record{
		"destinataire": input.To,
		"sujet":        subject,
		"corps":        body,
		"statut":       statusSent,
		"message_id":   messageID,
		"date_envoi":   sentAt,
	}
	if input.UserID != "" {
		rec["user_id"] = input.UserID
	}
	if input.DossierID != "" {
		rec["dossier_id"] = input.DossierID
	}
	return rec
}

func validateAddresses(input *Input) error {
	if !isValidEmail(input.To) {
		return fmt.Errorf("invalid 'to' email address: %s", input.To)
	}
	if input.ReplyTo != "" && !isValidEmail(input.ReplyTo) {
		return fmt.Errorf("invalid 'replyTo' email address: %s", input.ReplyTo)
	}
	return nil
}

func isValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	return strings.Contains(parts[1], ".")
}
