package notify

import (
	"context"
	stderrors "errors"
	"fmt"

	commonaws "monopco-workers/internal/common/aws"
	"monopco-workers/internal/common/database"
	"monopco-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const (
	SinkPersistence = "persistence"
	SinkEmail       = "email"
	SinkSMS         = "sms"
)

// persistenceSink stores the event in the notifications table.
type persistenceSink struct {
	db database.Gateway
}

func NewPersistenceSink(db database.Gateway) Sink {
	return &persistenceSink{db: db}
}

func (s *persistenceSink) Name() string { return SinkPersistence }

func (s *persistenceSink) Accepts(ev models.NotificationEvent) bool { return ev.UserID != "" }

func (s *persistenceSink) Deliver(ctx context.Context, id string, ev models.NotificationEvent) error {
	rec := database.Record{
		"id":      id,
		"user_id": ev.UserID,
		"type":    ev.Category,
		"title":   ev.Title,
		"message": ev.Message,
		"read":    false,
	}
	if ev.Link != "" {
		rec["link"] = ev.Link
	}
	if len(ev.Metadata) > 0 {
		rec["metadata"] = ev.Metadata
	}
	_, err := s.db.Insert(ctx, "notifications", rec)
	return err
}

// preferences reads notification_preferences for the user. A missing row, or
// a failed read, yields email on and SMS off.
func preferences(ctx context.Context, db database.Gateway, userID string) models.NotificationPreferences {
	prefs := models.NotificationPreferences{UserID: userID, EmailEnabled: true}
	if db == nil || userID == "" {
		return prefs
	}

	rec, err := db.FetchOneBy(ctx, "notification_preferences", "user_id", userID)
	if err != nil {
		return prefs
	}
	if v, ok := rec["email_enabled"].(bool); ok {
		prefs.EmailEnabled = v
	}
	if v, ok := rec["sms_enabled"].(bool); ok {
		prefs.SMSEnabled = v
	}
	return prefs
}

// errOptedOut marks a delivery the user turned off. Sinks report it as skipped.
var errOptedOut = stderrors.New("recipient opted out")

type emailSink struct {
	mailer   Mailer
	composer *Composer
	db       database.Gateway
}

// NewEmailSink sends the transactional email for new_document and
// status_change events. db may be nil, in which case preferences are not read.
func NewEmailSink(mailer Mailer, composer *Composer, db database.Gateway) Sink {
	return &emailSink{mailer: mailer, composer: composer, db: db}
}

func (s *emailSink) Name() string { return SinkEmail }

func (s *emailSink) Accepts(ev models.NotificationEvent) bool {
	return SendsEmail(ev.Kind) && ev.Recipient.Email != ""
}

func (s *emailSink) Deliver(ctx context.Context, _ string, ev models.NotificationEvent) error {
	if !preferences(ctx, s.db, ev.UserID).EmailEnabled {
		return errOptedOut
	}

	var (
		msg Message
		err error
	)
	to := ev.Recipient.Email
	switch ev.Kind {
	case models.KindNewDocument:
		msg, err = s.composer.NewDocument(to, ev.Recipient.Name,
			metaString(ev, "documentName"), metaString(ev, "dossierName"))
	case models.KindStatusChange:
		msg, err = s.composer.StatusChange(to, ev.Recipient.Name,
			metaString(ev, "dossierName"), metaString(ev, "oldStatus"), metaString(ev, "newStatus"))
	default:
		return fmt.Errorf("no email for event kind %q", ev.Kind)
	}
	if err != nil {
		return err
	}

	_, err = s.mailer.Send(ctx, msg)
	return err
}

type smsSink struct {
	client   commonaws.SNSAPI
	senderID string
	db       database.Gateway
}

// NewSMSSink texts status changes to users who enabled SMS.
func NewSMSSink(client commonaws.SNSAPI, senderID string, db database.Gateway) Sink {
	return &smsSink{client: client, senderID: senderID, db: db}
}

func (s *smsSink) Name() string { return SinkSMS }

func (s *smsSink) Accepts(ev models.NotificationEvent) bool {
	return ev.Kind == models.KindStatusChange && ev.Recipient.Phone != ""
}

func (s *smsSink) Deliver(ctx context.Context, _ string, ev models.NotificationEvent) error {
	if !preferences(ctx, s.db, ev.UserID).SMSEnabled {
		return errOptedOut
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(ev.Recipient.Phone),
		Message:     aws.String(fmt.Sprintf("MonOPCO - %s", ev.Message)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	}
	if s.senderID != "" {
		input.MessageAttributes["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.senderID),
		}
	}

	_, err := s.client.Publish(ctx, input)
	return err
}
