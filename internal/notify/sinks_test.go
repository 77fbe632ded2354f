package notify

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"monopco-workers/internal/common/database"
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSNS struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       []*sns.PublishInput
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

const (
	insertNotification = "INSERT INTO notifications (id, link, message, metadata, read, title, type, user_id) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)"
	selectPreferences  = "SELECT row_to_json(t) FROM notification_preferences t WHERE user_id = $1 LIMIT 1"
)

func prefsRow(json string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"row_to_json"}).AddRow([]byte(json))
}

func TestPersistenceSink(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ev := NewDocumentEvent("user-1", models.Recipient{}, "facture.pdf", "Formation", "d-1")

	sqlMock.ExpectExec(regexp.QuoteMeta(insertNotification)).
		WithArgs("notif-1", "/dossiers/d-1", ev.Message, sqlmock.AnyArg(), false, ev.Title, "info", "user-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	sink := NewPersistenceSink(database.NewPostgresGateway(db, ""))
	assert.True(t, sink.Accepts(ev))
	require.NoError(t, sink.Deliver(context.Background(), "notif-1", ev))
	assert.NoError(t, sqlMock.ExpectationsWereMet())

	assert.False(t, sink.Accepts(models.NotificationEvent{}), "no user, nothing to persist")
}

func TestEmailSink(t *testing.T) {
	to := models.Recipient{Email: "jean@example.com", Name: "Jean"}

	t.Run("sends when no preferences are stored", func(t *testing.T) {
		db, sqlMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		sqlMock.ExpectQuery(regexp.QuoteMeta(selectPreferences)).WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"row_to_json"}))

		client := &mockSES{}
		sink := NewEmailSink(NewSESMailer(client, "noreply@monopco.fr", ""), newTestComposer(t), database.NewPostgresGateway(db, ""))

		ev := StatusChangeEvent("user-1", to, "Formation", "d-1", "en_cours", "valide")
		require.True(t, sink.Accepts(ev))
		require.NoError(t, sink.Deliver(context.Background(), "n", ev))

		require.Len(t, client.calls, 1)
		assert.Equal(t, "🔔 Dossier \"Formation\" - Statut : Validé", aws.ToString(client.calls[0].Message.Subject.Data))
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("respects email opt-out", func(t *testing.T) {
		db, sqlMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		sqlMock.ExpectQuery(regexp.QuoteMeta(selectPreferences)).WithArgs("user-1").
			WillReturnRows(prefsRow(`{"email_enabled": false, "sms_enabled": false}`))

		client := &mockSES{}
		sink := NewEmailSink(NewSESMailer(client, "noreply@monopco.fr", ""), newTestComposer(t), database.NewPostgresGateway(db, ""))

		err = sink.Deliver(context.Background(), "n", NewDocumentEvent("user-1", to, "f.pdf", "Formation", "d-1"))
		assert.ErrorIs(t, err, errOptedOut)
		assert.Empty(t, client.calls)
	})

	t.Run("preference lookup failure still sends", func(t *testing.T) {
		db, sqlMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		sqlMock.ExpectQuery(regexp.QuoteMeta(selectPreferences)).WillReturnError(errors.New("connection reset"))

		client := &mockSES{}
		sink := NewEmailSink(NewSESMailer(client, "noreply@monopco.fr", ""), newTestComposer(t), database.NewPostgresGateway(db, ""))

		require.NoError(t, sink.Deliver(context.Background(), "n", NewDocumentEvent("user-1", to, "f.pdf", "Formation", "d-1")))
		assert.Len(t, client.calls, 1)
	})

	t.Run("not accepted without address or for silent kinds", func(t *testing.T) {
		sink := NewEmailSink(nil, nil, nil)
		assert.False(t, sink.Accepts(NewDocumentEvent("u", models.Recipient{}, "f", "d", "1")))
		assert.False(t, sink.Accepts(NewDossierEvent("u", "d", "1")))
	})
}

func TestSMSSink(t *testing.T) {
	to := models.Recipient{Phone: "+33612345678"}
	ev := StatusChangeEvent("user-1", to, "Formation", "d-1", "en_cours", "refuse")

	t.Run("sends when enabled", func(t *testing.T) {
		db, sqlMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		sqlMock.ExpectQuery(regexp.QuoteMeta(selectPreferences)).WithArgs("user-1").
			WillReturnRows(prefsRow(`{"email_enabled": true, "sms_enabled": true}`))

		client := &mockSNS{}
		sink := NewSMSSink(client, "MonOPCO", database.NewPostgresGateway(db, ""))

		require.True(t, sink.Accepts(ev))
		require.NoError(t, sink.Deliver(context.Background(), "n", ev))

		require.Len(t, client.calls, 1)
		in := client.calls[0]
		assert.Equal(t, "+33612345678", aws.ToString(in.PhoneNumber))
		assert.Equal(t, "MonOPCO - "+ev.Message, aws.ToString(in.Message))
		assert.Equal(t, "MonOPCO", aws.ToString(in.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
	})

	t.Run("off by default", func(t *testing.T) {
		db, sqlMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		sqlMock.ExpectQuery(regexp.QuoteMeta(selectPreferences)).WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"row_to_json"}))

		client := &mockSNS{}
		err = NewSMSSink(client, "", database.NewPostgresGateway(db, "")).Deliver(context.Background(), "n", ev)
		assert.ErrorIs(t, err, errOptedOut)
		assert.Empty(t, client.calls)
	})

	t.Run("only status changes", func(t *testing.T) {
		assert.False(t, NewSMSSink(nil, "", nil).Accepts(NewDocumentEvent("u", to, "f", "d", "1")))
	})
}

func TestDispatcher_WithRealSinks(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	gw := database.NewPostgresGateway(db, "")

	ev := StatusChangeEvent("user-1", models.Recipient{Email: "jean@example.com", Phone: "+33600000000"}, "Formation", "d-1", "en_cours", "valide")

	sqlMock.ExpectExec(regexp.QuoteMeta(insertNotification)).WillReturnResult(sqlmock.NewResult(1, 1))
	sqlMock.ExpectQuery(regexp.QuoteMeta(selectPreferences)).
		WillReturnRows(prefsRow(`{"email_enabled": true, "sms_enabled": true}`))
	sqlMock.ExpectQuery(regexp.QuoteMeta(selectPreferences)).
		WillReturnRows(prefsRow(`{"email_enabled": true, "sms_enabled": true}`))

	sesClient := &mockSES{SendEmailFunc: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		return nil, errors.New("MessageRejected")
	}}
	snsClient := &mockSNS{}

	d := NewDispatcher(logger.NewTestLogger(t),
		NewPersistenceSink(gw),
		NewEmailSink(NewSESMailer(sesClient, "noreply@monopco.fr", ""), newTestComposer(t), gw),
		NewSMSSink(snsClient, "", gw),
	)

	res := d.Dispatch(context.Background(), ev)

	assert.True(t, res.Acknowledged)
	assert.Equal(t, []string{SinkPersistence, SinkSMS}, res.Delivered)
	require.Len(t, res.SinkFailures, 1)
	assert.Equal(t, SinkEmail, res.SinkFailures[0].Sink)
	assert.Len(t, snsClient.calls, 1)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
