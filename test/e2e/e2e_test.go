//go:build e2e

// test/e2e/e2e_test.go
package e2e

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"monopco-workers/internal/common/database"
	"monopco-workers/internal/common/errors"
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/common/pappers"
	"monopco-workers/internal/models"
	"monopco-workers/internal/notify"
	"monopco-workers/internal/opco"
	"monopco-workers/internal/registrycache"
	emailsend "monopco-workers/internal/workers/communication/email-send"
	draftpreregistration "monopco-workers/internal/workers/opco/draft-preregistration"
	estimatelevy "monopco-workers/internal/workers/opco/estimate-levy"
	lookupcompany "monopco-workers/internal/workers/opco/lookup-company"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const consultingSiret = "44306184100047"

// recordingMailer stands in for SES.
type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg notify.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, msg)
	return "ses-msg-1", nil
}

type pipeline struct {
	lookups *atomic.Int32
	cache   *registrycache.Cache
	store   database.Gateway
	sqlMock sqlmock.Sqlmock
	mailer  *recordingMailer
	log     logger.Logger
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("siret") != consultingSiret {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{
			"siren": "443061841",
			"nom_entreprise": "CONSEIL ET GESTION",
			"code_naf": "70.22Z",
			"libelle_code_naf": "Conseil pour les affaires et autres conseils de gestion",
			"domaine_activite": "Conseil",
			"siege": {"code_postal": "75009", "ville": "PARIS"}
		}`))
	}))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	client := pappers.NewClient(srv.URL, "e2e-key", 2*time.Second)

	return &pipeline{
		lookups: &calls,
		cache:   registrycache.New(client, rdb, time.Hour, "company:", log),
		store:   database.NewPostgresGateway(db, ""),
		sqlMock: mock,
		mailer:  &recordingMailer{},
		log:     log,
	}
}

func TestPipeline_EstimateDraftAndSend(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	p.sqlMock.ExpectExec("INSERT INTO opco_estimations").WillReturnResult(sqlmock.NewResult(1, 1))
	p.sqlMock.ExpectExec("INSERT INTO emails").WillReturnResult(sqlmock.NewResult(1, 1))
	p.sqlMock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(1, 1))

	lookup := lookupcompany.NewService(lookupcompany.ServiceDependencies{Logger: p.log, Lookup: p.cache})
	found, err := lookup.Execute(ctx, &lookupcompany.Input{Identifier: "443 061 841 00047"})
	require.NoError(t, err)
	assert.Equal(t, "siret", found.IdentifierType)
	assert.Equal(t, opco.ATLAS, found.OPCO)

	estCfg := estimatelevy.DefaultConfig()
	estCfg.Index = false
	estimate := estimatelevy.NewService(estimatelevy.ServiceDependencies{
		Logger: p.log,
		Lookup: p.cache,
		Store:  p.store,
	}, estCfg)

	estimated, err := estimate.Execute(ctx, &estimatelevy.Input{Identifier: consultingSiret, Headcount: 50})
	require.NoError(t, err)
	assert.False(t, estimated.Defaulted)
	assert.Equal(t, opco.ATLAS, estimated.Estimation.OPCO)
	assert.InDelta(t, 1750000, estimated.Estimation.PayrollMass, 0.001)
	assert.InDelta(t, 17500, estimated.Estimation.Amount, 0.001)

	// the estimation reused the cached registry answer
	assert.Equal(t, int32(1), p.lookups.Load())

	draft, err := draftpreregistration.NewService(draftpreregistration.ServiceDependencies{Logger: p.log}).
		Execute(ctx, &draftpreregistration.Input{Estimation: *estimated.Estimation})
	require.NoError(t, err)
	assert.Equal(t, "Pré-inscription OPCO - CONSEIL ET GESTION (SIRET: 44306184100047)", draft.Subject)
	assert.Contains(t, draft.Body, "- OPCO identifié : ATLAS")

	dispatcher := notify.NewDispatcher(p.log, notify.NewPersistenceSink(p.store))
	send := emailsend.NewService(emailsend.ServiceDependencies{
		Logger:     p.log,
		Mailer:     p.mailer,
		Store:      p.store,
		Dispatcher: dispatcher,
	}, emailsend.DefaultConfig())

	sent, err := send.Execute(ctx, &emailsend.Input{
		UserID:  "user-1",
		To:      "contact@opco-atlas.fr",
		Subject: draft.Subject,
		Body:    draft.Body,
	})
	require.NoError(t, err)
	assert.Equal(t, "ses-msg-1", sent.MessageID)
	assert.NotEmpty(t, sent.EmailID)
	assert.NotEmpty(t, sent.NotificationID)

	require.Len(t, p.mailer.sent, 1)
	assert.Equal(t, []string{"contact@opco-atlas.fr"}, p.mailer.sent[0].To)
	assert.Equal(t, draft.Body, p.mailer.sent[0].Text)

	assert.NoError(t, p.sqlMock.ExpectationsWereMet())
}

func TestPipeline_UnknownCompanyIsNotCached(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	estimate := estimatelevy.NewService(estimatelevy.ServiceDependencies{
		Logger: p.log,
		Lookup: p.cache,
	}, estimatelevy.DefaultConfig())

	for i := 0; i < 2; i++ {
		_, err := estimate.Execute(ctx, &estimatelevy.Input{Identifier: "73282932000074", Headcount: 5})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeCompanyNotFound))
	}
	assert.Equal(t, int32(2), p.lookups.Load())
}

func TestPipeline_DocumentNotificationSurvivesMailerOutage(t *testing.T) {
	p := newPipeline(t)
	p.mailer.err = stderrors.New("ses throttled")

	composer, err := notify.NewComposer("https://monopco.fr/dashboard", "support@monopco.fr")
	require.NoError(t, err)

	p.sqlMock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(1, 1))
	p.sqlMock.ExpectQuery("SELECT row_to_json\\(t\\) FROM notification_preferences").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"row_to_json"}))

	dispatcher := notify.NewDispatcher(p.log,
		notify.NewPersistenceSink(p.store),
		notify.NewEmailSink(p.mailer, composer, p.store),
	)

	ev := notify.NewDocumentEvent("user-1",
		models.Recipient{Email: "marie@example.fr", Name: "Marie"},
		"Kbis.pdf", "Formation 2026", "dossier-9")
	res := dispatcher.Dispatch(context.Background(), ev)

	assert.True(t, res.Acknowledged)
	assert.Equal(t, []string{notify.SinkPersistence}, res.Delivered)
	require.Len(t, res.SinkFailures, 1)
	assert.Equal(t, notify.SinkEmail, res.SinkFailures[0].Sink)
	assert.Contains(t, res.SinkFailures[0].Error, "ses throttled")

	assert.NoError(t, p.sqlMock.ExpectationsWereMet())
}
