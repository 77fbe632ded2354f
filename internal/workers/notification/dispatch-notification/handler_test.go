package dispatchnotification

import (
	"context"
	"encoding/json"
	"testing"

	"monopco-workers/internal/common/errors"
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/models"
	"monopco-workers/internal/notify"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, ev models.NotificationEvent) notify.Result {
	return m.Called(ctx, ev).Get(0).(notify.Result)
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:           key,
		Type:          TaskType,
		CustomHeaders: "{}",
		Retries:       3,
		Variables:     string(variablesJSON),
	}}
}

func newHandler(t *testing.T, d Dispatcher) *Handler {
	h, err := NewHandler(HandlerOptions{CustomConfig: DefaultConfig(), Logger: logger.NewTestLogger(t), Dispatcher: d})
	require.NoError(t, err)
	return h
}

func TestNewHandler_RequiresDispatcher(t *testing.T) {
	_, err := NewHandler(HandlerOptions{CustomConfig: DefaultConfig()})
	assert.ErrorContains(t, err, "dispatcher is required")
}

func TestHandler_ParseInput(t *testing.T) {
	h := newHandler(t, &MockDispatcher{})

	input, err := h.parseInput(createMockJob(1, map[string]interface{}{
		"userId":      "u-1",
		"kind":        "status_change",
		"dossierId":   "d-1",
		"dossierName": "Formation Excel",
		"oldStatus":   "en_cours",
		"newStatus":   "valide",
		"recipient":   map[string]interface{}{"email": "jean@example.com", "name": "Jean"},
		"unrelated":   42,
	}))
	require.NoError(t, err)
	assert.Equal(t, "status_change", input.Kind)
	assert.Equal(t, "jean@example.com", input.Recipient.Email)
	assert.Equal(t, "valide", input.NewStatus)

	tests := []struct {
		name      string
		variables map[string]interface{}
	}{
		{"missing user", map[string]interface{}{"kind": "generic"}},
		{"unknown kind", map[string]interface{}{"userId": "u", "kind": "sms_blast"}},
		{"unknown category", map[string]interface{}{"userId": "u", "kind": "generic", "category": "critical"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.parseInput(createMockJob(1, tt.variables))
			assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
		})
	}
}

func TestBuildEvent(t *testing.T) {
	tests := []struct {
		name    string
		input   Input
		title   string
		wantErr bool
	}{
		{
			name:  "new document",
			input: Input{UserID: "u", Kind: "new_document", DocumentName: "f.pdf", DossierName: "D", DossierID: "1"},
			title: "📄 Nouveau document",
		},
		{
			name:    "new document without dossier",
			input:   Input{UserID: "u", Kind: "new_document", DocumentName: "f.pdf"},
			wantErr: true,
		},
		{
			name:  "status change",
			input: Input{UserID: "u", Kind: "status_change", DossierName: "D", DossierID: "1", NewStatus: "refuse"},
			title: "🔔 Changement de statut",
		},
		{
			name:  "new dossier",
			input: Input{UserID: "u", Kind: "new_dossier", DossierName: "D", DossierID: "1"},
			title: "✅ Dossier créé",
		},
		{
			name:  "email sent",
			input: Input{UserID: "u", Kind: "email_sent", Recipient: models.Recipient{Email: "a@b.fr"}, Subject: "S"},
			title: "📧 Email envoyé",
		},
		{
			name:  "generic",
			input: Input{UserID: "u", Kind: "generic", Title: "Rappel", Message: "Pensez à signer"},
			title: "Rappel",
		},
		{
			name:    "generic without message",
			input:   Input{UserID: "u", Kind: "generic", Title: "Rappel"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := BuildEvent(&tt.input)
			if tt.wantErr {
				assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.title, ev.Title)
			assert.Equal(t, "u", ev.UserID)
		})
	}

	ev, err := BuildEvent(&Input{UserID: "u", Kind: "generic", Title: "t", Message: "m"})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryInfo, ev.Category)
}

func TestService_SinkFailuresDoNotFail(t *testing.T) {
	d := &MockDispatcher{}
	d.On("Dispatch", mock.Anything, mock.MatchedBy(func(ev models.NotificationEvent) bool {
		return ev.Kind == models.KindNewDocument && ev.Link == "/dossiers/d-1"
	})).Return(notify.Result{
		NotificationID: "n-1",
		Acknowledged:   true,
		Delivered:      []string{"persistence"},
		SinkFailures:   []notify.SinkFailure{{Sink: "email", Code: "NOTIFICATION_SINK_FAILURE", Error: "throttled"}},
	})

	out, err := newHandler(t, d).service.Execute(context.Background(), &Input{
		UserID: "u-1", Kind: "new_document", DocumentName: "f.pdf", DossierName: "D", DossierID: "d-1",
	})
	require.NoError(t, err)
	assert.True(t, out.Acknowledged)
	assert.Equal(t, "n-1", out.NotificationID)
	assert.Len(t, out.SinkFailures, 1)
	d.AssertExpectations(t)
}
