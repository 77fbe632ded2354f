package estimatelevy

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"regexp"
	"testing"

	"monopco-workers/internal/common/database"
	"monopco-workers/internal/common/errors"
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/models"
	"monopco-workers/internal/opco"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) Lookup(ctx context.Context, identifier string) (*models.CompanyRecord, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CompanyRecord), args.Error(1)
}

type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) IndexEstimation(ctx context.Context, docID string, doc interface{}) error {
	return m.Called(ctx, docID, doc).Error(0)
}

const insertEstimation = "INSERT INTO opco_estimations (code_naf, created_at, formule, id, masse_salariale, montant, nom_entreprise, nombre_salaries, opco, secteur, siren, siret, taux) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)"

var softwareCo = &models.CompanyRecord{
	Siren:          "443061841",
	Name:           "SOFTWARE CO",
	NAFCode:        "62.02A",
	NAFLabel:       "Conseil en systèmes et logiciels informatiques",
	ActivityDomain: "Informatique",
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "opco-estimation",
		ElementId:          "Activity_EstimateLevy",
		CustomHeaders:      "{}",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func newService(t *testing.T, deps ServiceDependencies, cfg *Config) *Service {
	deps.Logger = logger.NewTestLogger(t)
	s := NewService(deps, cfg)
	s.newID = func() string { return "est-1" }
	return s
}

func TestHandler_ParseInput(t *testing.T) {
	h, err := NewHandler(HandlerOptions{
		CustomConfig: DefaultConfig(),
		Logger:       logger.NewTestLogger(t),
		Deps:         ServiceDependencies{Lookup: &MockLookup{}},
	})
	require.NoError(t, err)

	tests := []struct {
		name      string
		variables map[string]interface{}
		want      *Input
		errCode   errors.ErrorCode
	}{
		{
			name:      "english names",
			variables: map[string]interface{}{"identifier": "44306184100047", "headcount": 5},
			want:      &Input{Identifier: "44306184100047", Headcount: 5},
		},
		{
			name:      "french names",
			variables: map[string]interface{}{"siret": "44306184100047", "nombreEmployes": 50},
			want:      &Input{Identifier: "44306184100047", Headcount: 50},
		},
		{
			name:      "fractional headcount",
			variables: map[string]interface{}{"identifier": "44306184100047", "headcount": 2.5},
			errCode:   errors.ErrCodeInvalidHeadcount,
		},
		{
			name:      "zero headcount",
			variables: map[string]interface{}{"identifier": "44306184100047", "headcount": 0},
			errCode:   errors.ErrCodeInvalidHeadcount,
		},
		{
			name:      "negative headcount",
			variables: map[string]interface{}{"identifier": "44306184100047", "headcount": -3},
			errCode:   errors.ErrCodeInvalidHeadcount,
		},
		{
			name:      "headcount as string",
			variables: map[string]interface{}{"identifier": "44306184100047", "headcount": "5"},
			errCode:   errors.ErrCodeValidationFailed,
		},
		{
			name:      "missing identifier",
			variables: map[string]interface{}{"headcount": 5},
			errCode:   errors.ErrCodeValidationFailed,
		},
		{
			name:      "missing headcount",
			variables: map[string]interface{}{"identifier": "44306184100047"},
			errCode:   errors.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(createMockJob(7, tt.variables))
			if tt.errCode != "" {
				require.Error(t, err)
				assert.Equal(t, string(tt.errCode), errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, input)
		})
	}
}

func TestService_Execute_SmallCompany(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	lookup := &MockLookup{}
	lookup.On("Lookup", mock.Anything, "44306184100047").Return(softwareCo, nil)

	index := &MockIndexer{}
	index.On("IndexEstimation", mock.Anything, "est-1", mock.AnythingOfType("*models.LevyEstimation")).Return(nil)

	sqlMock.ExpectExec(regexp.QuoteMeta(insertEstimation)).
		WithArgs("62.02A", sqlmock.AnyArg(), "5 employés × 35000€ × 0.55% = 962.50€", "est-1",
			175000.0, sqlmock.AnyArg(), "SOFTWARE CO", 5, opco.OPCOEP, "Informatique", "443061841", "44306184100047", 0.0055).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s := newService(t, ServiceDependencies{
		Lookup: lookup,
		Store:  database.NewPostgresGateway(db, ""),
		Index:  index,
	}, DefaultConfig())

	out, err := s.Execute(context.Background(), &Input{Identifier: "44306184100047", Headcount: 5})
	require.NoError(t, err)

	assert.Equal(t, "est-1", out.EstimationID)
	assert.True(t, out.Defaulted)
	assert.Equal(t, opco.OPCOEP, out.Estimation.OPCO)
	assert.Equal(t, 175000.0, out.Estimation.PayrollMass)
	assert.Equal(t, 0.0055, out.Estimation.Rate)
	assert.InDelta(t, 962.5, out.Estimation.Amount, 1e-9)

	assert.NoError(t, sqlMock.ExpectationsWereMet())
	lookup.AssertExpectations(t)
	index.AssertExpectations(t)
}

func TestService_Execute_LargeCompanyWithoutStorage(t *testing.T) {
	lookup := &MockLookup{}
	lookup.On("Lookup", mock.Anything, "44306184100047").Return(softwareCo, nil)

	s := newService(t, ServiceDependencies{Lookup: lookup}, DefaultConfig())

	out, err := s.Execute(context.Background(), &Input{Identifier: "44306184100047", Headcount: 50})
	require.NoError(t, err)
	assert.Equal(t, 1750000.0, out.Estimation.PayrollMass)
	assert.Equal(t, 0.01, out.Estimation.Rate)
	assert.InDelta(t, 17500.0, out.Estimation.Amount, 1e-9)
}

func TestService_Execute_Failures(t *testing.T) {
	t.Run("invalid siret", func(t *testing.T) {
		lookup := &MockLookup{}
		s := newService(t, ServiceDependencies{Lookup: lookup}, DefaultConfig())

		_, err := s.Execute(context.Background(), &Input{Identifier: "123", Headcount: 5})
		assert.Equal(t, string(errors.ErrCodeInvalidIdentifierFormat), errors.CodeOf(err))
		lookup.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	})

	t.Run("registry rate limited", func(t *testing.T) {
		lookup := &MockLookup{}
		lookup.On("Lookup", mock.Anything, "44306184100047").
			Return(nil, errors.NewUpstreamRateLimitedError("pappers", "Limite de requêtes API atteinte"))
		s := newService(t, ServiceDependencies{Lookup: lookup}, DefaultConfig())

		_, err := s.Execute(context.Background(), &Input{Identifier: "44306184100047", Headcount: 5})
		stdErr, ok := errors.AsStandardError(err)
		require.True(t, ok)
		assert.True(t, stdErr.Retryable)
	})

	t.Run("insert failure is retryable", func(t *testing.T) {
		db, sqlMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		sqlMock.ExpectExec(regexp.QuoteMeta(insertEstimation)).WillReturnError(stderrors.New("connection reset"))

		lookup := &MockLookup{}
		lookup.On("Lookup", mock.Anything, "44306184100047").Return(softwareCo, nil)
		s := newService(t, ServiceDependencies{Lookup: lookup, Store: database.NewPostgresGateway(db, "")}, DefaultConfig())

		_, err = s.Execute(context.Background(), &Input{Identifier: "44306184100047", Headcount: 5})
		assert.Equal(t, string(errors.ErrCodeDatabaseInsertFailed), errors.CodeOf(err))
	})

	t.Run("index failure does not fail the job", func(t *testing.T) {
		lookup := &MockLookup{}
		lookup.On("Lookup", mock.Anything, "44306184100047").Return(softwareCo, nil)
		index := &MockIndexer{}
		index.On("IndexEstimation", mock.Anything, "est-1", mock.Anything).Return(stderrors.New("es down"))

		s := newService(t, ServiceDependencies{Lookup: lookup, Index: index}, DefaultConfig())

		out, err := s.Execute(context.Background(), &Input{Identifier: "44306184100047", Headcount: 5})
		require.NoError(t, err)
		assert.NotNil(t, out.Estimation)
	})
}

func TestEstimationRecord(t *testing.T) {
	rec := estimationRecord("id-1", &models.LevyEstimation{Siret: "44306184100047", OPCO: "ATLAS"})
	assert.Equal(t, "443061841", rec["siren"])
	assert.Equal(t, "ATLAS", rec["opco"])
	assert.Equal(t, "id-1", rec["id"])
}
