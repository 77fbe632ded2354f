package opco

import (
	"context"
	"testing"

	"monopco-workers/internal/common/errors"
	"monopco-workers/internal/models"

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

func googleFrance() *models.CompanyRecord {
	return &models.CompanyRecord{
		Siren:          "443061841",
		Name:           "GOOGLE FRANCE",
		NAFCode:        "62.02A",
		ActivityDomain: "Programmation, conseil et autres activités informatiques",
	}
}

func TestEstimateBySiret_SmallCompany(t *testing.T) {
	lookup := new(MockLookup)
	lookup.On("Lookup", mock.Anything, "44306184100047").Return(googleFrance(), nil)

	est, err := NewEstimator(DefaultLevyPolicy(), nil).EstimateBySiret(context.Background(), lookup, "44306184100047", 5)
	require.NoError(t, err)

	assert.Equal(t, "44306184100047", est.Siret)
	assert.Equal(t, "GOOGLE FRANCE", est.CompanyName)
	assert.Equal(t, "62.02A", est.NAFCode)
	assert.Equal(t, OPCOEP, est.OPCO)
	assert.Equal(t, 175000.0, est.PayrollMass)
	assert.Equal(t, 0.0055, est.Rate)
	assert.InDelta(t, 962.5, est.Amount, 1e-9)
	assert.Equal(t, est.PayrollMass*est.Rate, est.Amount)
	assert.Equal(t, "5 employés × 35000€ × 0.55% = 962.50€", est.Trace.Formula)
	assert.Equal(t, 35000.0, est.Trace.AverageAnnualSalary)
	lookup.AssertExpectations(t)
}

func TestEstimateBySiret_LargeCompany(t *testing.T) {
	lookup := new(MockLookup)
	lookup.On("Lookup", mock.Anything, "44306184100047").Return(googleFrance(), nil)

	est, err := NewEstimator(DefaultLevyPolicy(), nil).EstimateBySiret(context.Background(), lookup, "44306184100047", 50)
	require.NoError(t, err)

	assert.Equal(t, 1750000.0, est.PayrollMass)
	assert.Equal(t, 0.01, est.Rate)
	assert.InDelta(t, 17500.0, est.Amount, 1e-9)
	assert.Equal(t, "50 employés × 35000€ × 1.00% = 17500.00€", est.Trace.Formula)
}

func TestRateFor_Threshold(t *testing.T) {
	p := DefaultLevyPolicy()

	assert.Equal(t, 0.0055, p.RateFor(1))
	assert.Equal(t, 0.0055, p.RateFor(10))
	assert.Equal(t, 0.01, p.RateFor(11))
	assert.Equal(t, 0.01, p.RateFor(250))
}

func TestEstimate_InvalidHeadcount(t *testing.T) {
	e := NewEstimator(DefaultLevyPolicy(), nil)

	for _, h := range []int{0, -3} {
		_, err := e.Estimate(*googleFrance(), h)
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidHeadcount))
	}
}

func TestEstimateBySiret_InvalidSiretSkipsLookup(t *testing.T) {
	lookup := new(MockLookup)

	_, err := NewEstimator(DefaultLevyPolicy(), nil).EstimateBySiret(context.Background(), lookup, "123", 5)

	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidIdentifierFormat))
	lookup.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestEstimateBySiret_PropagatesLookupErrors(t *testing.T) {
	lookup := new(MockLookup)
	lookup.On("Lookup", mock.Anything, "00000000000000").Return(nil, errors.NewCompanyNotFoundError("00000000000000"))

	est, err := NewEstimator(DefaultLevyPolicy(), nil).EstimateBySiret(context.Background(), lookup, "00000000000000", 10)

	assert.Nil(t, est)
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeCompanyNotFound, stdErr.Code)
	assert.Equal(t, "Entreprise non trouvée avec ce SIRET", stdErr.Message)
}

func TestEstimate_CustomPolicy(t *testing.T) {
	policy := LevyPolicy{AverageAnnualSalary: 40000, SmallCompanyRate: 0.005, StandardRate: 0.02, HeadcountThreshold: 20}

	est, err := NewEstimator(policy, nil).Estimate(*googleFrance(), 19)
	require.NoError(t, err)
	assert.Equal(t, 760000.0, est.PayrollMass)
	assert.Equal(t, 0.005, est.Rate)
	assert.Equal(t, "19 employés × 40000€ × 0.50% = 3800.00€", est.Trace.Formula)
}

func TestEstimate_SectorFallsBackToNAFLabel(t *testing.T) {
	company := models.CompanyRecord{Name: "X", NAFCode: "47.11A", NAFLabel: "Supérettes"}

	est, err := NewEstimator(DefaultLevyPolicy(), nil).Estimate(company, 3)
	require.NoError(t, err)
	assert.Equal(t, "Supérettes", est.Sector)
	assert.Equal(t, OPCOMMERCE, est.OPCO)
}
