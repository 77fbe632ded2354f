package opco

import (
	"context"
	"fmt"
	"strconv"

	"monopco-workers/internal/common/errors"
	"monopco-workers/internal/models"
)

// LevyPolicy is the set of fiscal constants behind an estimation.
type LevyPolicy struct {
	AverageAnnualSalary float64
	SmallCompanyRate    float64
	StandardRate        float64
	HeadcountThreshold  int
}

// DefaultLevyPolicy returns the 2024 constants.
func DefaultLevyPolicy() LevyPolicy {
	return LevyPolicy{
		AverageAnnualSalary: 35000,
		SmallCompanyRate:    0.0055,
		StandardRate:        0.01,
		HeadcountThreshold:  11,
	}
}

// RateFor returns the small company rate strictly below the threshold.
func (p LevyPolicy) RateFor(headcount int) float64 {
	if headcount < p.HeadcountThreshold {
		return p.SmallCompanyRate
	}
	return p.StandardRate
}

// CompanyLookup resolves an identifier to a registry record.
type CompanyLookup interface {
	Lookup(ctx context.Context, identifier string) (*models.CompanyRecord, error)
}

// Estimator computes levy estimations. It holds no mutable state.
type Estimator struct {
	policy     LevyPolicy
	classifier *Classifier
}

func NewEstimator(policy LevyPolicy, classifier *Classifier) *Estimator {
	if classifier == nil {
		classifier = DefaultClassifier
	}
	return &Estimator{policy: policy, classifier: classifier}
}

func (e *Estimator) Policy() LevyPolicy { return e.policy }

func (e *Estimator) Classifier() *Classifier { return e.classifier }

// Estimate computes the levy for an already fetched company.
func (e *Estimator) Estimate(company models.CompanyRecord, headcount int) (*models.LevyEstimation, error) {
	if headcount <= 0 {
		return nil, errors.NewInvalidHeadcountError(headcount)
	}

	payroll := float64(headcount) * e.policy.AverageAnnualSalary
	rate := e.policy.RateFor(headcount)
	amount := payroll * rate

	return &models.LevyEstimation{
		Siret:       company.Siret,
		CompanyName: company.Name,
		NAFCode:     company.NAFCode,
		Sector:      company.SectorLabel(),
		Headcount:   headcount,
		PayrollMass: payroll,
		OPCO:        e.classifier.Classify(company.NAFCode),
		Amount:      amount,
		Rate:        rate,
		Trace: models.CalculationInfo{
			AverageAnnualSalary: e.policy.AverageAnnualSalary,
			RateUsed:            rate,
			Formula:             Formula(headcount, e.policy.AverageAnnualSalary, rate, amount),
		},
	}, nil
}

// EstimateBySiret validates siret and headcount, looks the company up and
// estimates. Lookup errors are returned unchanged.
func (e *Estimator) EstimateBySiret(ctx context.Context, lookup CompanyLookup, siret string, headcount int) (*models.LevyEstimation, error) {
	clean, err := ValidateSIRET(siret)
	if err != nil {
		return nil, err
	}
	if headcount <= 0 {
		return nil, errors.NewInvalidHeadcountError(headcount)
	}

	company, err := lookup.Lookup(ctx, clean)
	if err != nil {
		return nil, err
	}

	record := *company
	record.Siret = clean
	return e.Estimate(record, headcount)
}

// Formula renders the computation trace, e.g.
// "5 employés × 35000€ × 0.55% = 962.50€".
func Formula(headcount int, salary, rate, amount float64) string {
	return fmt.Sprintf("%d employés × %s€ × %.2f%% = %.2f€",
		headcount, strconv.FormatFloat(salary, 'f', -1, 64), rate*100, amount)
}
