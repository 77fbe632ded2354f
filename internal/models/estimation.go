// internal/models/estimation.go
package models

// LevyEstimation is the result of one training levy estimation.
// Amount == PayrollMass * Rate exactly; rounding happens only when displayed.
type LevyEstimation struct {
	Siret       string          `json:"siret"`
	CompanyName string          `json:"nomEntreprise"`
	NAFCode     string          `json:"codeNaf"`
	Sector      string          `json:"secteurActivite"`
	Headcount   int             `json:"nombreEmployes"`
	PayrollMass float64         `json:"masseSalarialeEstimee"`
	OPCO        string          `json:"opcoIdentifie"`
	Amount      float64         `json:"montantEstime"`
	Rate        float64         `json:"tauxContribution"`
	Trace       CalculationInfo `json:"detailsCalcul"`
}

type CalculationInfo struct {
	AverageAnnualSalary float64 `json:"salaireMoyenAnnuel"`
	RateUsed            float64 `json:"tauxUtilise"`
	Formula             string  `json:"formule"`
}

// Draft is a ready-to-send pre-registration email.
type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
