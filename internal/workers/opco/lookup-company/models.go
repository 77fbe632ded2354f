package lookupcompany

import (
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/models"
	"monopco-workers/internal/opco"
)

type Input struct {
	Identifier string `json:"identifier"`
}

type Output struct {
	IdentifierType string                `json:"identifierType"`
	Company        *models.CompanyRecord `json:"company"`
	OPCO           string                `json:"opco"`
}

type ServiceDependencies struct {
	Logger logger.Logger
	Lookup opco.CompanyLookup
}
