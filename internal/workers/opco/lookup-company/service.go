package lookupcompany

import (
	"context"

	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/opco"
)

type Service struct {
	logger logger.Logger
	lookup opco.CompanyLookup
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{logger: deps.Logger, lookup: deps.Lookup}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	identifier, err := opco.ValidateIdentifier(input.Identifier)
	if err != nil {
		return nil, err
	}

	kind := "siret"
	if len(identifier) == 9 {
		kind = "siren"
	}

	company, err := s.lookup.Lookup(ctx, identifier)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Company resolved", map[string]interface{}{
		"identifier": identifier,
		"siren":      company.Siren,
		"codeNaf":    company.NAFCode,
	})

	return &Output{
		IdentifierType: kind,
		Company:        company,
		OPCO:           opco.DefaultClassifier.Classify(company.NAFCode),
	}, nil
}
