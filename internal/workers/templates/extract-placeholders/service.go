package extractplaceholders

import (
	"context"
	stderrors "errors"
	"time"

	"monopco-workers/internal/common/database"
	"monopco-workers/internal/common/errors"
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/placeholders"
)

const templatesTable = "email_templates"

type Service struct {
	logger logger.Logger
	store  database.Gateway
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{logger: deps.Logger, store: deps.Store}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	tokens := placeholders.ExtractTemplate(input.Subject, input.Body)

	out := &Output{
		Placeholders: tokens,
		Missing:      placeholders.Missing(tokens, input.Values),
	}

	if input.Values != nil {
		out.Preview = &Preview{
			Subject: placeholders.Render(input.Subject, input.Values),
			Body:    placeholders.Render(input.Body, input.Values),
		}
	}

	if input.Save != nil {
		id, err := s.save(ctx, input, tokens)
		if err != nil {
			return nil, err
		}
		out.TemplateID = id
	}

	return out, nil
}

// save updates the template when it exists and inserts it otherwise.
// Placeholders are always the derived list, never caller supplied.
func (s *Service) save(ctx context.Context, input *Input, tokens []string) (string, error) {
	if s.store == nil {
		return "", errors.NewInternalError("Template storage is not configured", stderrors.New("no gateway"))
	}

	now := time.Now().UTC()
	rec := database.Record{
		"nom":          input.Save.Name,
		"sujet":        input.Subject,
		"corps":        input.Body,
		"placeholders": tokens,
		"updated_at":   now,
	}

	if id := input.Save.TemplateID; id != "" {
		err := s.store.Update(ctx, templatesTable, id, rec)
		if err == nil {
			s.logger.Info("Template updated", map[string]interface{}{"templateId": id, "placeholders": len(tokens)})
			return id, nil
		}
		if !stderrors.Is(err, database.ErrNotFound) {
			return "", errors.NewQueryExecutionFailedError("template_update", err)
		}
		rec["id"] = id
	}

	rec["user_id"] = input.Save.UserID
	rec["created_at"] = now
	id, err := s.store.Insert(ctx, templatesTable, rec)
	if err != nil {
		return "", errors.NewDatabaseInsertFailedError(templatesTable, err)
	}

	s.logger.Info("Template created", map[string]interface{}{"templateId": id, "placeholders": len(tokens)})
	return id, nil
}
