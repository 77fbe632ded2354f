// Package changefeed turns row changes from PostgreSQL LISTEN/NOTIFY into
// Zeebe messages so running processes can react to dossier activity.
package changefeed

import (
	"context"
	"fmt"
	"sync"

	"monopco-workers/internal/common/database"
	"monopco-workers/internal/common/logger"
)

// Message names correlated by the BPMN processes.
const (
	MessageDossierUpdated   = "dossier-updated"
	MessageDocumentUploaded = "document-uploaded"
)

// Publisher is satisfied by *camunda.Client.
type Publisher interface {
	PublishMessage(ctx context.Context, name, correlationKey string, variables map[string]interface{}) error
}

type Bridge struct {
	source    database.Gateway
	publisher Publisher
	logger    logger.Logger
}

func NewBridge(source database.Gateway, publisher Publisher, log logger.Logger) *Bridge {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Bridge{source: source, publisher: publisher, logger: log}
}

// Run subscribes to dossiers and documents and blocks until ctx is done or
// both feeds close.
func (b *Bridge) Run(ctx context.Context) error {
	feeds := map[string]<-chan database.Change{}
	for _, table := range []string{"dossiers", "documents"} {
		ch, err := b.source.Subscribe(ctx, table)
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", table, err)
		}
		feeds[table] = ch
	}

	var wg sync.WaitGroup
	for table, ch := range feeds {
		wg.Add(1)
		go func(table string, ch <-chan database.Change) {
			defer wg.Done()
			for change := range ch {
				b.forward(ctx, change)
			}
			b.logger.Info("Change feed closed", map[string]interface{}{"table": table})
		}(table, ch)
	}
	wg.Wait()
	return ctx.Err()
}

func (b *Bridge) forward(ctx context.Context, change database.Change) {
	name, key, vars, ok := toMessage(change)
	if !ok {
		return
	}
	if err := b.publisher.PublishMessage(ctx, name, key, vars); err != nil {
		b.logger.Error("Failed to publish change message", map[string]interface{}{
			"message":        name,
			"correlationKey": key,
			"error":          err.Error(),
		})
		return
	}
	b.logger.Debug("Published change message", map[string]interface{}{
		"message":        name,
		"correlationKey": key,
	})
}

// toMessage maps a change to a message. Inserts and deletes of dossiers and
// anything but document inserts are ignored.
func toMessage(change database.Change) (name, key string, vars map[string]interface{}, ok bool) {
	rec := change.Record
	str := func(k string) string {
		s, _ := rec[k].(string)
		return s
	}

	switch {
	case change.Table == "dossiers" && change.Operation == "UPDATE":
		return MessageDossierUpdated, change.ID, map[string]interface{}{
			"dossierId":   change.ID,
			"userId":      str("user_id"),
			"dossierName": str("titre"),
			"statut":      str("statut"),
		}, true

	case change.Table == "documents" && change.Operation == "INSERT":
		dossierID := str("dossier_id")
		if dossierID == "" {
			return "", "", nil, false
		}
		return MessageDocumentUploaded, dossierID, map[string]interface{}{
			"documentId":   change.ID,
			"dossierId":    dossierID,
			"userId":       str("user_id"),
			"documentName": str("nom"),
		}, true
	}
	return "", "", nil, false
}
