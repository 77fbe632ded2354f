package notify

import (
	"fmt"

	"monopco-workers/internal/models"
)

func dossierLink(dossierID string) string {
	return "/dossiers/" + dossierID
}

// NewDocumentEvent announces a document added to a dossier. It sends an email.
func NewDocumentEvent(userID string, to models.Recipient, documentName, dossierName, dossierID string) models.NotificationEvent {
	return models.NotificationEvent{
		UserID:   userID,
		Category: models.CategoryInfo,
		Kind:     models.KindNewDocument,
		Title:    "📄 Nouveau document",
		Message:  fmt.Sprintf("Le document \"%s\" a été ajouté au dossier \"%s\"", documentName, dossierName),
		Link:     dossierLink(dossierID),
		Metadata: map[string]interface{}{
			"documentName": documentName,
			"dossierName":  dossierName,
			"dossierId":    dossierID,
		},
		Recipient: to,
	}
}

// StatusChangeEvent announces a dossier status change. It sends an email.
func StatusChangeEvent(userID string, to models.Recipient, dossierName, dossierID, oldStatus, newStatus string) models.NotificationEvent {
	category := models.CategoryInfo
	switch newStatus {
	case models.StatusValidated:
		category = models.CategorySuccess
	case models.StatusRefused:
		category = models.CategoryError
	}

	return models.NotificationEvent{
		UserID:   userID,
		Category: category,
		Kind:     models.KindStatusChange,
		Title:    "🔔 Changement de statut",
		Message:  fmt.Sprintf("Le dossier \"%s\" est maintenant : %s", dossierName, StatusLabel(newStatus)),
		Link:     dossierLink(dossierID),
		Metadata: map[string]interface{}{
			"dossierName": dossierName,
			"dossierId":   dossierID,
			"oldStatus":   oldStatus,
			"newStatus":   newStatus,
		},
		Recipient: to,
	}
}

func NewDossierEvent(userID, dossierName, dossierID string) models.NotificationEvent {
	return models.NotificationEvent{
		UserID:   userID,
		Category: models.CategorySuccess,
		Kind:     models.KindNewDossier,
		Title:    "✅ Dossier créé",
		Message:  fmt.Sprintf("Le dossier \"%s\" a été créé avec succès", dossierName),
		Link:     dossierLink(dossierID),
		Metadata: map[string]interface{}{
			"dossierName": dossierName,
			"dossierId":   dossierID,
		},
	}
}

func EmailSentEvent(userID, recipient, subject string) models.NotificationEvent {
	return models.NotificationEvent{
		UserID:   userID,
		Category: models.CategorySuccess,
		Kind:     models.KindEmailSent,
		Title:    "📧 Email envoyé",
		Message:  fmt.Sprintf("Email envoyé à %s : \"%s\"", recipient, subject),
		Metadata: map[string]interface{}{
			"recipient": recipient,
			"subject":   subject,
		},
	}
}

// SendsEmail reports whether an event kind warrants a transactional email.
func SendsEmail(kind string) bool {
	return kind == models.KindNewDocument || kind == models.KindStatusChange
}

func metaString(ev models.NotificationEvent, key string) string {
	if ev.Metadata == nil {
		return ""
	}
	s, _ := ev.Metadata[key].(string)
	return s
}
