package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	commonaws "monopco-workers/internal/common/aws"
	"monopco-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// Tag is an email tag, forwarded to SES as a message tag.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Message is a transactional email ready to send.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
	Tags    []Tag
}

// Mailer sends a Message and returns the provider message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SESMailer sends through Amazon SES.
type SESMailer struct {
	client           commonaws.SESAPI
	from             string
	configurationSet string
}

func NewSESMailer(client commonaws.SESAPI, from, configurationSet string) *SESMailer {
	return &SESMailer{client: client, from: from, configurationSet: configurationSet}
}

func (m *SESMailer) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("email has no recipient")
	}

	body := &types.Body{}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}

	input := &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: msg.To},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
		Source: aws.String(m.from),
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}
	// SES only accepts tags on sends bound to a configuration set.
	if m.configurationSet != "" {
		input.ConfigurationSetName = aws.String(m.configurationSet)
		for _, t := range msg.Tags {
			input.Tags = append(input.Tags, types.MessageTag{Name: aws.String(t.Name), Value: aws.String(t.Value)})
		}
	}

	out, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}

var statusColors = map[string]string{
	models.StatusPending:    "#ffc107",
	models.StatusInProgress: "#2196f3",
	models.StatusValidated:  "#4caf50",
	models.StatusRefused:    "#f44336",
}

var statusLabels = map[string]string{
	models.StatusPending:    "En attente",
	models.StatusInProgress: "En cours",
	models.StatusValidated:  "Validé",
	models.StatusRefused:    "Refusé",
}

// StatusLabel returns the French label, or the raw status when unknown.
func StatusLabel(status string) string {
	if l, ok := statusLabels[status]; ok {
		return l
	}
	return status
}

// StatusColor returns the badge colour for a dossier status.
func StatusColor(status string) string {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return "#667eea"
}

// Composer renders the product emails.
type Composer struct {
	DashboardURL string
	SupportEmail string

	pages map[string]*template.Template
	now   func() time.Time
}

func NewComposer(dashboardURL, supportEmail string) (*Composer, error) {
	c := &Composer{
		DashboardURL: dashboardURL,
		SupportEmail: supportEmail,
		pages:        map[string]*template.Template{},
		now:          time.Now,
	}
	for _, name := range []string{"welcome", "new_document", "status_change"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s email: %w", name, err)
		}
		c.pages[name] = t
	}
	return c, nil
}

type pageData struct {
	Title         string
	Heading       string
	CallToAction  string
	DashboardURL  string
	SupportEmail  string
	UserName      string
	To            string
	ShowRecipient bool
	Year          int

	DossierName  string
	DocumentName string
	StatusLabel  string
	StatusColor  string
}

func (c *Composer) base(to, userName string) pageData {
	return pageData{
		DashboardURL: c.DashboardURL,
		SupportEmail: c.SupportEmail,
		UserName:     userName,
		To:           to,
		Year:         c.now().Year(),
	}
}

func (c *Composer) render(page string, data pageData) (string, error) {
	var buf bytes.Buffer
	if err := c.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("render %s email: %w", page, err)
	}
	return buf.String(), nil
}

func (c *Composer) Welcome(to, userName string) (Message, error) {
	data := c.base(to, userName)
	data.Title = "Bienvenue sur MonOPCO"
	data.Heading = "Bienvenue sur MonOPCO ! 🎉"
	data.CallToAction = "Accéder à mon tableau de bord"
	data.ShowRecipient = true

	html, err := c.render("welcome", data)
	if err != nil {
		return Message{}, err
	}

	text := strings.Join([]string{
		"Bienvenue sur MonOPCO !",
		"",
		"Bonjour " + userName + ",",
		"",
		"Nous sommes ravis de vous accueillir sur MonOPCO, votre plateforme de gestion de formations professionnelles.",
		"",
		"Vous pouvez désormais :",
		"- Créer et gérer vos dossiers OPCO",
		"- Uploader et organiser vos documents",
		"- Envoyer des emails professionnels",
		"- Suivre l'avancement de vos demandes",
		"",
		"Accédez à votre tableau de bord : " + c.DashboardURL,
		"",
		"Besoin d'aide ? Contactez-nous à " + c.SupportEmail,
		"",
		fmt.Sprintf("© %d MonOPCO. Tous droits réservés.", data.Year),
	}, "\n")

	return Message{
		To:      []string{to},
		Subject: "🎉 Bienvenue sur MonOPCO !",
		HTML:    html,
		Text:    text,
		Tags:    []Tag{{"category", "welcome"}, {"user_type", "new"}},
	}, nil
}

func (c *Composer) NewDocument(to, userName, documentName, dossierName string) (Message, error) {
	data := c.base(to, userName)
	data.Title = "Nouveau document ajouté"
	data.Heading = "📄 Nouveau Document"
	data.CallToAction = "Voir le document"
	data.DocumentName = documentName
	data.DossierName = dossierName

	html, err := c.render("new_document", data)
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      []string{to},
		Subject: "📄 Nouveau document : " + documentName,
		HTML:    html,
		Tags:    []Tag{{"category", "notification"}, {"type", models.KindNewDocument}},
	}, nil
}

func (c *Composer) StatusChange(to, userName, dossierName, oldStatus, newStatus string) (Message, error) {
	label := StatusLabel(newStatus)

	data := c.base(to, userName)
	data.Title = "Changement de statut"
	data.Heading = "🔔 Changement de Statut"
	data.CallToAction = "Voir le dossier"
	data.DossierName = dossierName
	data.StatusLabel = label
	data.StatusColor = StatusColor(newStatus)

	html, err := c.render("status_change", data)
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      []string{to},
		Subject: fmt.Sprintf("🔔 Dossier \"%s\" - Statut : %s", dossierName, label),
		HTML:    html,
		Tags: []Tag{
			{"category", "notification"},
			{"type", models.KindStatusChange},
			{"new_status", newStatus},
		},
	}, nil
}

// Custom wraps user-authored content, e.g. a rendered email template.
func (c *Composer) Custom(to, subject, html, text string) Message {
	return Message{
		To:      []string{to},
		Subject: subject,
		HTML:    html,
		Text:    text,
		Tags:    []Tag{{"category", "custom"}},
	}
}
