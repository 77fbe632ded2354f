package opco

import (
	"fmt"
	"strings"

	"monopco-workers/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var frPrinter = message.NewPrinter(language.French)

// FormatAmount renders v with French grouping and decimal comma, up to three
// fraction digits ("1 750 000", "962,5").
func FormatAmount(v float64) string {
	return frPrinter.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// FormatDraft builds the pre-registration email sent to the OPCO.
func FormatDraft(est models.LevyEstimation) models.Draft {
	subject := fmt.Sprintf("Pré-inscription OPCO - %s (SIRET: %s)", est.CompanyName, est.Siret)

	var b strings.Builder
	b.WriteString("Bonjour,\n\n")
	b.WriteString("Nous souhaitons effectuer une pré-inscription auprès de votre OPCO pour notre entreprise.\n\n")
	b.WriteString("**Informations de l'entreprise :**\n")
	fmt.Fprintf(&b, "- Nom : %s\n", est.CompanyName)
	fmt.Fprintf(&b, "- SIRET : %s\n", est.Siret)
	fmt.Fprintf(&b, "- Code NAF : %s\n", est.NAFCode)
	fmt.Fprintf(&b, "- Secteur d'activité : %s\n", est.Sector)
	fmt.Fprintf(&b, "- Nombre d'employés : %d\n\n", est.Headcount)
	b.WriteString("**Estimation des droits de formation :**\n")
	fmt.Fprintf(&b, "- OPCO identifié : %s\n", est.OPCO)
	fmt.Fprintf(&b, "- Masse salariale estimée : %s€\n", FormatAmount(est.PayrollMass))
	fmt.Fprintf(&b, "- Taux de contribution : %.2f%%\n", est.Rate*100)
	fmt.Fprintf(&b, "- Montant estimé annuel : %s€\n\n", FormatAmount(est.Amount))
	b.WriteString("Nous souhaitons obtenir plus d'informations sur :\n")
	b.WriteString("- Les modalités de prise en charge de nos formations\n")
	b.WriteString("- Les démarches à effectuer pour bénéficier de nos droits\n")
	b.WriteString("- Les formations éligibles dans notre secteur\n\n")
	b.WriteString("Merci de nous recontacter pour finaliser notre inscription.\n\n")
	b.WriteString("Cordialement,\n")
	b.WriteString(est.CompanyName)

	return models.Draft{Subject: subject, Body: strings.TrimSpace(b.String())}
}
