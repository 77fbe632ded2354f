// internal/models/company.go
package models

// CompanyRecord is a company as returned by the registry. It is never
// persisted; each estimation fetches it again (or hits the cache).
type CompanyRecord struct {
	Siren          string  `json:"siren"`
	Siret          string  `json:"siret,omitempty"`
	Name           string  `json:"nom_entreprise"`
	Denomination   string  `json:"denomination,omitempty"`
	LegalForm      string  `json:"forme_juridique,omitempty"`
	NAFCode        string  `json:"code_naf"`
	NAFLabel       string  `json:"libelle_code_naf,omitempty"`
	ActivityDomain string  `json:"domaine_activite,omitempty"`
	CreationDate   string  `json:"date_creation,omitempty"`
	HeadOffice     Address `json:"siege"`
	Ceased         bool    `json:"entreprise_cessee"`
	CessationDate  string  `json:"date_cessation,omitempty"`
}

type Address struct {
	Line1      string `json:"adresse_ligne_1,omitempty"`
	Line2      string `json:"adresse_ligne_2,omitempty"`
	PostalCode string `json:"code_postal,omitempty"`
	City       string `json:"ville,omitempty"`
	Country    string `json:"pays,omitempty"`
	Complement string `json:"complement_adresse,omitempty"`
}

// SectorLabel is the human-readable sector, preferring the registry's
// activity domain over the NAF label.
func (c CompanyRecord) SectorLabel() string {
	if c.ActivityDomain != "" {
		return c.ActivityDomain
	}
	return c.NAFLabel
}
