package opco

// The eleven OPCOs.
const (
	AFDAS         = "AFDAS"
	AKTO          = "AKTO"
	ATLAS         = "ATLAS"
	Constructys   = "Constructys"
	OCAPIAT       = "OCAPIAT"
	OPCO2i        = "OPCO 2i"
	OPCOMobilites = "OPCO Mobilités"
	OPCOSante     = "OPCO Santé"
	OPCOEP        = "OPCO EP"
	Uniformation  = "Uniformation"
	OPCOMMERCE    = "OPCOMMERCE"

	// DefaultOPCO is the "entreprises de proximité" fallback.
	DefaultOPCO = OPCOEP
)

const sectorPrefixes = 2

// Classifier maps a NAF division (first two characters) to an OPCO.
// The table is built once and never written afterwards, so a Classifier is
// safe for concurrent use.
type Classifier struct {
	table map[string]string
}

// DefaultClassifier is shared by every worker.
var DefaultClassifier = NewClassifier()

func NewClassifier() *Classifier {
	groups := map[string][]string{
		AFDAS:         {"59", "60", "90", "91", "93"},
		AKTO:          {"78", "81", "82", "95"},
		ATLAS:         {"64", "65", "66", "69", "70"},
		Constructys:   {"41", "42", "43"},
		OCAPIAT:       {"01", "02", "03", "10", "11"},
		OPCO2i:        {"19", "20", "21", "22", "23", "24", "25", "26", "27", "28"},
		OPCOMobilites: {"45", "49", "50", "51"},
		OPCOSante:     {"86", "87", "88"},
		OPCOEP:        {"55", "56", "68", "77", "79", "92", "96"},
		Uniformation:  {"84", "85", "94"},
		OPCOMMERCE:    {"46", "47"},
	}

	table := make(map[string]string, 64)
	for opco, prefixes := range groups {
		for _, p := range prefixes {
			table[p] = opco
		}
	}
	return &Classifier{table: table}
}

// Classify never fails: unknown or short codes resolve to OPCO EP.
func (c *Classifier) Classify(nafCode string) string {
	if opco, ok := c.lookup(nafCode); ok {
		return opco
	}
	return DefaultOPCO
}

// IsDefaulted reports whether Classify fell back for this code.
func (c *Classifier) IsDefaulted(nafCode string) bool {
	_, ok := c.lookup(nafCode)
	return !ok
}

// OPCOs lists every OPCO that appears in the table.
func (c *Classifier) OPCOs() []string {
	return []string{AFDAS, AKTO, ATLAS, Constructys, OCAPIAT, OPCO2i, OPCOMobilites, OPCOSante, OPCOEP, Uniformation, OPCOMMERCE}
}

func (c *Classifier) lookup(nafCode string) (string, bool) {
	if len(nafCode) < sectorPrefixes {
		return "", false
	}
	opco, ok := c.table[nafCode[:sectorPrefixes]]
	return opco, ok
}
