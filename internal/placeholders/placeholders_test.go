package placeholders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"two tokens", "Bonjour {{prenom}} {{nom}}", []string{"prenom", "nom"}},
		{"empty", "", []string{}},
		{"dedup", "{{a}} {{a}} {{b}}", []string{"a", "b"}},
		{"digits and underscore", "{{date_debut}} {{ligne2}}", []string{"date_debut", "ligne2"}},
		{"single braces ignored", "{prenom} {{ nom }}", []string{}},
		{"no tokens", "Merci pour votre confiance.", []string{}},
		{"adjacent", "{{a}}{{b}}{{a}}", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}

func TestExtractTemplate_SubjectFirstThenBody(t *testing.T) {
	got := ExtractTemplate("Dossier {{dossier}} pour {{entreprise}}", "Bonjour {{prenom}}, le dossier {{dossier}} est prêt.")
	assert.Equal(t, []string{"dossier", "entreprise", "prenom"}, got)
}

func TestExtractTemplate_Empty(t *testing.T) {
	assert.Equal(t, []string{}, ExtractTemplate("", ""))
}

func TestRender(t *testing.T) {
	out := Render("Bonjour {{prenom}} {{nom}}, {{inconnu}}", map[string]string{
		"prenom": "Marie",
		"nom":    "Curie",
	})
	assert.Equal(t, "Bonjour Marie Curie, {{inconnu}}", out)
}

func TestMissing(t *testing.T) {
	tokens := []string{"prenom", "nom", "date"}
	assert.Equal(t, []string{"date"}, Missing(tokens, map[string]string{"prenom": "A", "nom": "B"}))
	assert.Equal(t, []string{}, Missing(nil, nil))
}
