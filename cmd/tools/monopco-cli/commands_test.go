package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIdentifier(t *testing.T) {
	out, err := run(t, "identifier", "443 061 841 00047")
	require.NoError(t, err)
	assert.Equal(t, "siret 44306184100047\n", out)

	out, err = run(t, "identifier", "443061841")
	require.NoError(t, err)
	assert.Equal(t, "siren 443061841\n", out)

	_, err = run(t, "identifier", "1234")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Le SIRET doit contenir exactement 14 chiffres")
}

func TestClassify(t *testing.T) {
	out, err := run(t, "classify", "64.19Z", "62.01Z")
	require.NoError(t, err)
	assert.Contains(t, out, "64.19Z\tATLAS\n")
	assert.Contains(t, out, "62.01Z\tOPCO EP\t(default)\n")
}

func TestEstimate_OfflineDraft(t *testing.T) {
	out, err := run(t, "estimate", "--siret", "44306184100047", "--headcount", "5",
		"--naf", "64.19Z", "--name", "ACME", "--draft")
	require.NoError(t, err)
	assert.Contains(t, out, "Pré-inscription OPCO - ACME (SIRET: 44306184100047)")
	assert.Contains(t, out, "OPCO identifié : ATLAS")
	assert.Contains(t, out, "Taux de contribution : 0.55%")
}

func TestEstimate_RejectsBadHeadcount(t *testing.T) {
	_, err := run(t, "estimate", "--siret", "44306184100047", "--headcount", "0", "--naf", "64.19Z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_HEADCOUNT")
}

func TestPlaceholders(t *testing.T) {
	out, err := run(t, "placeholders", "--subject", "Dossier {{dossier}}", "--body", "Bonjour {{nom}}, {{dossier}}",
		"--set", "nom=Jean")
	require.NoError(t, err)
	assert.Contains(t, out, "placeholders: dossier, nom\n")
	assert.Contains(t, out, "missing: dossier\n")
	assert.Contains(t, out, "Bonjour Jean, {{dossier}}")

	_, err = run(t, "placeholders", "--body", "x", "--set", "novalue")
	assert.Error(t, err)
}

func TestRegistryCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"activities": [
		{"id": "signature.request.track", "category": "signature", "taskType": "signature-request-track"},
		{"id": "opco.levy.estimate", "category": "opco", "taskType": "opco-levy-estimate"}
	]}`), 0o644))

	out, err := run(t, "registry", "validate", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 activities OK")

	out, err = run(t, "registry", "list", "--path", path)
	require.NoError(t, err)
	assert.Regexp(t, `(?s)opco\s+opco\.levy\.estimate\s+opco-levy-estimate.*signature\s+signature\.request\.track`, out)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"activities": [{"id": "Bad", "taskType": ""}]}`), 0o644))
	_, err = run(t, "registry", "validate", "--path", bad)
	assert.ErrorContains(t, err, "2 registry problem(s)")

	out, err = run(t, "registry", "set", "opco.levy.estimate", "status", "verified", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "opco.levy.estimate.status = verified")

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(saved), `"implementationStatus": "verified"`)

	_, err = run(t, "registry", "set", "opco.levy.estimate", "taskType", "x", "--path", path)
	assert.ErrorContains(t, err, "unknown field")
}

func TestRegistryFileShipsValid(t *testing.T) {
	_, err := run(t, "registry", "validate", "--path", filepath.Join("..", "..", "..", "configs", "activity-registry.json"))
	assert.NoError(t, err)
}
