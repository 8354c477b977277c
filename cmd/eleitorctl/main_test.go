package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/eleitores/internal/core"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseOverrides(t *testing.T) {
	got, err := parseOverrides([]string{"Fone=telefone", "a=b=cidade", "Obs="})
	require.NoError(t, err)
	assert.Equal(t, map[string]core.FieldKey{
		"Fone": core.FieldTelefone,
		"a=b":  core.FieldCidade,
		"Obs":  core.FieldIgnored,
	}, got)

	_, err = parseOverrides([]string{"telefone"})
	assert.Error(t, err)

	got, err = parseOverrides(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPreviewCmd_Text(t *testing.T) {
	path := writeFile(t, "contatos.csv", "Nome completo;Fone;Cidade\nMaria Silva;11999990000;SÃ£o Paulo\nSem Fone;;Santos\n")

	out, err := runCmd(t, "preview", path)
	require.NoError(t, err)

	assert.Contains(t, out, "contatos.csv")
	assert.Contains(t, out, "-> telefone")
	assert.Regexp(t, `ready\s+1`, out)
	assert.Regexp(t, `invalid\s+1`, out)
	assert.Contains(t, out, "line 3: telefone: telefone is required")
}

func TestPreviewCmd_JSON(t *testing.T) {
	path := writeFile(t, "contatos.csv", "Nome completo;Fone;Cidade\nMaria Silva;11999990000;SÃ£o Paulo\n")

	out, err := runCmd(t, "preview", "--json", path)
	require.NoError(t, err)

	var p core.Preview
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	require.Len(t, p.Ready, 1)
	// Free-text location fields are stored verbatim.
	assert.Equal(t, "SÃ£o Paulo", p.Ready[0].Fields.Cidade)
}

func TestPreviewCmd_Overrides(t *testing.T) {
	path := writeFile(t, "lista.csv", "Nome,Numero do zap\nMaria,11999990000\n")

	_, err := runCmd(t, "preview", "--map", "Numero do zap=", path)
	require.Error(t, err)
	var me *core.MappingError
	assert.ErrorAs(t, err, &me)

	out, err := runCmd(t, "preview", "--map", "Numero do zap=telefone", path)
	require.NoError(t, err)
	assert.Regexp(t, `ready\s+1`, out)
}

func TestPreviewCmd_UnsupportedFile(t *testing.T) {
	path := writeFile(t, "contatos.pdf", "%PDF-1.4")

	_, err := runCmd(t, "preview", path)
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestResetCmd_RequiresConfirmation(t *testing.T) {
	_, err := runCmd(t, "db", "reset")
	assert.ErrorIs(t, err, errNotConfirmed)
}
