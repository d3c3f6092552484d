package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/txstore/internal/catalog"
	"github.com/roach88/txstore/internal/schema"
)

func writeSchema(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.cue"), []byte(src), 0o644))
	return dir
}

func executeValidate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateBuiltinCatalog(t *testing.T) {
	out, err := executeValidate(t, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "\u2713 Schema valid (3 entity types, 3 entity sets)")
}

func TestValidateSchemaDirectory(t *testing.T) {
	dir := writeSchema(t, catalog.SchemaSource())

	out, err := executeValidate(t, "json", dir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, "OData.Demo", resp.Data.Namespace)
	assert.Equal(t, 3, resp.Data.Sets)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := executeValidate(t, "text", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+schema.ErrCodeNotFound+"]")
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, err := executeValidate(t, "text", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, schema.ErrCodeNoFiles)
}

func TestValidateReportsErrors(t *testing.T) {
	dir := writeSchema(t, `
package bad

entityType: A: {key: ["ID"], properties: ID: int, navigation: Peer: type: "A"}
entityType: B: {key: ["ID"], properties: ID: int}
entitySet: As: {type: "A", bindings: Peer: "Bs"}
entitySet: Bs: type: "B"
`)

	out, err := executeValidate(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "\u2717 Validation failed")
	assert.Contains(t, out, schema.ErrBindingTypeMismatch)
}

func TestValidateReportsErrorsJSON(t *testing.T) {
	dir := writeSchema(t, `
package nokey

entityType: A: {properties: ID: int}
entitySet: As: type: "A"
`)

	out, err := executeValidate(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, schema.ErrNoKey, resp.Error.Code)
}

func TestValidateNoSets(t *testing.T) {
	dir := writeSchema(t, "package nosets\n\nentityType: A: {key: [\"ID\"], properties: ID: int}\n")

	out, err := executeValidate(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "no entity sets declared")
}

func TestValidateTooManyArgs(t *testing.T) {
	_, err := executeValidate(t, "text", "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts at most 1 arg")
}
