package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/txstore/internal/catalog"
	"github.com/roach88/txstore/internal/query"
	"github.com/roach88/txstore/internal/store"
)

func executeQuery(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewQueryCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestQueryPaging(t *testing.T) {
	out, err := executeQuery(t, "text", "Products", "--count", "--skip", "1", "--top", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "count: 6", lines[0])
	assert.Contains(t, lines[1], `"ID":2`)
	assert.Contains(t, lines[2], `"ID":3`)
}

func TestQueryReadOne(t *testing.T) {
	out, err := executeQuery(t, "text", "Products", "--key", "1")
	require.NoError(t, err)
	assert.Equal(t,
		`{"Description":"Notebook Basic, 1.7GHz - 15 XGA - 1024MB DDR2 SDRAM - 40GB","ID":1,"Name":"Notebook Basic 15"}`+"\n",
		out)
}

func TestQueryNavigation(t *testing.T) {
	out, err := executeQuery(t, "text", "Products", "--key", "ID=3", "--nav", catalog.NavCategory)
	require.NoError(t, err)
	assert.Equal(t, `{"ID":2,"Name":"Organizers"}`+"\n", out)
}

func TestQueryExpandJSON(t *testing.T) {
	out, err := executeQuery(t, "json", "Categories", "--top", "1", "--expand", catalog.NavProducts)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   QueryOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Categories", resp.Data.Set)
	assert.Nil(t, resp.Data.Count)
	require.Len(t, resp.Data.Records, 1)

	related, ok := resp.Data.Records[0][catalog.NavProducts].(map[string]any)
	require.True(t, ok, "expanded navigation should be inline")
	assert.Equal(t, float64(1), related["ID"])
}

func TestQueryOrderByDesc(t *testing.T) {
	out, err := executeQuery(t, "text", "Categories", "--orderby", "Name", "--desc")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Organizers")
	assert.Contains(t, lines[1], "Notebooks")
	assert.Contains(t, lines[2], "Monitors")
}

func TestQueryFilterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
method: contains
args:
  - {member: Name}
  - {literal: "'Basic'", type: Edm.String}
`), 0o644))

	out, err := executeQuery(t, "text", "Products", "--filter", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"ID":1`)
	assert.Contains(t, lines[1], `"ID":6`)
}

func TestQueryReset(t *testing.T) {
	out, err := executeQuery(t, "text", "Categories", "--reset", "2", "--count", "--top", "0")
	require.NoError(t, err)
	assert.Equal(t, "count: 1\n", out)
}

func TestQueryNotFound(t *testing.T) {
	out, err := executeQuery(t, "text", "Products", "--key", "99")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error ["+string(store.ErrCodeNotFound)+"]")
}

func TestQueryUnknownSet(t *testing.T) {
	out, err := executeQuery(t, "json", "Widgets")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(store.ErrCodeNotFound), resp.Error.Code)
}

func TestQueryBadFilterFile(t *testing.T) {
	_, err := executeQuery(t, "text", "Products", "--filter", filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestQueryNavWithoutKey(t *testing.T) {
	_, err := executeQuery(t, "text", "Products", "--nav", catalog.NavCategory)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--nav requires --key")
}

func TestParseKey(t *testing.T) {
	sch := catalog.Schema()

	key, err := parseKey(sch, catalog.SetProducts, "4")
	require.NoError(t, err)
	assert.Equal(t, store.IntKey("ID", 4), key)

	key, err = parseKey(sch, catalog.SetAdvertisements, "'f89dee73-af9f-4cd4-b330-db93c25ff3c7'")
	require.NoError(t, err)
	assert.Equal(t, store.StringKey("ID", "f89dee73-af9f-4cd4-b330-db93c25ff3c7"), key)

	_, err = parseKey(sch, catalog.SetProducts, "Name=x")
	assert.ErrorContains(t, err, "not a key property")

	_, err = parseKey(sch, "Widgets", "1")
	assert.True(t, store.IsNotFound(err))
}

func TestQueryNegativePaging(t *testing.T) {
	for _, flag := range []string{"--skip", "--top"} {
		out, err := executeQuery(t, "text", "Products", flag, "-3")
		require.Error(t, err, flag)
		assert.Equal(t, ExitFailure, GetExitCode(err), flag)
		assert.Contains(t, out, "Error ["+query.ErrCodeInvalidQueryOption+"]", flag)
		assert.NotContains(t, out, `"ID":1`, flag)
	}
}

func TestQueryNegativeReset(t *testing.T) {
	_, err := executeQuery(t, "text", "Products", "--reset", "-2")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, catalog.ErrInvalidAmount)
}
