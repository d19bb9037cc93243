package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"macroscope.yaml": "name: shop\nadapter: postgres\n",
		"models/staging/stg_orders.sql": `{{ config(materialized='view') }}
select * from {{ source('raw', 'orders') }}`,
		"models/marts/orders.sql": `select {{ money(amount) }} from {{ ref('stg_orders') }}`,
		"macros/helpers.sql":      `{% macro money(col) %}round({{ col }}, 2){% endmacro %}`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	require.NoError(t, root.Execute(), "command failed: %s", buf.String())
	return buf.String()
}

func TestParseCommand(t *testing.T) {
	dir := writeTestProject(t)

	out := runCommand(t, "parse", "--project-dir", dir, "--no-state")

	assert.Contains(t, out, "marts.orders")
	assert.Contains(t, out, "staging.stg_orders")
	assert.Contains(t, out, "money")
	assert.Contains(t, out, "stg_orders")
	assert.Contains(t, out, "raw.orders")
	assert.Contains(t, out, "Parsed 2 models")
}

func TestParseCommand_State(t *testing.T) {
	dir := writeTestProject(t)
	statePath := filepath.Join(dir, "state.db")

	first := runCommand(t, "parse", "--project-dir", dir, "--state", statePath)
	assert.Contains(t, first, "Config changed since last parse:",
		"every model is new on the first stateful parse")

	second := runCommand(t, "parse", "--project-dir", dir, "--state", statePath)
	assert.NotContains(t, second, "Config changed since last parse:",
		"an unchanged project reports no config changes")
}

func TestDepsCommand(t *testing.T) {
	dir := writeTestProject(t)

	out := runCommand(t, "deps", "--project-dir", dir)

	assert.Contains(t, out, "[model] marts.orders")
	assert.Contains(t, out, "[source] raw.orders")
	assert.Contains(t, out, "[macro] shop.money")
	assert.Contains(t, out, "depends on:")
}

func TestParseCommand_Vars(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "macroscope.yaml"),
		[]byte("name: p\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models", "m.sql"),
		[]byte(`select {{ audit() }}, {{ checksum() }}`), 0644))

	out := runCommand(t, "parse", "--project-dir", dir, "--no-state",
		"--vars", "{audit: true}")

	assert.Contains(t, out, "checksum")
	assert.NotContains(t, out, "audit", "context-bound names are not reported as macro calls")
}

func TestVersionCommand(t *testing.T) {
	out := runCommand(t, "version")
	assert.Contains(t, out, "macroscope v")
}
