package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formstate/pkg/schema"
)

const definitionYAML = `
id: product
fields:
  - name: productName
    required: true
    message: Product name is required
  - name: price
    type: number
    required: true
    rules:
      - kind: positive
        message: Price must be positive
  - name: releaseDate
    type: date
`

func runCLI(t *testing.T, fsys afero.Fs, args ...string) (string, error) {
	t.Helper()
	t.Setenv("FORMSTATE_LOG_LEVEL", "error")
	cmd := newRootCmd(fsys)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func testFS(t *testing.T, values string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "product.yaml", []byte(definitionYAML), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "values.yaml", []byte(values), 0o644))
	return fsys
}

func TestCheckReportsOrderedErrors(t *testing.T) {
	fsys := testFS(t, "price: -4\n")

	out, err := runCLI(t, fsys, "check", "--definition", "product.yaml", "--values", "values.yaml")
	require.ErrorIs(t, err, errInvalidValues)
	require.Equal(t, "productName: Product name is required\nprice: Price must be positive\n", out)
}

func TestCheckInvalidDateValue(t *testing.T) {
	fsys := testFS(t, "productName: Widget\nprice: 3\nreleaseDate: not-a-date\n")

	_, err := runCLI(t, fsys, "check", "-d", "product.yaml", "--values", "values.yaml")
	require.Error(t, err)
	require.NotErrorIs(t, err, errInvalidValues)
}

func TestCheckPassesAsJSON(t *testing.T) {
	fsys := testFS(t, `{"productName": "Widget", "price": 3, "releaseDate": "2024-02-28"}`)

	out, err := runCLI(t, fsys, "check", "-d", "product.yaml", "--values", "values.yaml", "--json")
	require.NoError(t, err)

	var failures []schema.FieldError
	require.NoError(t, json.Unmarshal([]byte(out), &failures))
	require.Empty(t, failures)
}

func TestCheckRequiresDefinitionSource(t *testing.T) {
	fsys := testFS(t, "price: 1\n")

	_, err := runCLI(t, fsys, "check", "--values", "values.yaml")
	require.Error(t, err)

	_, err = runCLI(t, fsys, "check", "--openapi", "api.json", "--values", "values.yaml")
	require.Error(t, err)
}
