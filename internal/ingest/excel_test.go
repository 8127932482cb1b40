package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/terraledger/mrv-cli/internal/model"
	"github.com/terraledger/mrv-cli/internal/registry"
	"github.com/terraledger/mrv-cli/internal/session"
)

func writeWorkbook(t *testing.T, rows [][2]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("fields")
	require.NoError(t, err)
	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r[0])
		row.AddCell().SetString(r[1])
	}
	path := filepath.Join(t.TempDir(), "import.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadWorkbook(t *testing.T) {
	path := writeWorkbook(t, [][2]string{
		{"field_id", "value"}, // header row
		{"gross_removal", "1000"},
		{"", "ignored"}, // blank id rows are dropped
		{"scope_1", "50"},
	})

	rows, err := ReadWorkbook(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{FieldID: "gross_removal", Raw: "1000"}, rows[0])
	assert.Equal(t, Row{FieldID: "scope_1", Raw: "50"}, rows[1])
}

func TestReadWorkbook_MissingFile(t *testing.T) {
	_, err := ReadWorkbook(filepath.Join(t.TempDir(), "absent.xlsx"))
	require.Error(t, err)
}

func TestApply(t *testing.T) {
	tr, err := session.New(registry.Builtin(), "proj-1", "verra", "vm0042")
	require.NoError(t, err)

	rep, err := Apply(tr, []Row{
		{FieldID: "gross_removal", Raw: "1000"},
		{FieldID: "scope_1", Raw: "50"},
		{FieldID: "measurement_date", Raw: "2026-03-15"},
		{FieldID: "mystery_field", Raw: "1"},      // unknown id
		{FieldID: "monitoring_report", Raw: "x"},  // file field
		{FieldID: "scope_2", Raw: "not a number"}, // bad coercion
	})
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Applied)
	require.Len(t, rep.Skipped, 3)
	assert.Contains(t, rep.Skipped[0], "mystery_field")
	assert.Contains(t, rep.Skipped[1], "upload")
	assert.Contains(t, rep.Skipped[2], "scope_2")

	s := tr.Session()
	assert.Equal(t, 1000.0, s.NumberOf("gross_removal"))
	assert.Equal(t, model.SourceExcel, s.Field("gross_removal").Source)
	assert.True(t, s.Filled("measurement_date"))
	assert.False(t, s.Filled("scope_2"))
}

func TestApply_EndToEnd(t *testing.T) {
	tr, err := session.New(registry.Builtin(), "proj-1", "puro", "biochar")
	require.NoError(t, err)

	path := writeWorkbook(t, [][2]string{
		{"biochar_mass", "120.5"},
		{"carbon_content", "82"},
		{"h_c_ratio", "0.4"},
	})
	rows, err := ReadWorkbook(path)
	require.NoError(t, err)

	rep, err := Apply(tr, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Applied)
	assert.Empty(t, rep.Skipped)
	assert.Equal(t, 120.5, tr.Session().NumberOf("biochar_mass"))
}
