package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terraledger/mrv-cli/internal/model"
)

const yamlFixture = `registry_id: goldstd
registry_name: Gold Standard
protocols:
  - protocol_id: ar_tree
    protocol_name: Afforestation
    formula_tree:
      node_id: net_corc
      node_name: Net CORC
      node_type: calculated
      children:
        - node_id: stand_data
          node_name: Stand Data
          node_type: input
          required_inputs:
            - field_id: stand_volume
              field_name: Stand Volume
              field_type: number
              unit: m3
              required: true
            - field_id: survey_date
              field_name: Survey Date
              field_type: date
              required: false
`

const jsonFixture = `{
  "registry_id": "climact",
  "registry_name": "Climate Action Reserve",
  "protocols": [
    {
      "protocol_id": "soil",
      "protocol_name": "Soil Enrichment",
      "formula_tree": {
        "node_id": "net_corc",
        "node_name": "Net CORC",
        "node_type": "calculated",
        "children": [
          {
            "node_id": "soc_data",
            "node_name": "SOC Data",
            "node_type": "input",
            "required_inputs": [
              {
                "field_id": "soc_delta",
                "field_name": "SOC Delta",
                "field_type": "number",
                "required": true
              }
            ]
          }
        ]
      }
    }
  ]
}`

func TestLoadRegistryFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goldstd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlFixture), 0o644))

	reg, err := LoadRegistryFile(path)
	require.NoError(t, err)
	assert.Equal(t, "goldstd", reg.ID)
	require.Len(t, reg.Protocols, 1)

	root := reg.Protocols[0].Root
	require.NotNil(t, root)
	assert.Equal(t, model.NodeCalculated, root.Type)
	require.Len(t, root.Children, 1)

	fields := root.Children[0].RequiredInputs
	require.Len(t, fields, 2)
	assert.Equal(t, "stand_volume", fields[0].ID)
	assert.True(t, fields[0].Required)
	assert.Equal(t, model.FieldDate, fields[1].Type)
	assert.False(t, fields[1].Required)
}

func TestLoadRegistryFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reg.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))

	_, err := LoadRegistryFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported fixture format")
}

func TestLoadDir_MergesBuiltinsAndFixtures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "goldstd.yaml"), []byte(yamlFixture), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "climact.json"), []byte(jsonFixture), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	cat, err := LoadDir(dir)
	require.NoError(t, err)

	// Builtins survive alongside the fixtures.
	_, ok := cat.Protocol("verra", "vm0042")
	assert.True(t, ok)
	_, ok = cat.Protocol("goldstd", "ar_tree")
	assert.True(t, ok)
	_, ok = cat.Protocol("climact", "soil")
	assert.True(t, ok)

	idx, ok := cat.FieldIndex("climact", "soil")
	require.True(t, ok)
	ref, ok := idx.ByID("soc_delta")
	require.True(t, ok)
	assert.Equal(t, "soc_data", ref.NodeID)
}

func TestLoadDir_EmptyDirLoadsBuiltins(t *testing.T) {
	cat, err := LoadDir("")
	require.NoError(t, err)
	assert.Len(t, cat.Registries(), 3)
}

func TestLoadDir_BadFixtureFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644))

	_, err := LoadDir(dir)
	require.Error(t, err)
}
