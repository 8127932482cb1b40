package gap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terraledger/mrv-cli/internal/model"
	"github.com/terraledger/mrv-cli/internal/registry"
	"github.com/terraledger/mrv-cli/internal/session"
)

// fiveNodeCatalog builds a catalog with five single-field input nodes,
// one of which also carries a required evidence file. Four complete
// nodes and one empty node average to exactly the default threshold.
func fiveNodeCatalog(t *testing.T) *registry.Catalog {
	t.Helper()
	children := []*model.FormulaNode{}
	for _, id := range []string{"n1", "n2", "n3", "n4"} {
		children = append(children, &model.FormulaNode{
			ID: id, Name: "Node " + id, Type: model.NodeInput,
			RequiredInputs: []model.InputField{
				{ID: id + "_v", Name: "Value " + id, Type: model.FieldNumber, Required: true},
			},
		})
	}
	children = append(children, &model.FormulaNode{
		ID: "n5", Name: "Evidence", Type: model.NodeInput,
		RequiredInputs: []model.InputField{
			{ID: "n5_doc", Name: "Audit Report", Type: model.FieldFile, Required: true},
		},
	})

	cat, err := registry.NewCatalog(registry.Registry{
		ID: "testreg", Name: "Test Registry",
		Protocols: []registry.Protocol{{
			ID: "five", Name: "Five Nodes",
			Root: &model.FormulaNode{
				ID: "net_corc", Name: "Net CORC", Type: model.NodeCalculated,
				Children: children,
			},
		}},
	})
	require.NoError(t, err)
	return cat
}

func TestAnalyze_ProtocolNotFound(t *testing.T) {
	a := New(registry.Builtin(), 0)
	ga := a.Analyze("verra", "missing", nil)

	assert.Zero(t, ga.CompletenessScore)
	assert.False(t, ga.CanProceed)
	assert.Equal(t, []string{"Protocol not found"}, ga.Recommendations)
	assert.NotNil(t, ga.MissingRequiredFields)
	assert.NotNil(t, ga.NodeAnalysis)
}

func TestAnalyze_EmptySession(t *testing.T) {
	cat := registry.Builtin()
	tr, err := session.New(cat, "proj-1", "verra", "vm0042")
	require.NoError(t, err)

	ga := New(cat, 0).Analyze("verra", "vm0042", tr.Session())
	assert.Zero(t, ga.CompletenessScore)
	assert.False(t, ga.CanProceed)
	assert.Contains(t, ga.MissingRequiredFields, "Removal Data.Gross Removal")
	assert.Contains(t, ga.MissingEvidenceTypes, "Monitoring Report")
}

func TestAnalyze_ScoreAtThresholdStillGatedOnRequired(t *testing.T) {
	cat := fiveNodeCatalog(t)
	tr, err := session.New(cat, "proj-1", "testreg", "five")
	require.NoError(t, err)
	for _, id := range []string{"n1_v", "n2_v", "n3_v", "n4_v"} {
		_, err := tr.UpdateField(id, model.Number(1), model.SourceManual)
		require.NoError(t, err)
	}

	ga := New(cat, 0).Analyze("testreg", "five", tr.Session())

	assert.Equal(t, 80, ga.CompletenessScore, "four of five nodes complete")
	assert.False(t, ga.CanProceed, "a missing required field always blocks")
	assert.Equal(t, []string{"Evidence.Audit Report"}, ga.MissingRequiredFields)
	assert.Equal(t, []string{"Audit Report"}, ga.MissingEvidenceTypes)
	assert.Equal(t, []string{
		"Complete 1 required field(s)",
		"Upload 1 required document(s)",
	}, ga.Recommendations)
}

func TestAnalyze_FullyFilledProceeds(t *testing.T) {
	cat := fiveNodeCatalog(t)
	tr, err := session.New(cat, "proj-1", "testreg", "five")
	require.NoError(t, err)
	for _, id := range []string{"n1_v", "n2_v", "n3_v", "n4_v"} {
		_, err := tr.UpdateField(id, model.Number(1), model.SourceManual)
		require.NoError(t, err)
	}
	_, err = tr.UploadFile("n5_doc", model.UploadedFile{FileName: "audit.pdf", FileType: "pdf"})
	require.NoError(t, err)

	ga := New(cat, 0).Analyze("testreg", "five", tr.Session())

	assert.Equal(t, 100, ga.CompletenessScore)
	assert.True(t, ga.CanProceed)
	assert.Empty(t, ga.MissingRequiredFields)
	assert.Empty(t, ga.Recommendations)

	for id, na := range ga.NodeAnalysis {
		assert.True(t, na.Complete, "node %s", id)
		assert.Equal(t, 100, na.Score, "node %s", id)
	}
}

func TestAnalyze_OptionalFieldsLowerScoreNotGate(t *testing.T) {
	cat := registry.Builtin()
	tr, err := session.New(cat, "proj-1", "verra", "vm0042")
	require.NoError(t, err)

	// removal_data: required fields present, optional measurement_date
	// left empty.
	_, err = tr.UpdateField("gross_removal", model.Number(1000), model.SourceManual)
	require.NoError(t, err)
	_, err = tr.UploadFile("monitoring_report", model.UploadedFile{FileName: "mr.pdf"})
	require.NoError(t, err)

	ga := New(cat, 0).Analyze("verra", "vm0042", tr.Session())
	na := ga.NodeAnalysis["removal_data"]
	assert.True(t, na.Complete, "optional fields never block completeness")
	assert.Equal(t, 67, na.Score, "but they do count against the score")
}

func TestAnalyze_ScoreBounds(t *testing.T) {
	cat := registry.Builtin()
	tr, err := session.New(cat, "proj-1", "puro", "biochar")
	require.NoError(t, err)

	ga := New(cat, 0).Analyze("puro", "biochar", tr.Session())
	require.GreaterOrEqual(t, ga.CompletenessScore, 0)
	require.LessOrEqual(t, ga.CompletenessScore, 100)
	for id, na := range ga.NodeAnalysis {
		assert.GreaterOrEqual(t, na.Score, 0, "node %s", id)
		assert.LessOrEqual(t, na.Score, 100, "node %s", id)
	}
}

func TestAnalyze_CustomThreshold(t *testing.T) {
	cat := fiveNodeCatalog(t)
	tr, err := session.New(cat, "proj-1", "testreg", "five")
	require.NoError(t, err)
	for _, id := range []string{"n1_v", "n2_v", "n3_v", "n4_v"} {
		_, err := tr.UpdateField(id, model.Number(1), model.SourceManual)
		require.NoError(t, err)
	}
	_, err = tr.UploadFile("n5_doc", model.UploadedFile{FileName: "audit.pdf"})
	require.NoError(t, err)

	// Nothing is missing, but a stricter analyzer can still demand a
	// higher score than this tree can reach with optional gaps. Here
	// everything is filled so even 100 passes.
	ga := New(cat, 100).Analyze("testreg", "five", tr.Session())
	assert.True(t, ga.CanProceed)
}

func TestAnalyze_NilSession(t *testing.T) {
	ga := New(registry.Builtin(), 0).Analyze("verra", "vm0042", nil)
	assert.Zero(t, ga.CompletenessScore)
	assert.False(t, ga.CanProceed)
	assert.NotEmpty(t, ga.MissingRequiredFields)
}
