package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terraledger/mrv-cli/internal/config"
	"github.com/terraledger/mrv-cli/internal/model"
	"github.com/terraledger/mrv-cli/internal/registry"
	"github.com/terraledger/mrv-cli/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "mrv_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	cfg := &config.Config{
		Gap:    config.GapConfig{ReadinessThreshold: 80},
		Upload: config.UploadConfig{Dir: t.TempDir()},
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}},
	}

	ts := httptest.NewServer(New(registry.Builtin(), st, cfg).Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions", map[string]string{
		"project_id":  "proj-1",
		"registry_id": "verra",
		"protocol_id": "vm0042",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sess := decode[model.Session](t, resp)
	require.NotEmpty(t, sess.SessionID)
	return sess.SessionID
}

func setField(t *testing.T, ts *httptest.Server, sessionID, fieldID string, value any) {
	t.Helper()
	resp := doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/sessions/%s/fields/%s", ts.URL, sessionID, fieldID),
		map[string]any{"value": value})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func uploadFile(t *testing.T, ts *httptest.Server, sessionID, fieldID, filename string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, "test document body")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/api/sessions/%s/uploads/%s", ts.URL, sessionID, fieldID), &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegistryEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/registries")
	require.NoError(t, err)
	regs := decode[[]registry.Registry](t, resp)
	assert.Len(t, regs, 3)

	resp, err = http.Get(ts.URL + "/api/registries/verra/protocols/vm0042")
	require.NoError(t, err)
	proto := decode[registry.Protocol](t, resp)
	assert.Equal(t, "vm0042", proto.ID)
	require.NotNil(t, proto.Root)

	resp, err = http.Get(ts.URL + "/api/registries/verra/protocols/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateSession_Validation(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions", map[string]string{
		"project_id": "proj-1",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/sessions", map[string]string{
		"project_id":  "proj-1",
		"registry_id": "verra",
		"protocol_id": "vm9999",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFieldEndpoints(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)

	setField(t, ts, id, "gross_removal", 1000)
	setField(t, ts, id, "measurement_date", "2026-03-15")

	resp, err := http.Get(fmt.Sprintf("%s/api/sessions/%s", ts.URL, id))
	require.NoError(t, err)
	sess := decode[model.Session](t, resp)
	assert.Equal(t, model.SessionInProgress, sess.Status)
	assert.Equal(t, 1000.0, sess.NumberOf("gross_removal"))

	// Unknown field ids 404.
	resp = doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/sessions/%s/fields/mystery", ts.URL, id),
		map[string]any{"value": 1})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Type mismatches 400.
	resp = doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/sessions/%s/fields/gross_removal", ts.URL, id),
		map[string]any{"value": "not a number"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Clearing drops the value.
	req, err := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/api/sessions/%s/fields/gross_removal", ts.URL, id), nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(fmt.Sprintf("%s/api/sessions/%s", ts.URL, id))
	require.NoError(t, err)
	sess = decode[model.Session](t, resp)
	assert.False(t, sess.Filled("gross_removal"))
}

func TestUploadEndpoint(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)

	resp := uploadFile(t, ts, id, "monitoring_report", "report.pdf")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	fs := decode[model.FieldState](t, resp)
	assert.Equal(t, model.SourceUpload, fs.Source)
	require.NotNil(t, fs.Value.File)
	assert.Equal(t, "report.pdf", fs.Value.File.FileName)
	assert.Equal(t, "pdf", fs.Value.File.FileType)

	// Uploads only land on file fields.
	resp = uploadFile(t, ts, id, "gross_removal", "x.pdf")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCalculateEndpoint(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)

	setField(t, ts, id, "gross_removal", 1000)
	setField(t, ts, id, "scope_1", 50)
	setField(t, ts, id, "scope_2", 30)
	setField(t, ts, id, "scope_3", 20)
	setField(t, ts, id, "leakage_factor", 5)
	setField(t, ts, id, "buffer_rate", 15)

	resp := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/sessions/%s/calculate", ts.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[model.NetCORCResult](t, resp)
	assert.Equal(t, 707.5, res.NetCORC)
	assert.True(t, res.IsValid)
}

func TestSubmitFlow(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)

	// A half-filled session is refused with actionable recommendations.
	setField(t, ts, id, "gross_removal", 1000)
	resp := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/sessions/%s/submit", ts.URL, id), nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	refusal := decode[struct {
		Error           string   `json:"error"`
		Recommendations []string `json:"recommendations"`
	}](t, resp)
	assert.NotEmpty(t, refusal.Recommendations)

	// Fill every field, required and optional, then submit.
	for field, v := range map[string]any{
		"measurement_date": "2026-03-15",
		"scope_1":          50,
		"scope_2":          30,
		"scope_3":          20,
		"leakage_factor":   5,
		"buffer_rate":      15,
	} {
		setField(t, ts, id, field, v)
	}
	for _, field := range []string{"monitoring_report", "emission_evidence", "risk_assessment"} {
		up := uploadFile(t, ts, id, field, field+".pdf")
		require.Equal(t, http.StatusCreated, up.StatusCode)
		up.Body.Close()
	}

	resp, err := http.Get(fmt.Sprintf("%s/api/sessions/%s/gap", ts.URL, id))
	require.NoError(t, err)
	ga := decode[model.GapAnalysis](t, resp)
	require.True(t, ga.CanProceed, "missing: %v", ga.MissingRequiredFields)
	assert.Equal(t, 100, ga.CompletenessScore)

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/sessions/%s/submit", ts.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sess := decode[model.Session](t, resp)
	assert.Equal(t, model.SessionSubmitted, sess.Status)
	require.NotNil(t, sess.SubmittedAt)

	// Submitted sessions are closed to edits.
	resp = doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/sessions/%s/fields/gross_removal", ts.URL, id),
		map[string]any{"value": 1})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestListSessions(t *testing.T) {
	ts := newTestServer(t)
	createSession(t, ts)
	createSession(t, ts)

	resp, err := http.Get(ts.URL + "/api/sessions?project_id=proj-1")
	require.NoError(t, err)
	sessions := decode[[]model.Session](t, resp)
	assert.Len(t, sessions, 2)

	resp, err = http.Get(ts.URL + "/api/sessions?project_id=proj-other")
	require.NoError(t, err)
	sessions = decode[[]model.Session](t, resp)
	assert.Empty(t, sessions)
}

func TestSessionNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/sessions/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/sessions/nope/submit", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
