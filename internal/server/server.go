// Package server exposes the MRV core over HTTP: registry browsing,
// session editing, calculation, gap analysis, and submission.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terraledger/mrv-cli/internal/config"
	"github.com/terraledger/mrv-cli/internal/evaluator"
	"github.com/terraledger/mrv-cli/internal/gap"
	"github.com/terraledger/mrv-cli/internal/model"
	"github.com/terraledger/mrv-cli/internal/registry"
	"github.com/terraledger/mrv-cli/internal/session"
	"github.com/terraledger/mrv-cli/internal/store"
)

// Server wires the catalog, store, and analyzer behind a chi router.
type Server struct {
	catalog  *registry.Catalog
	store    store.Store
	analyzer *gap.Analyzer
	cfg      *config.Config
}

// New creates a Server.
func New(cat *registry.Catalog, st store.Store, cfg *config.Config) *Server {
	return &Server{
		catalog:  cat,
		store:    st,
		analyzer: gap.New(cat, cfg.Gap.ReadinessThreshold),
		cfg:      cfg,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/registries", s.listRegistries)
		r.Get("/registries/{registryID}/protocols/{protocolID}", s.getProtocol)

		r.Post("/sessions", s.createSession)
		r.Get("/sessions", s.listSessions)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Put("/fields/{fieldID}", s.updateField)
			r.Delete("/fields/{fieldID}", s.clearField)
			r.Post("/uploads/{fieldID}", s.uploadFile)
			r.Post("/calculate", s.calculate)
			r.Get("/gap", s.gapAnalysis)
			r.Post("/submit", s.submit)
		})
	})

	return r
}

func (s *Server) listRegistries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Registries())
}

func (s *Server) getProtocol(w http.ResponseWriter, r *http.Request) {
	proto, ok := s.catalog.Protocol(chi.URLParam(r, "registryID"), chi.URLParam(r, "protocolID"))
	if !ok {
		writeError(w, http.StatusNotFound, "protocol not found")
		return
	}
	writeJSON(w, http.StatusOK, proto)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID  string `json:"project_id"`
		RegistryID string `json:"registry_id"`
		ProtocolID string `json:"protocol_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProjectID == "" || req.RegistryID == "" || req.ProtocolID == "" {
		writeError(w, http.StatusBadRequest, "project_id, registry_id, and protocol_id are required")
		return
	}

	tr, err := session.New(s.catalog, req.ProjectID, req.RegistryID, req.ProtocolID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "protocol not found")
			return
		}
		s.internalError(w, "create session", err)
		return
	}
	if err := s.store.SaveSession(r.Context(), tr.Session()); err != nil {
		s.internalError(w, "save session", err)
		return
	}
	writeJSON(w, http.StatusCreated, tr.Session())
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	filter := store.SessionFilter{
		ProjectID: r.URL.Query().Get("project_id"),
		Status:    model.SessionStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	sessions, err := s.store.ListSessions(r.Context(), filter)
	if err != nil {
		s.internalError(w, "list sessions", err)
		return
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) updateField(w http.ResponseWriter, r *http.Request) {
	tr, ok := s.resumeTracker(w, r)
	if !ok {
		return
	}
	fieldID := chi.URLParam(r, "fieldID")

	var req struct {
		Value  json.RawMessage `json:"value"`
		Source model.Source    `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Source == "" {
		req.Source = model.SourceManual
	}

	ref, found := tr.Field(fieldID)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown field %q", fieldID))
		return
	}
	value, err := decodeValue(ref.Field.Type, req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fs, err := tr.UpdateField(fieldID, value, req.Source)
	if err != nil {
		s.trackerError(w, err)
		return
	}
	if err := s.store.SaveSession(r.Context(), tr.Session()); err != nil {
		s.internalError(w, "save session", err)
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

func (s *Server) clearField(w http.ResponseWriter, r *http.Request) {
	tr, ok := s.resumeTracker(w, r)
	if !ok {
		return
	}
	fs, err := tr.ClearField(chi.URLParam(r, "fieldID"), model.SourceManual)
	if err != nil {
		s.trackerError(w, err)
		return
	}
	if err := s.store.SaveSession(r.Context(), tr.Session()); err != nil {
		s.internalError(w, "save session", err)
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	tr, ok := s.resumeTracker(w, r)
	if !ok {
		return
	}
	fieldID := chi.URLParam(r, "fieldID")

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	fileID := uuid.New().String()
	dir := s.cfg.Upload.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.internalError(w, "create upload dir", err)
		return
	}
	dst := filepath.Join(dir, fileID+filepath.Ext(header.Filename))
	out, err := os.Create(dst)
	if err != nil {
		s.internalError(w, "create upload file", err)
		return
	}
	size, err := io.Copy(out, file)
	out.Close()
	if err != nil {
		s.internalError(w, "write upload file", err)
		return
	}

	fs, err := tr.UploadFile(fieldID, model.UploadedFile{
		FileID:     fileID,
		FileName:   header.Filename,
		FileType:   strings.TrimPrefix(filepath.Ext(header.Filename), "."),
		FileSize:   size,
		StorageURL: dst,
	})
	if err != nil {
		s.trackerError(w, err)
		return
	}
	if err := s.store.SaveSession(r.Context(), tr.Session()); err != nil {
		s.internalError(w, "save session", err)
		return
	}
	writeJSON(w, http.StatusCreated, fs)
}

func (s *Server) calculate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	result, err := evaluator.Calculate(sess)
	if err != nil {
		s.internalError(w, "calculate", err)
		return
	}
	if err := s.store.SaveResult(r.Context(), sess.SessionID, result); err != nil {
		s.internalError(w, "save result", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) gapAnalysis(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.analyzer.Analyze(sess.RegistryID, sess.ProtocolID, sess))
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	tr, ok := s.resumeTracker(w, r)
	if !ok {
		return
	}
	sess := tr.Session()
	ga := s.analyzer.Analyze(sess.RegistryID, sess.ProtocolID, sess)
	if err := tr.Submit(ga); err != nil {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":           err.Error(),
			"recommendations": ga.Recommendations,
		})
		return
	}
	if err := s.store.SaveSession(r.Context(), sess); err != nil {
		s.internalError(w, "save session", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// helpers

func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*model.Session, bool) {
	sess, err := s.store.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return nil, false
		}
		s.internalError(w, "get session", err)
		return nil, false
	}
	return sess, true
}

func (s *Server) resumeTracker(w http.ResponseWriter, r *http.Request) (*session.Tracker, bool) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return nil, false
	}
	tr, err := session.Resume(s.catalog, sess)
	if err != nil {
		writeError(w, http.StatusConflict, "session references an unknown protocol")
		return nil, false
	}
	return tr, true
}

func (s *Server) trackerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownField):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrSubmitted):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) internalError(w http.ResponseWriter, action string, err error) {
	zap.L().Error("server: "+action, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// decodeValue coerces a raw JSON value into the variant the field
// declares. Strings are accepted for every scalar type and parsed.
func decodeValue(ft model.FieldType, raw json.RawMessage) (model.FieldValue, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return model.FieldValue{}, nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return model.ParseValue(ft, str)
	}

	switch ft {
	case model.FieldNumber:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return model.FieldValue{}, fmt.Errorf("field expects a number")
		}
		return model.Number(f), nil
	case model.FieldBoolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return model.FieldValue{}, fmt.Errorf("field expects a boolean")
		}
		return model.Boolean(b), nil
	default:
		return model.FieldValue{}, fmt.Errorf("field expects a string value")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
