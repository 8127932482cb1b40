// Package session tracks one in-progress data-injection session: field
// values, derived node states, and overall progress.
package session

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/terraledger/mrv-cli/internal/model"
	"github.com/terraledger/mrv-cli/internal/registry"
)

var (
	// ErrUnknownField is returned when a field id does not exist in the
	// active protocol's tree. Unknown ids are rejected at this boundary
	// so the session's value map can never drift from the tree.
	ErrUnknownField = eris.New("session: unknown field id")

	// ErrSubmitted is returned for mutations on a submitted session.
	ErrSubmitted = eris.New("session: already submitted")
)

// Tracker is the single source of truth for one session. It is not
// safe for concurrent use; callers serialize access.
type Tracker struct {
	session  *model.Session
	protocol *registry.Protocol
	index    *registry.Index
	now      func() time.Time
}

// New creates a session for a project against a registry protocol.
// The registry/protocol pair must resolve; unlike gap analysis, which
// degrades to a not-found result, session creation fails loudly.
func New(cat *registry.Catalog, projectID, registryID, protocolID string) (*Tracker, error) {
	proto, ok := cat.Protocol(registryID, protocolID)
	if !ok {
		return nil, eris.Wrapf(registry.ErrNotFound, "session: protocol %s/%s", registryID, protocolID)
	}
	idx, _ := cat.FieldIndex(registryID, protocolID)

	now := time.Now().UTC()
	s := &model.Session{
		SessionID:   uuid.New().String(),
		ProjectID:   projectID,
		RegistryID:  registryID,
		ProtocolID:  protocolID,
		Status:      model.SessionDraft,
		NodeStates:  make(map[string]*model.NodeState),
		FieldValues: make(map[string]*model.FieldState),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return &Tracker{session: s, protocol: proto, index: idx, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Resume wraps an existing session (typically loaded from the store)
// in a tracker. The protocol it references must still resolve.
func Resume(cat *registry.Catalog, s *model.Session) (*Tracker, error) {
	proto, ok := cat.Protocol(s.RegistryID, s.ProtocolID)
	if !ok {
		return nil, eris.Wrapf(registry.ErrNotFound, "session: protocol %s/%s", s.RegistryID, s.ProtocolID)
	}
	idx, _ := cat.FieldIndex(s.RegistryID, s.ProtocolID)
	if s.NodeStates == nil {
		s.NodeStates = make(map[string]*model.NodeState)
	}
	if s.FieldValues == nil {
		s.FieldValues = make(map[string]*model.FieldState)
	}
	return &Tracker{session: s, protocol: proto, index: idx, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Session returns the tracked session.
func (t *Tracker) Session() *model.Session { return t.session }

// Protocol returns the active protocol configuration.
func (t *Tracker) Protocol() *registry.Protocol { return t.protocol }

// Field resolves a field id against the active tree.
func (t *Tracker) Field(id string) (registry.FieldRef, bool) { return t.index.ByID(id) }

// UpdateField upserts a field value. Validation is advisory: rule
// violations are recorded on the field state but never block the
// update. Calling twice with the same value and source yields an
// identical state apart from the timestamp.
func (t *Tracker) UpdateField(fieldID string, value model.FieldValue, source model.Source) (*model.FieldState, error) {
	if t.session.Status == model.SessionSubmitted {
		return nil, eris.Wrapf(ErrSubmitted, "session %s", t.session.SessionID)
	}
	ref, ok := t.index.ByID(fieldID)
	if !ok {
		return nil, eris.Wrapf(ErrUnknownField, "%q", fieldID)
	}

	status := model.FieldFilled
	if value.IsEmpty() {
		status = model.FieldEmpty
	}

	fs := &model.FieldState{
		FieldID:          fieldID,
		Value:            value,
		Source:           source,
		Status:           status,
		LastUpdated:      t.now(),
		ValidationErrors: Validate(ref.Field, value),
	}
	t.session.FieldValues[fieldID] = fs

	t.recomputeNode(ref.NodeID)
	t.recomputeProgress()

	zap.L().Debug("session: field updated",
		zap.String("session_id", t.session.SessionID),
		zap.String("field_id", fieldID),
		zap.String("source", string(source)),
		zap.String("status", string(status)),
		zap.Int("overall_progress", t.session.OverallProgress),
	)
	return fs, nil
}

// ClearField resets a field to empty. Progress may decrease.
func (t *Tracker) ClearField(fieldID string, source model.Source) (*model.FieldState, error) {
	return t.UpdateField(fieldID, model.FieldValue{}, source)
}

// UploadFile stores an evidence-file descriptor as the field's value
// with source=upload. Size and MIME constraints stay advisory: the
// descriptor is accepted and the validation rules only annotate it.
func (t *Tracker) UploadFile(fieldID string, file model.UploadedFile) (*model.FieldState, error) {
	ref, ok := t.index.ByID(fieldID)
	if !ok {
		return nil, eris.Wrapf(ErrUnknownField, "%q", fieldID)
	}
	if ref.Field.Type != model.FieldFile {
		return nil, eris.Errorf("session: field %q is %s, not a file field", fieldID, ref.Field.Type)
	}
	if file.FileID == "" {
		file.FileID = uuid.New().String()
	}
	if file.UploadDate.IsZero() {
		file.UploadDate = t.now()
	}
	return t.UpdateField(fieldID, model.File(&file), model.SourceUpload)
}

// Submit gates the session on a gap-analysis verdict. On refusal the
// error carries the analysis recommendations so the caller can present
// an actionable message.
func (t *Tracker) Submit(ga *model.GapAnalysis) error {
	if t.session.Status == model.SessionSubmitted {
		return eris.Wrapf(ErrSubmitted, "session %s", t.session.SessionID)
	}
	if ga == nil || !ga.CanProceed {
		msg := "session: not ready for submission"
		if ga != nil {
			for _, rec := range ga.Recommendations {
				msg += "; " + rec
			}
		}
		return eris.New(msg)
	}
	now := t.now()
	t.session.Status = model.SessionSubmitted
	t.session.SubmittedAt = &now
	t.session.UpdatedAt = now
	zap.L().Info("session: submitted",
		zap.String("session_id", t.session.SessionID),
		zap.Int("completeness_score", ga.CompletenessScore),
	)
	return nil
}

// recomputeNode refreshes the derived state of the node declaring the
// given field. Progress counts every declared input; completeness only
// requires the fields marked required.
func (t *Tracker) recomputeNode(nodeID string) {
	var node *model.FormulaNode
	t.protocol.Root.Walk(func(n *model.FormulaNode) bool {
		if n.ID == nodeID {
			node = n
			return false
		}
		return true
	})
	if node == nil || len(node.RequiredInputs) == 0 {
		return
	}

	filled := 0
	requiredMissing := false
	for _, f := range node.RequiredInputs {
		if t.session.Filled(f.ID) {
			filled++
		} else if f.Required {
			requiredMissing = true
		}
	}

	ns := t.session.NodeStates[nodeID]
	if ns == nil {
		ns = &model.NodeState{NodeID: nodeID}
		t.session.NodeStates[nodeID] = ns
	}
	ns.ProgressPercent = roundPct(filled, len(node.RequiredInputs))
	switch {
	case !requiredMissing:
		ns.Status = model.NodeComplete
	case filled > 0:
		ns.Status = model.NodePartial
	default:
		ns.Status = model.NodeEmpty
	}
}

// recomputeProgress derives overall progress as a flat count of filled
// fields over all fields ever touched. This deliberately differs from
// the node-weighted completeness score in gap analysis; both numbers
// are surfaced to users.
func (t *Tracker) recomputeProgress() {
	filled := 0
	for _, fs := range t.session.FieldValues {
		if fs.Status == model.FieldFilled {
			filled++
		}
	}
	t.session.OverallProgress = roundPct(filled, len(t.session.FieldValues))
	t.session.UpdatedAt = t.now()

	// draft -> in_progress on first progress; never reverts.
	if t.session.Status == model.SessionDraft && t.session.OverallProgress > 0 {
		t.session.Status = model.SessionInProgress
	}
}

func roundPct(num, den int) int {
	if den == 0 {
		return 0
	}
	return int(math.Round(100 * float64(num) / float64(den)))
}
