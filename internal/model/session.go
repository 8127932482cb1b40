package model

import "time"

// Source tags where a field value came from.
type Source string

const (
	SourceAPI    Source = "api"
	SourceExcel  Source = "excel"
	SourceManual Source = "manual"
	SourceUpload Source = "upload"
)

// FieldStatus is the derived fill state of a single field.
type FieldStatus string

const (
	FieldEmpty  FieldStatus = "empty"
	FieldFilled FieldStatus = "filled"
)

// NodeStatus is the derived state of an input-bearing tree node.
type NodeStatus string

const (
	NodeEmpty       NodeStatus = "empty"
	NodePartial     NodeStatus = "partial"
	NodeComplete    NodeStatus = "complete"
	NodeCalculating NodeStatus = "calculating"
	NodeError       NodeStatus = "error"
)

// SessionStatus is the lifecycle state of a data-injection session.
type SessionStatus string

const (
	SessionDraft      SessionStatus = "draft"
	SessionInProgress SessionStatus = "in_progress"
	SessionSubmitted  SessionStatus = "submitted"
)

// FieldState holds the current value of one field within a session.
// Status is derived: filled iff the value is non-empty.
type FieldState struct {
	FieldID          string      `json:"field_id"`
	Value            FieldValue  `json:"value"`
	Source           Source      `json:"source,omitempty"`
	Status           FieldStatus `json:"status"`
	LastUpdated      time.Time   `json:"last_updated"`
	ValidationErrors []string    `json:"validation_errors,omitempty"`
}

// NodeState holds the derived completion state of one input-bearing
// formula node.
type NodeState struct {
	NodeID          string     `json:"node_id"`
	Status          NodeStatus `json:"status"`
	ProgressPercent int        `json:"progress_percent"`
	CalculatedValue *float64   `json:"calculated_value,omitempty"`
}

// Session is the aggregate root for one submission-in-progress against
// a registry protocol. It exclusively owns its field and node maps; the
// formula tree it references is shared, immutable configuration.
type Session struct {
	SessionID       string                 `json:"session_id"`
	ProjectID       string                 `json:"project_id"`
	RegistryID      string                 `json:"registry_id"`
	ProtocolID      string                 `json:"protocol_id"`
	Status          SessionStatus          `json:"status"`
	OverallProgress int                    `json:"overall_progress"`
	NodeStates      map[string]*NodeState  `json:"node_states"`
	FieldValues     map[string]*FieldState `json:"field_values"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	SubmittedAt     *time.Time             `json:"submitted_at,omitempty"`
}

// Field returns the state for a field id, or nil if never touched.
func (s *Session) Field(id string) *FieldState {
	return s.FieldValues[id]
}

// NumberOf returns the numeric value of a field, 0 when the field is
// absent or non-numeric.
func (s *Session) NumberOf(id string) float64 {
	fs := s.FieldValues[id]
	if fs == nil {
		return 0
	}
	return fs.Value.AsNumber()
}

// Filled reports whether the field exists and carries a value.
func (s *Session) Filled(id string) bool {
	fs := s.FieldValues[id]
	return fs != nil && fs.Status == FieldFilled && !fs.Value.IsEmpty()
}
