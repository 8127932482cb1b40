// Package store persists data-injection sessions and calculation
// results. Two drivers exist: SQLite for single-operator use and
// Postgres for shared deployments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/terraledger/mrv-cli/internal/model"
)

// ErrNotFound is returned when a session id does not exist.
var ErrNotFound = eris.New("store: not found")

// SessionFilter specifies criteria for listing sessions.
type SessionFilter struct {
	ProjectID string              `json:"project_id,omitempty"`
	Status    model.SessionStatus `json:"status,omitempty"`
	Limit     int                 `json:"limit,omitempty"`
	Offset    int                 `json:"offset,omitempty"`
}

// Store is the persistence port for the MRV core. The session is saved
// and loaded as an opaque aggregate; the core does not depend on the
// storage format.
type Store interface {
	// Sessions
	SaveSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]model.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Calculation results
	SaveResult(ctx context.Context, sessionID string, r *model.NetCORCResult) error
	LatestResult(ctx context.Context, sessionID string) (*model.NetCORCResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
