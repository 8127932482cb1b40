package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terraledger/mrv-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgres_SaveSession(t *testing.T) {
	s, mock := newMockStore(t)
	sess := testSession("s-1", "proj-1")

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(sess.SessionID, sess.ProjectID, sess.RegistryID, sess.ProtocolID,
			string(sess.Status), sess.OverallProgress, pgxmock.AnyArg(),
			sess.CreatedAt, sess.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveSession(context.Background(), sess))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetSession(t *testing.T) {
	s, mock := newMockStore(t)
	sess := testSession("s-1", "proj-1")
	data, err := json.Marshal(sess)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT data FROM sessions WHERE id`).
		WithArgs("s-1").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(data))

	got, err := s.GetSession(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", got.SessionID)
	assert.Equal(t, model.SessionInProgress, got.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetSessionNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT data FROM sessions WHERE id`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetSession(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListSessions(t *testing.T) {
	s, mock := newMockStore(t)
	a, err := json.Marshal(testSession("s-a", "proj-1"))
	require.NoError(t, err)
	b, err := json.Marshal(testSession("s-b", "proj-1"))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT data FROM sessions WHERE 1=1 AND project_id = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("proj-1", 100).
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(a).AddRow(b))

	got, err := s.ListSessions(context.Background(), SessionFilter{ProjectID: "proj-1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s-a", got[0].SessionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteSessionNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM sessions WHERE id`).
		WithArgs("nope").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteSession(context.Background(), "nope")
	assert.True(t, eris.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveResult(t *testing.T) {
	s, mock := newMockStore(t)
	res := &model.NetCORCResult{
		NetCORC:      707.5,
		GrossRemoval: 1000,
		IsValid:      true,
		CalculatedAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(`INSERT INTO calc_results`).
		WithArgs(pgxmock.AnyArg(), "s-1", pgxmock.AnyArg(), res.CalculatedAt.UTC()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveResult(context.Background(), "s-1", res))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LatestResultNone(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT result FROM calc_results`).
		WithArgs("s-1").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.LatestResult(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
