package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("opening mock db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &SQLiteStore{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func TestSoundEnabledQueryError(t *testing.T) {
	assert := assert.New(t)
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT value FROM preferences WHERE key = \\?").
		WithArgs(KeySoundEnabled).
		WillReturnError(errors.New("disk I/O error"))

	enabled, err := s.SoundEnabled(context.Background(), true)
	assert.Error(err)
	assert.Contains(err.Error(), "getting preference sound_enabled")
	assert.True(enabled, "default returned on error")

	assert.NoError(mock.ExpectationsWereMet())
}

func TestSetSoundEnabledUpserts(t *testing.T) {
	assert := assert.New(t)
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO preferences \\(key,value,updated_at\\) VALUES \\(\\?,\\?,\\?\\) ON CONFLICT").
		WithArgs(KeySoundEnabled, "false", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(s.SetSoundEnabled(context.Background(), false))
	assert.NoError(mock.ExpectationsWereMet())
}
