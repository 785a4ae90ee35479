package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamngoc/student-portal/internal/models"
)

func TestUserRepositoryFindActiveByUsername(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "username", "password", "full_name", "role", "is_active", "created_at", "last_login"}).
		AddRow(int64(1), "admin", "$2a$10$hash", "Site Admin", "admin", true, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password, full_name, role, is_active, created_at, last_login FROM users WHERE username = $1 AND is_active = TRUE LIMIT 1")).
		WithArgs("admin").
		WillReturnRows(rows)

	user, err := repo.FindActiveByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.Active)
	assert.Nil(t, user.LastLogin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindActiveByUsernameNoRows(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByUsername(context.Background(), "ghost")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestUserRepositoryUpdateLastLogin(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	ts := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_login = $2 WHERE id = $1")).
		WithArgs(int64(1), ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateLastLogin(context.Background(), 1, ts)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
