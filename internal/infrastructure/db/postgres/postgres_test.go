package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

var userCols = []string{
	"id", "email", "username", "password_hash", "first_name", "last_name",
	"is_active", "is_staff", "is_superuser", "language", "timezone", "currency",
	"last_login", "created_at", "updated_at",
}

func userRow(rows *sqlmock.Rows, id, email string, lastLogin any) *sqlmock.Rows {
	return rows.AddRow(id, email, email, "hash", "Ana", "Lima",
		true, false, false, "EN", "UTC+0", "USD", lastLogin, fixedNow, fixedNow)
}

func TestUserRepository_Create(t *testing.T) {
	repo, mock := newUserRepo(t)
	u := &domain.User{ID: "u1", Email: "a@example.com", Username: "a@example.com", IsActive: true, CreatedAt: fixedNow, UpdatedAt: fixedNow}

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).
		WithArgs("u1", "a@example.com", "a@example.com", "", "", "", true, false, false, "", "", "",
			sqlmock.AnyArg(), fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), u))

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, repo.Create(context.Background(), u), domain.ErrEmailTaken)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail(t *testing.T) {
	repo, mock := newUserRepo(t)
	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`

	mock.ExpectQuery(q).WithArgs("a@example.com").
		WillReturnRows(userRow(sqlmock.NewRows(userCols), "u1", "a@example.com", fixedNow))
	u, err := repo.FindByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	require.NotNil(t, u.LastLogin)
	assert.True(t, u.LastLogin.Equal(fixedNow))

	mock.ExpectQuery(q).WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	mock.ExpectQuery(q).WithArgs("a@example.com").WillReturnError(errors.New("db down"))
	_, err = repo.FindByEmail(context.Background(), "a@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db down")
}

func TestUserRepository_ExistsByEmail(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery(`(?s)^SELECT\s+EXISTS.*email\s*=\s*\$1\s+AND\s+id\s*<>\s*\$2`).
		WithArgs("a@example.com", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ExistsByEmail(context.Background(), "a@example.com", "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserRepository_Update(t *testing.T) {
	repo, mock := newUserRepo(t)
	email := "new@example.com"
	q := `(?s)^UPDATE\s+users\s+SET.*username\s*=\s*COALESCE\(\$2,\s*email\).*RETURNING`

	mock.ExpectQuery(q).
		WithArgs("u1", email, nil, nil, nil, nil, nil, fixedNow).
		WillReturnRows(userRow(sqlmock.NewRows(userCols), "u1", email, nil))
	u, err := repo.Update(context.Background(), "u1", domain.UserPatch{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, u.Email)
	assert.Equal(t, email, u.Username)
	assert.Nil(t, u.LastLogin)

	mock.ExpectQuery(q).WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = repo.Update(context.Background(), "u1", domain.UserPatch{Email: &email})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	mock.ExpectQuery(q).WillReturnError(sql.ErrNoRows)
	_, err = repo.Update(context.Background(), "ghost", domain.UserPatch{})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_SetActive(t *testing.T) {
	repo, mock := newUserRepo(t)
	q := `(?s)^UPDATE\s+users\s+SET\s+is_active\s*=\s*\$2.*AND\s+is_active\s*<>\s*\$2$`

	mock.ExpectExec(q).WithArgs("u1", false, fixedNow).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("u1", false, fixedNow).WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.SetActive(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.SetActive(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestUserRepository_SetPassword_NotFound(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+password_hash`).
		WithArgs("ghost", "hash", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.SetPassword(context.Background(), "ghost", "hash"), domain.ErrUserNotFound)
}

func TestUserRepository_List(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery(`(?s)^SELECT\s+count\(\*\)\s+FROM\s+users$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	rows := sqlmock.NewRows(userCols)
	userRow(rows, "u1", "a@example.com", nil)
	userRow(rows, "u2", "b@example.com", nil)
	mock.ExpectQuery(`(?s)ORDER\s+BY\s+created_at,\s*id\s+LIMIT\s+\$1\s+OFFSET\s+\$2$`).
		WithArgs(2, 0).
		WillReturnRows(rows)

	users, total, err := repo.List(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, users, 2)
	assert.Equal(t, "u2", users[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBlacklistRepository(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlacklistRepository(db)
	entry := ports.BlacklistEntry{TokenID: "jti", UserID: "u1", ExpiresAt: fixedNow, RevokedAt: fixedNow}

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+token_blacklist`).
		WithArgs("jti", "u1", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+token_blacklist`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery(`(?s)^SELECT\s+EXISTS.*token_blacklist`).
		WithArgs("jti").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, repo.Add(context.Background(), entry))
	assert.ErrorIs(t, repo.Add(context.Background(), entry), domain.ErrTokenInvalid)

	ok, err := repo.Contains(context.Background(), "jti")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMigrate(t *testing.T) {
	db, _ := newMock(t)

	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var dir string
	gooseUp = func(_ context.Context, _ *sql.DB, d string) error {
		dir = d
		return nil
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.Equal(t, ".", dir)

	gooseUp = func(context.Context, *sql.DB, string) error { return errors.New("boom") }
	err := Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate: boom")
}
