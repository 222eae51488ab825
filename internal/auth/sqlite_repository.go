package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pressroom/internal/dbx"
)

// errDuplicateUsername is returned by SQLiteUserRepository.Create when the
// UNIQUE constraint on username fires.
var errDuplicateUsername = errors.New("duplicate username")

type SQLiteUserRepository struct {
	db dbx.DBTX
}

func NewSQLiteUserRepository(db dbx.DBTX) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

func (r *SQLiteUserRepository) Create(ctx context.Context, username, passwordHash string, createdAt time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_users (username, password_hash, created_at)
		VALUES (?, ?, ?)`, username, passwordHash, createdAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, errDuplicateUsername
		}
		return 0, fmt.Errorf("inserting admin user: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*AdminUser, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM admin_users
		WHERE username = ?`, username)
	return scanUser(row)
}

func (r *SQLiteUserRepository) GetByID(ctx context.Context, id int64) (*AdminUser, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM admin_users
		WHERE id = ?`, id)
	return scanUser(row)
}

func (r *SQLiteUserRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE admin_users SET password_hash = ? WHERE id = ?", passwordHash, id)
	if err != nil {
		return fmt.Errorf("updating password hash: %w", err)
	}
	return nil
}

func (r *SQLiteUserRepository) List(ctx context.Context) ([]AdminUser, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM admin_users
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing admin users: %w", err)
	}
	defer rows.Close()

	var users []AdminUser
	for rows.Next() {
		var u AdminUser
		var created int64
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &created); err != nil {
			return nil, fmt.Errorf("scanning admin user: %w", err)
		}
		u.CreatedAt = time.Unix(created, 0)
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating admin users: %w", err)
	}

	return users, nil
}

func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admin_users").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting admin users: %w", err)
	}
	return n, nil
}

func scanUser(row *sql.Row) (*AdminUser, error) {
	var u AdminUser
	var created int64
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning admin user: %w", err)
	}
	u.CreatedAt = time.Unix(created, 0)
	return &u, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type SQLiteSessionRepository struct {
	db dbx.DBTX
}

func NewSQLiteSessionRepository(db dbx.DBTX) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

func (r *SQLiteSessionRepository) Insert(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_sessions (token, admin_user_id, expires_at)
		VALUES (?, ?, ?)`, token, userID, expiresAt.Unix())
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) Exists(ctx context.Context, token string, userID int64, now time.Time) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1
		FROM admin_sessions
		WHERE token = ? AND admin_user_id = ? AND expires_at > ?`, token, userID, now.Unix()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking session: %w", err)
	}
	return true, nil
}

func (r *SQLiteSessionRepository) Find(ctx context.Context, token string, now time.Time) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT s.token, s.admin_user_id, u.username, s.expires_at
		FROM admin_sessions s
		JOIN admin_users u ON u.id = s.admin_user_id
		WHERE s.token = ? AND s.expires_at > ?`, token, now.Unix())

	var s Session
	var expires int64
	err := row.Scan(&s.Token, &s.UserID, &s.Username, &expires)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	s.ExpiresAt = time.Unix(expires, 0)
	return &s, nil
}

func (r *SQLiteSessionRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM admin_sessions WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM admin_sessions WHERE expires_at <= ?", now.Unix())
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	return res.RowsAffected()
}
