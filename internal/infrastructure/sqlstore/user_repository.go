package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/core/repository"
	"github.com/samber/oops"
)

const userColumns = `id, username, email, password_hash, is_admin, last_login_at, created_at, updated_at`

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := r.db.Rebind(`
		INSERT INTO users (username, email, password_hash, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("username", user.Username).
			Wrap(asConstraintViolation(err))
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", email)
}

// findOne looks a user up by a trusted column name.
func (r *userRepository) findOne(ctx context.Context, column string, value any) (*domain.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`)

	var user domain.User
	err := r.db.GetContext(ctx, &user, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With(column, value).
			Wrap(domain.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_FIND_FAILED").
			With(column, value).
			Wrap(err)
	}
	return &user, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()
	query := r.db.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`)
	return r.execOne(ctx, "USER_UPDATE_PASSWORD_FAILED", user.ID, query, user.PasswordHash, user.UpdatedAt, user.ID)
}

func (r *userRepository) TouchLastLogin(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`)
	if err := r.execOne(ctx, "USER_TOUCH_LOGIN_FAILED", user.ID, query, now, now, user.ID); err != nil {
		return err
	}
	user.LastLoginAt = sql.NullTime{Time: now, Valid: true}
	user.UpdatedAt = now
	return nil
}

func (r *userRepository) execOne(ctx context.Context, code string, id int64, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return oops.Code(code).With("id", id).Wrap(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return oops.Code(code).With("id", id).Wrap(err)
	}
	if rows == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id).Wrap(domain.ErrNotFound)
	}
	return nil
}

// Delete removes the user's blog posts, then their password resets, then the
// user row, all in one transaction.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").With("id", id).Wrap(err)
	}
	defer tx.Rollback()

	steps := []struct {
		table string
		query string
	}{
		{"blog_posts", `DELETE FROM blog_posts WHERE author_id = ?`},
		{"password_resets", `DELETE FROM password_resets WHERE user_id = ?`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, tx.Rebind(step.query), id); err != nil {
			return oops.Code("USER_DELETE_FAILED").
				With("id", id).
				With("table", step.table).
				Wrap(err)
		}
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").With("id", id).Wrap(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").With("id", id).Wrap(err)
	}
	if rows == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id).Wrap(domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return oops.Code("USER_DELETE_FAILED").With("id", id).Wrap(err)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`

	var users []*domain.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, oops.Code("USER_LIST_FAILED").Wrap(err)
	}
	return users, nil
}
