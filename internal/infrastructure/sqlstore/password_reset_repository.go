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

type passwordResetRepository struct {
	db *DB
}

func NewPasswordResetRepository(db *DB) repository.PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) error {
	query := r.db.Rebind(`
		INSERT INTO password_resets (id, user_id, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		reset.ID,
		reset.UserID,
		reset.TokenHash,
		reset.ExpiresAt,
		reset.CreatedAt,
	)
	if err != nil {
		return oops.Code("RESET_CREATE_FAILED").With("user_id", reset.UserID).Wrap(err)
	}
	return nil
}

func (r *passwordResetRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordReset, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM password_resets
		WHERE token_hash = ?
	`)
	var reset domain.PasswordReset
	err := r.db.GetContext(ctx, &reset, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code("RESET_NOT_FOUND").Wrap(domain.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("RESET_FIND_FAILED").Wrap(err)
	}
	return &reset, nil
}

// Redeem deletes the token row, updates the password and drops the user's
// other tokens in one transaction. The DELETE is what claims the token, so a
// second caller finds no row.
func (r *passwordResetRepository) Redeem(ctx context.Context, tokenHash, passwordHash string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, oops.Code("RESET_REDEEM_FAILED").Wrap(err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	var userID int64
	err = tx.GetContext(ctx, &userID, tx.Rebind(`
		DELETE FROM password_resets
		WHERE token_hash = ? AND expires_at > ?
		RETURNING user_id
	`), tokenHash, now)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, oops.Code("RESET_NOT_FOUND").Wrap(domain.ErrNotFound)
	}
	if err != nil {
		return 0, oops.Code("RESET_REDEEM_FAILED").Wrap(err)
	}

	result, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`),
		passwordHash, now, userID,
	)
	if err != nil {
		return 0, oops.Code("RESET_REDEEM_FAILED").With("user_id", userID).Wrap(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, oops.Code("RESET_REDEEM_FAILED").With("user_id", userID).Wrap(err)
	}
	if rows == 0 {
		return 0, oops.Code("USER_NOT_FOUND").With("id", userID).Wrap(domain.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM password_resets WHERE user_id = ?`), userID); err != nil {
		return 0, oops.Code("RESET_REDEEM_FAILED").With("user_id", userID).Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, oops.Code("RESET_REDEEM_FAILED").With("user_id", userID).Wrap(err)
	}
	return userID, nil
}

func (r *passwordResetRepository) DeleteByUser(ctx context.Context, userID int64) error {
	query := r.db.Rebind(`DELETE FROM password_resets WHERE user_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return oops.Code("RESET_DELETE_FAILED").With("user_id", userID).Wrap(err)
	}
	return nil
}

func (r *passwordResetRepository) DeleteExpired(ctx context.Context) error {
	query := r.db.Rebind(`DELETE FROM password_resets WHERE expires_at < ?`)
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC()); err != nil {
		return oops.Code("RESET_DELETE_EXPIRED_FAILED").Wrap(err)
	}
	return nil
}
