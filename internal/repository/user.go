package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oshxona/backend/internal/db"
	"github.com/oshxona/backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, google_id, email, name, phone_number, password_hash, is_google_account, is_email_verified,
	email_verification_code, verification_sent_at, verification_attempts, created_at, updated_at, deleted_at`

type userRepository struct {
	db *sqlx.DB
}

func newUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
	INSERT INTO user
	(id, google_id, email, name, phone_number, password_hash, is_google_account, is_email_verified, email_verification_code, verification_sent_at)
	VALUES(uuid_to_bin(?), ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`

	result, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.GoogleID,
		user.Email,
		user.Name,
		user.PhoneNumber,
		user.PasswordHash,
		user.IsGoogleAccount,
		user.IsEmailVerified,
		user.EmailVerificationCode,
		user.VerificationSentAt,
	)
	if err != nil {
		if db.IsDuplicateEntry(err) {
			return domain.ErrDuplicateEntry
		}
		return fmt.Errorf("db insert user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected failed: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrNoRowsAffected
	}

	return nil
}

func (r *userRepository) GetOneByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM user WHERE id = uuid_to_bin(?) AND deleted_at IS NULL;`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select from user by id failed: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM user WHERE email = ? AND deleted_at IS NULL;`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select from user by email failed: %w", err)
	}

	return &user, nil
}

func (r *userRepository) SetVerificationCode(ctx context.Context, id uuid.UUID, code string, sentAt time.Time) error {
	const query = `
	UPDATE user SET email_verification_code = ?, verification_sent_at = ?, verification_attempts = 0
	WHERE id = uuid_to_bin(?) AND is_email_verified = 0 AND deleted_at IS NULL;
	`

	return r.execOne(ctx, "set verification code", query, code, sentAt, id)
}

func (r *userRepository) ConfirmVerificationCode(ctx context.Context, id uuid.UUID, code string, issuedAfter time.Time, maxAttempts int) (bool, error) {
	query := `
	UPDATE user SET is_email_verified = 1, email_verification_code = NULL, verification_sent_at = NULL, verification_attempts = 0
	WHERE id = uuid_to_bin(?) AND is_email_verified = 0 AND email_verification_code = ? AND deleted_at IS NULL`
	args := []interface{}{id, code}

	if !issuedAfter.IsZero() {
		query += ` AND verification_sent_at > ?`
		args = append(args, issuedAfter)
	}
	if maxAttempts > 0 {
		query += ` AND verification_attempts < ?`
		args = append(args, maxAttempts)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("confirm verification code failed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected failed: %w", err)
	}

	return rowsAffected == 1, nil
}

func (r *userRepository) IncrementVerificationAttempts(ctx context.Context, id uuid.UUID) error {
	const query = `
	UPDATE user SET verification_attempts = verification_attempts + 1
	WHERE id = uuid_to_bin(?) AND is_email_verified = 0 AND email_verification_code IS NOT NULL;
	`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment verification attempts failed: %w", err)
	}

	return nil
}

func (r *userRepository) ChangeEmail(ctx context.Context, id uuid.UUID, email string, code string, sentAt time.Time) error {
	const query = `
	UPDATE user SET email = ?, is_email_verified = 0, email_verification_code = ?, verification_sent_at = ?, verification_attempts = 0
	WHERE id = uuid_to_bin(?) AND deleted_at IS NULL;
	`

	return r.execOne(ctx, "change email", query, email, code, sentAt, id)
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name string, phoneNumber string) error {
	const query = `
	UPDATE user SET name = ?, phone_number = ? WHERE id = uuid_to_bin(?) AND deleted_at IS NULL;
	`

	_, err := r.db.ExecContext(ctx, query,
		sql.NullString{String: name, Valid: name != ""},
		sql.NullString{String: phoneNumber, Valid: phoneNumber != ""},
		id,
	)
	if err != nil {
		return fmt.Errorf("update user profile failed: %w", err)
	}

	return nil
}

func (r *userRepository) execOne(ctx context.Context, op string, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if db.IsDuplicateEntry(err) {
			return domain.ErrDuplicateEntry
		}
		return fmt.Errorf("%s failed: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected failed: %w", op, err)
	}

	if rowsAffected == 0 {
		return domain.ErrNoRowsAffected
	}

	return nil
}
