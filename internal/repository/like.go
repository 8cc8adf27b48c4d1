package repository

import (
	"context"
	"fmt"

	"github.com/oshxona/backend/internal/db"
	"github.com/oshxona/backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type likeRepository struct {
	db *sqlx.DB
}

func newLikeRepository(db *sqlx.DB) *likeRepository {
	return &likeRepository{
		db: db,
	}
}

// Like is idempotent. An unknown product yields domain.ErrNotFound.
func (r *likeRepository) Like(ctx context.Context, userID uuid.UUID, productID uuid.UUID) error {
	const query = `
	INSERT INTO product_like (user_id, product_id) VALUES (uuid_to_bin(?), uuid_to_bin(?))
	ON DUPLICATE KEY UPDATE user_id = user_id;
	`

	if _, err := r.db.ExecContext(ctx, query, userID, productID); err != nil {
		if db.IsForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("db insert product like: %w", err)
	}

	return nil
}

func (r *likeRepository) Unlike(ctx context.Context, userID uuid.UUID, productID uuid.UUID) error {
	const query = `
	DELETE FROM product_like WHERE user_id = uuid_to_bin(?) AND product_id = uuid_to_bin(?);
	`

	if _, err := r.db.ExecContext(ctx, query, userID, productID); err != nil {
		return fmt.Errorf("db delete product like: %w", err)
	}

	return nil
}
