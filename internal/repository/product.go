package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/oshxona/backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ProductFilters struct {
	Category      *string
	Search        *string
	OnlyAvailable bool
	LikedBy       *uuid.UUID // only products liked by this user
	SortBy        string     // "created_at", "price", "likes"
	Order         string     // "asc", "desc"
}

const productColumns = `
	p.id, p.title, p.description, p.category, p.price, p.image_url, p.is_available,
	(SELECT COUNT(*) FROM product_like pl WHERE pl.product_id = p.id) AS likes,
	p.created_at, p.updated_at, p.deleted_at`

type productRepository struct {
	db *sqlx.DB
}

func newProductRepository(db *sqlx.DB) *productRepository {
	return &productRepository{
		db: db,
	}
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM product p WHERE p.id = uuid_to_bin(?) AND p.deleted_at IS NULL`

	var product domain.Product
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select product by id failed: %w", err)
	}

	return &product, nil
}

func (r *productRepository) GetAll(ctx context.Context, limit, offset int, filters *ProductFilters) ([]*domain.Product, error) {
	from, args := buildProductFrom(filters)

	query := `SELECT ` + productColumns + from + fmt.Sprintf(`
		ORDER BY %s
		LIMIT ? OFFSET ?`, productOrderBy(filters))
	args = append(args, limit, offset)

	var products []*domain.Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("select products failed: %w", err)
	}

	return products, nil
}

func (r *productRepository) Count(ctx context.Context, filters *ProductFilters) (int64, error) {
	from, args := buildProductFrom(filters)

	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*)`+from, args...); err != nil {
		return 0, fmt.Errorf("count products failed: %w", err)
	}

	return count, nil
}

// buildProductFrom returns the shared FROM/JOIN/WHERE part of list and count queries.
func buildProductFrom(filters *ProductFilters) (string, []interface{}) {
	var sb strings.Builder
	args := []interface{}{}

	sb.WriteString(`
		FROM product p`)

	if filters != nil && filters.LikedBy != nil {
		sb.WriteString(`
		INNER JOIN product_like l ON l.product_id = p.id AND l.user_id = uuid_to_bin(?)`)
		args = append(args, *filters.LikedBy)
	}

	sb.WriteString(`
		WHERE p.deleted_at IS NULL`)

	if filters == nil {
		return sb.String(), args
	}

	if filters.Category != nil {
		sb.WriteString(` AND p.category = ?`)
		args = append(args, *filters.Category)
	}

	if filters.OnlyAvailable {
		sb.WriteString(` AND p.is_available = 1`)
	}

	if filters.Search != nil && *filters.Search != "" {
		sb.WriteString(` AND MATCH(p.title, p.description) AGAINST(? IN BOOLEAN MODE)`)
		args = append(args, *filters.Search)
	}

	return sb.String(), args
}

func productOrderBy(filters *ProductFilters) string {
	orderBy := "p.created_at"
	orderDir := "DESC"

	if filters != nil {
		switch filters.SortBy {
		case "price":
			orderBy = "p.price"
		case "likes":
			orderBy = "likes"
		}

		if filters.Order == "asc" {
			orderDir = "ASC"
		}
	}

	return orderBy + " " + orderDir + ", p.id"
}
