package domain

import (
	"time"

	"github.com/google/uuid"
)

type ProductCategory string

const (
	CategoryFood     ProductCategory = "food"
	CategorySnack    ProductCategory = "snack"
	CategoryBeverage ProductCategory = "beverage"
	CategoryDessert  ProductCategory = "dessert"
	CategoryCombo    ProductCategory = "combo"
)

func (c ProductCategory) Valid() bool {
	switch c {
	case CategoryFood, CategorySnack, CategoryBeverage, CategoryDessert, CategoryCombo:
		return true
	}
	return false
}

// Product is a menu item. Price is in tiyin.
type Product struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Category    ProductCategory `db:"category" json:"category"`
	Price       int64           `db:"price" json:"price"`
	ImageURL    *string         `db:"image_url" json:"image_url,omitempty"`
	IsAvailable bool            `db:"is_available" json:"is_available"`
	Likes       int64           `db:"likes" json:"likes"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

type ProductLike struct {
	UserID    uuid.UUID `db:"user_id"`
	ProductID uuid.UUID `db:"product_id"`
	CreatedAt time.Time `db:"created_at"`
}
