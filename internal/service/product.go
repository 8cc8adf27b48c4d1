package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oshxona/backend/internal/domain"
	"github.com/oshxona/backend/internal/repository"

	"github.com/google/uuid"
)

type ProductFilters = repository.ProductFilters

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type productService struct {
	productRepository repository.Products
}

func newProductService(productRepository repository.Products) *productService {
	return &productService{
		productRepository: productRepository,
	}
}

func (s *productService) GetAll(ctx context.Context, page, limit int, filters *ProductFilters) ([]*domain.Product, int64, error) {
	page, limit = normalizePage(page, limit)

	if filters != nil && filters.Search != nil {
		query := prefixSearchQuery(*filters.Search)
		if query == "" {
			filters.Search = nil
		} else {
			filters.Search = &query
		}
	}

	products, err := s.productRepository.GetAll(ctx, limit, (page-1)*limit, filters)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.productRepository.Count(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product by id failed: %w", err)
	}

	return product, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	return page, limit
}

// prefixSearchQuery turns free text into a boolean mode query matching word prefixes.
// Boolean operators typed by the user are dropped.
func prefixSearchQuery(query string) string {
	query = strings.Map(func(r rune) rune {
		switch r {
		case '+', '-', '*', '~', '"', '(', ')', '<', '>', '@':
			return ' '
		}
		return r
	}, query)

	words := strings.Fields(query)
	for i, word := range words {
		words[i] = word + "*"
	}

	return strings.Join(words, " ")
}
