package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshxona/backend/internal/domain"
	"github.com/oshxona/backend/internal/repository"

	"github.com/google/uuid"
)

type likeService struct {
	likeRepository    repository.Likes
	productRepository repository.Products
}

func newLikeService(likeRepository repository.Likes, productRepository repository.Products) *likeService {
	return &likeService{
		likeRepository:    likeRepository,
		productRepository: productRepository,
	}
}

// Like is idempotent.
func (s *likeService) Like(ctx context.Context, userID uuid.UUID, productID uuid.UUID) error {
	if err := s.likeRepository.Like(ctx, userID, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("like product failed: %w", err)
	}

	return nil
}

func (s *likeService) Unlike(ctx context.Context, userID uuid.UUID, productID uuid.UUID) error {
	if err := s.likeRepository.Unlike(ctx, userID, productID); err != nil {
		return fmt.Errorf("unlike product failed: %w", err)
	}

	return nil
}

func (s *likeService) GetLiked(ctx context.Context, userID uuid.UUID, page, limit int) ([]*domain.Product, int64, error) {
	page, limit = normalizePage(page, limit)

	filters := &ProductFilters{LikedBy: &userID}

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
