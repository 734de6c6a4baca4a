package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rl1809/giftpay/internal/core/domain"
	"github.com/rl1809/giftpay/internal/port"
)

type CatalogService struct {
	repo  port.CatalogRepository
	cache port.CacheRepository
	log   *slog.Logger
}

func NewCatalogService(repo port.CatalogRepository, cache port.CacheRepository, log *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: cache,
		log:   log.With(slog.String("component", "catalog")),
	}
}

// ActiveGifts serves from the cache when possible. A cache outage degrades to
// reading the database.
func (s *CatalogService) ActiveGifts(ctx context.Context) ([]domain.Gift, error) {
	gifts, found, err := s.cache.GetGifts(ctx)
	if err != nil {
		s.log.Warn("catalog cache read failed", slog.Any("error", err))
	}
	if found {
		return gifts, nil
	}

	gifts, err = s.repo.ActiveGifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active gifts: %w", err)
	}

	if err := s.cache.SetGifts(ctx, gifts); err != nil {
		s.log.Warn("catalog cache write failed", slog.Any("error", err))
	}
	return gifts, nil
}

func (s *CatalogService) Gift(ctx context.Context, id int64) (*domain.Gift, error) {
	gifts, err := s.ActiveGifts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range gifts {
		if gifts[i].ID == id {
			return &gifts[i], nil
		}
	}
	return nil, fmt.Errorf("%w: id %d", ErrGiftNotFound, id)
}
