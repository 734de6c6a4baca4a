package port

import (
	"context"

	"github.com/rl1809/giftpay/internal/core/domain"
)

type CatalogRepository interface {
	// ActiveGifts lists active gifts by ascending price
	ActiveGifts(ctx context.Context) ([]domain.Gift, error)
}

type CacheRepository interface {
	// GetGifts reports found=false on a cache miss
	GetGifts(ctx context.Context) (gifts []domain.Gift, found bool, err error)

	SetGifts(ctx context.Context, gifts []domain.Gift) error

	InvalidateGifts(ctx context.Context) error
}
