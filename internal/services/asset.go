package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/repos"
	"github.com/Leeloo90/storygraph-backend/internal/types"
)

type AssetService interface {
	RegisterAsset(ctx context.Context, name, mediaType string, duration float64) (*types.Asset, error)
	ListAssets(ctx context.Context) ([]*types.Asset, error)
}

type assetService struct {
	db        *gorm.DB
	log       *logger.Logger
	assetRepo repos.AssetRepo
}

func NewAssetService(db *gorm.DB, log *logger.Logger, assetRepo repos.AssetRepo) AssetService {
	return &assetService{db: db, log: log.With("service", "AssetService"), assetRepo: assetRepo}
}

func (as *assetService) RegisterAsset(ctx context.Context, name, mediaType string, duration float64) (*types.Asset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: asset name must not be empty", ErrInvalidInput)
	}
	if duration < 0 {
		return nil, fmt.Errorf("%w: asset duration must not be negative", ErrInvalidInput)
	}
	asset := &types.Asset{
		ID:        uuid.New(),
		Name:      name,
		MediaType: mediaType,
		Duration:  duration,
	}
	if err := as.assetRepo.Create(ctx, nil, asset); err != nil {
		return nil, fmt.Errorf("register asset: %w", err)
	}
	as.log.Info("asset registered", "asset_id", asset.ID, "name", name, "duration", duration)
	return asset, nil
}

func (as *assetService) ListAssets(ctx context.Context) ([]*types.Asset, error) {
	return as.assetRepo.GetAll(ctx, nil)
}
