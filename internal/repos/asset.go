package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/types"
)

type AssetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, asset *types.Asset) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Asset, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Asset, error)
}

type assetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return &assetRepo{db: db, log: baseLog.With("repo", "AssetRepo")}
}

func (ar *assetRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ar.db
}

func (ar *assetRepo) Create(ctx context.Context, tx *gorm.DB, asset *types.Asset) error {
	return ar.conn(tx).WithContext(ctx).Create(asset).Error
}

func (ar *assetRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Asset, error) {
	var asset types.Asset
	if err := ar.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

func (ar *assetRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Asset, error) {
	var results []*types.Asset
	if err := ar.conn(tx).WithContext(ctx).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
