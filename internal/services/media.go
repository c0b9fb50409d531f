package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Leeloo90/storygraph-backend/internal/repos"
)

// MediaProvider supplies source-media durations. The engine treats
// duration as opaque input and never inspects media files itself;
// implementations front whatever probed the file.
type MediaProvider interface {
	DurationFor(ctx context.Context, assetID uuid.UUID) (float64, error)
}

// assetMediaProvider reads durations from registered asset rows, which
// an external ingest process populates.
type assetMediaProvider struct {
	assetRepo repos.AssetRepo
}

func NewAssetMediaProvider(assetRepo repos.AssetRepo) MediaProvider {
	return &assetMediaProvider{assetRepo: assetRepo}
}

func (p *assetMediaProvider) DurationFor(ctx context.Context, assetID uuid.UUID) (float64, error) {
	asset, err := p.assetRepo.GetByID(ctx, nil, assetID)
	if err != nil {
		return 0, fmt.Errorf("look up asset %s: %w", assetID, err)
	}
	return asset.Duration, nil
}
