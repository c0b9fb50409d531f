package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/types"
)

// UnitRepo is the durable store for story units. The engine issues
// whole-row reads and whole-row writes only; every accepted command is
// written through here.
type UnitRepo interface {
	Create(ctx context.Context, tx *gorm.DB, unit *types.StoryUnit) error
	Save(ctx context.Context, tx *gorm.DB, unit *types.StoryUnit) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.StoryUnit, error)
	GetByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.StoryUnit, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DeleteByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error
}

type unitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUnitRepo(db *gorm.DB, baseLog *logger.Logger) UnitRepo {
	return &unitRepo{db: db, log: baseLog.With("repo", "UnitRepo")}
}

func (ur *unitRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ur.db
}

func (ur *unitRepo) Create(ctx context.Context, tx *gorm.DB, unit *types.StoryUnit) error {
	return ur.conn(tx).WithContext(ctx).Create(unit).Error
}

// Save upserts the whole row. Undo can resurrect a deleted unit, so a
// plain update is not enough.
func (ur *unitRepo) Save(ctx context.Context, tx *gorm.DB, unit *types.StoryUnit) error {
	return ur.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(unit).Error
}

func (ur *unitRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.StoryUnit, error) {
	var unit types.StoryUnit
	if err := ur.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (ur *unitRepo) GetByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.StoryUnit, error) {
	var results []*types.StoryUnit
	if err := ur.conn(tx).WithContext(ctx).
		Where("project_id = ?", projectID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Delete removes the row only. Rows anchored to it keep their dangling
// anchor_id; the resolver treats those units as roots.
func (ur *unitRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return ur.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.StoryUnit{}).Error
}

func (ur *unitRepo) DeleteByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error {
	return ur.conn(tx).WithContext(ctx).
		Where("project_id = ?", projectID).
		Delete(&types.StoryUnit{}).Error
}
