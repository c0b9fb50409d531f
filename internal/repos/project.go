package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/types"
)

type ProjectRepo interface {
	Create(ctx context.Context, tx *gorm.DB, project *types.Project) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Project, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Project, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (pr *projectRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return pr.db
}

func (pr *projectRepo) Create(ctx context.Context, tx *gorm.DB, project *types.Project) error {
	return pr.conn(tx).WithContext(ctx).Create(project).Error
}

func (pr *projectRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Project, error) {
	var project types.Project
	if err := pr.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (pr *projectRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Project, error) {
	var results []*types.Project
	if err := pr.conn(tx).WithContext(ctx).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *projectRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return pr.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Project{}).Error
}
