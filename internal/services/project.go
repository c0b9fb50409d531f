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

type ProjectService interface {
	CreateProject(ctx context.Context, title string) (*types.Project, error)
	ListProjects(ctx context.Context) ([]*types.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error
}

type projectService struct {
	db          *gorm.DB
	log         *logger.Logger
	projectRepo repos.ProjectRepo
	unitRepo    repos.UnitRepo
	story       StoryService
}

func NewProjectService(db *gorm.DB, log *logger.Logger, projectRepo repos.ProjectRepo, unitRepo repos.UnitRepo, story StoryService) ProjectService {
	return &projectService{
		db:          db,
		log:         log.With("service", "ProjectService"),
		projectRepo: projectRepo,
		unitRepo:    unitRepo,
		story:       story,
	}
}

func (ps *projectService) CreateProject(ctx context.Context, title string) (*types.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: project title must not be empty", ErrInvalidInput)
	}
	project := &types.Project{ID: uuid.New(), Title: title}
	if err := ps.projectRepo.Create(ctx, nil, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	ps.log.Info("project created", "project_id", project.ID, "title", title)
	return project, nil
}

func (ps *projectService) ListProjects(ctx context.Context) ([]*types.Project, error) {
	return ps.projectRepo.GetAll(ctx, nil)
}

func (ps *projectService) DeleteProject(ctx context.Context, id uuid.UUID) error {
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ps.unitRepo.DeleteByProject(ctx, tx, id); err != nil {
			return err
		}
		return ps.projectRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	ps.story.CloseProject(id)
	ps.log.Info("project deleted", "project_id", id)
	return nil
}
