package gormstore

import (
	"context"

	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/core/repository"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) repository.ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return oops.Code("PROJECT_CREATE_FAILED").With("title", project.Title).Wrap(err)
	}
	return nil
}

func (r *projectRepository) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Project{}).Where("title = ?", title).Count(&count).Error
	if err != nil {
		return false, oops.Code("PROJECT_FIND_FAILED").With("title", title).Wrap(err)
	}
	return count > 0, nil
}

func (r *projectRepository) Featured(ctx context.Context, limit int) ([]*domain.Project, error) {
	var projects []*domain.Project
	err := r.db.WithContext(ctx).
		Where("featured = ?", true).
		Order("sort_order ASC").
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, oops.Code("PROJECT_LIST_FAILED").Wrap(err)
	}
	return projects, nil
}

func (r *projectRepository) List(ctx context.Context) ([]*domain.Project, error) {
	var projects []*domain.Project
	err := r.db.WithContext(ctx).
		Order("sort_order ASC").
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, oops.Code("PROJECT_LIST_FAILED").Wrap(err)
	}
	return projects, nil
}
