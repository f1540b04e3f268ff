package gormstore

import (
	"context"
	"errors"

	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/core/repository"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

type blogPostRepository struct {
	db *gorm.DB
}

func NewBlogPostRepository(db *gorm.DB) repository.BlogPostRepository {
	return &blogPostRepository{db: db}
}

func (r *blogPostRepository) Create(ctx context.Context, post *domain.BlogPost) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return oops.Code("POST_CREATE_FAILED").With("slug", post.Slug).Wrap(err)
	}
	return nil
}

func (r *blogPostRepository) FindPublishedBySlug(ctx context.Context, slug string) (*domain.BlogPost, error) {
	var post domain.BlogPost
	err := r.db.WithContext(ctx).
		Where("slug = ? AND published = ?", slug, true).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, oops.Code("POST_NOT_FOUND").With("slug", slug).Wrap(domain.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("POST_FIND_FAILED").With("slug", slug).Wrap(err)
	}
	return &post, nil
}

func (r *blogPostRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.BlogPost{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, oops.Code("POST_FIND_FAILED").With("slug", slug).Wrap(err)
	}
	return count > 0, nil
}

func (r *blogPostRepository) ListPublished(ctx context.Context, page, perPage int) ([]*domain.BlogPost, int64, error) {
	published := r.db.WithContext(ctx).Model(&domain.BlogPost{}).Where("published = ?", true)

	var total int64
	if err := published.Count(&total).Error; err != nil {
		return nil, 0, oops.Code("POST_LIST_FAILED").Wrap(err)
	}

	// Pages past the end are empty. Checking before computing the offset
	// keeps huge page numbers from overflowing it.
	lastPage := (total + int64(perPage) - 1) / int64(perPage)
	if int64(page-1) >= lastPage {
		return []*domain.BlogPost{}, total, nil
	}

	var posts []*domain.BlogPost
	err := r.db.WithContext(ctx).
		Where("published = ?", true).
		Order("created_at DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&posts).Error
	if err != nil {
		return nil, 0, oops.Code("POST_LIST_FAILED").With("page", page).Wrap(err)
	}
	return posts, total, nil
}

func (r *blogPostRepository) Recent(ctx context.Context, limit int) ([]*domain.BlogPost, error) {
	var posts []*domain.BlogPost
	err := r.db.WithContext(ctx).
		Where("published = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, oops.Code("POST_LIST_FAILED").Wrap(err)
	}
	return posts, nil
}
