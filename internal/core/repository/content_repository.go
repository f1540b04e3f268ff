package repository

import (
	"context"

	"github.com/martijn/website/internal/core/domain"
)

type BlogPostRepository interface {
	Create(ctx context.Context, post *domain.BlogPost) error
	FindPublishedBySlug(ctx context.Context, slug string) (*domain.BlogPost, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	// ListPublished returns one page of published posts, newest first, and
	// the total number of published posts.
	ListPublished(ctx context.Context, page, perPage int) ([]*domain.BlogPost, int64, error)
	Recent(ctx context.Context, limit int) ([]*domain.BlogPost, error)
}

type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	Featured(ctx context.Context, limit int) ([]*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
}

type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	List(ctx context.Context) ([]*domain.Contact, error)
	SetRead(ctx context.Context, id int64, read bool) error
}
