package service

import (
	"context"
	"time"

	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/core/repository"
)

const (
	PostsPerPage     = 10
	FeaturedProjects = 3
	RecentPosts      = 3
)

type ContentService struct {
	postRepo    repository.BlogPostRepository
	projectRepo repository.ProjectRepository
	contactRepo repository.ContactRepository
}

func NewContentService(
	postRepo repository.BlogPostRepository,
	projectRepo repository.ProjectRepository,
	contactRepo repository.ContactRepository,
) *ContentService {
	return &ContentService{
		postRepo:    postRepo,
		projectRepo: projectRepo,
		contactRepo: contactRepo,
	}
}

type HomeContent struct {
	FeaturedProjects []*domain.Project
	RecentPosts      []*domain.BlogPost
}

func (s *ContentService) Home(ctx context.Context) (*HomeContent, error) {
	projects, err := s.projectRepo.Featured(ctx, FeaturedProjects)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.Recent(ctx, RecentPosts)
	if err != nil {
		return nil, err
	}

	return &HomeContent{FeaturedProjects: projects, RecentPosts: posts}, nil
}

func (s *ContentService) Projects(ctx context.Context) ([]*domain.Project, error) {
	return s.projectRepo.List(ctx)
}

// BlogPage is one page of published posts.
type BlogPage struct {
	Posts   []*domain.BlogPost
	Page    int
	PerPage int
	Total   int64
}

func (p *BlogPage) Pages() int {
	if p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func (p *BlogPage) HasPrev() bool { return p.Page > 1 }
func (p *BlogPage) HasNext() bool { return p.Page < p.Pages() }
func (p *BlogPage) PrevPage() int { return p.Page - 1 }
func (p *BlogPage) NextPage() int { return p.Page + 1 }

// Blog returns the requested page; pages below 1 are treated as 1.
func (s *ContentService) Blog(ctx context.Context, page int) (*BlogPage, error) {
	if page < 1 {
		page = 1
	}

	posts, total, err := s.postRepo.ListPublished(ctx, page, PostsPerPage)
	if err != nil {
		return nil, err
	}

	return &BlogPage{Posts: posts, Page: page, PerPage: PostsPerPage, Total: total}, nil
}

// Post returns a published post. Drafts are reported as domain.ErrNotFound.
func (s *ContentService) Post(ctx context.Context, slug string) (*domain.BlogPost, error) {
	return s.postRepo.FindPublishedBySlug(ctx, slug)
}

func (s *ContentService) SubmitContact(ctx context.Context, name, email, subject, message string) (*domain.Contact, error) {
	contact := &domain.Contact{
		Name:      name,
		Email:     email,
		Subject:   subject,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *ContentService) Messages(ctx context.Context) ([]*domain.Contact, error) {
	return s.contactRepo.List(ctx)
}

func (s *ContentService) MarkMessage(ctx context.Context, id int64, read bool) error {
	return s.contactRepo.SetRead(ctx, id, read)
}

// SeedSamples inserts the sample project and the welcome post unless rows
// with the same title or slug already exist. It reports how many rows were
// added.
func (s *ContentService) SeedSamples(ctx context.Context, author *domain.User) (int, error) {
	added := 0

	exists, err := s.projectRepo.ExistsByTitle(ctx, sampleProject.Title)
	if err != nil {
		return added, err
	}
	if !exists {
		project := sampleProject
		project.CreatedAt = time.Now().UTC()
		if err := s.projectRepo.Create(ctx, &project); err != nil {
			return added, err
		}
		added++
	}

	exists, err = s.postRepo.ExistsBySlug(ctx, samplePost.Slug)
	if err != nil {
		return added, err
	}
	if !exists {
		now := time.Now().UTC()
		post := samplePost
		post.AuthorID = author.ID
		post.CreatedAt = now
		post.UpdatedAt = now
		if err := s.postRepo.Create(ctx, &post); err != nil {
			return added, err
		}
		added++
	}

	return added, nil
}

var sampleProject = domain.Project{
	Title:        "Personal Website",
	Description:  "A personal website built with Go, gin and SQLite, featuring a blog, portfolio and contact form.",
	Technologies: "Go, Gin, SQLite, HTML, CSS",
	GithubURL:    "https://github.com/martijn/website",
	Featured:     true,
	SortOrder:    1,
}

var samplePost = domain.BlogPost{
	Title:     "Welcome to My Blog",
	Slug:      "welcome-to-my-blog",
	Excerpt:   "This is my first blog post on my new personal website.",
	Content:   "Welcome to my new blog!\n\nHere I will write about software development, the projects I work on and the things I learn along the way.",
	Published: true,
	Tags:      "welcome, first post, blog",
}
