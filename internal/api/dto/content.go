package dto

import (
	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/core/service"
	"github.com/martijn/website/internal/core/validation"
)

type HomePage struct {
	FeaturedProjects []*domain.Project
	RecentPosts      []*domain.BlogPost
}

type PortfolioPage struct {
	Projects []*domain.Project
}

type BlogPage struct {
	*service.BlogPage
}

type BlogPostPage struct {
	Post *domain.BlogPost
}

type ContactPage struct {
	Form   validation.ContactForm
	Errors validation.Errors
}

type DashboardPage struct {
	User        *domain.User
	RecentPosts []*domain.BlogPost
}

type MessagesPage struct {
	Messages []*domain.Contact
	Unread   int
}
