package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/martijn/website/internal/api/dto"
	"github.com/martijn/website/internal/api/session"
	"github.com/martijn/website/internal/api/util"
	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/core/service"
	"github.com/martijn/website/internal/core/validation"
	"github.com/martijn/website/internal/web"
)

const (
	MsgContactSent    = "Thank you for your message! I'll get back to you soon."
	MsgContactInvalid = "Please fill in all fields."
	MsgPageNotFound   = "The page you are looking for does not exist."
)

// MainHandler serves the public pages and the logged-in area.
type MainHandler struct {
	contentService *service.ContentService
	validator      *validation.Validator
	sessions       *session.Manager
	renderer       *web.Renderer
	logger         *slog.Logger
}

func NewMainHandler(
	contentService *service.ContentService,
	validator *validation.Validator,
	sessions *session.Manager,
	renderer *web.Renderer,
	logger *slog.Logger,
) *MainHandler {
	return &MainHandler{
		contentService: contentService,
		validator:      validator,
		sessions:       sessions,
		renderer:       renderer,
		logger:         logger,
	}
}

// Index handles GET / and GET /index
func (h *MainHandler) Index(c *gin.Context) {
	home, err := h.contentService.Home(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.renderer.HTML(c, http.StatusOK, "index.html", "Home", dto.HomePage{
		FeaturedProjects: home.FeaturedProjects,
		RecentPosts:      home.RecentPosts,
	})
}

// Portfolio handles GET /portfolio
func (h *MainHandler) Portfolio(c *gin.Context) {
	projects, err := h.contentService.Projects(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.renderer.HTML(c, http.StatusOK, "portfolio.html", "Portfolio", dto.PortfolioPage{Projects: projects})
}

// Blog handles GET /blog
func (h *MainHandler) Blog(c *gin.Context) {
	page, err := h.contentService.Blog(c.Request.Context(), util.ParsePage(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.renderer.HTML(c, http.StatusOK, "blog.html", "Blog", dto.BlogPage{BlogPage: page})
}

// BlogPost handles GET /blog/:slug
func (h *MainHandler) BlogPost(c *gin.Context) {
	post, err := h.contentService.Post(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, domain.ErrNotFound) {
		h.renderer.Error(c, http.StatusNotFound, MsgPageNotFound)
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.renderer.HTML(c, http.StatusOK, "blog_post.html", post.Title, dto.BlogPostPage{Post: post})
}

// ContactPage handles GET /contact
func (h *MainHandler) ContactPage(c *gin.Context) {
	h.renderer.HTML(c, http.StatusOK, "contact.html", "Contact", dto.ContactPage{})
}

// Contact handles POST /contact
func (h *MainHandler) Contact(c *gin.Context) {
	var form validation.ContactForm
	_ = c.ShouldBind(&form)

	if errs := h.validator.Contact(&form); errs != nil {
		if err := h.sessions.AddFlash(c, "error", MsgContactInvalid); err != nil {
			h.logger.Warn("failed to store flash", "error", err)
		}
		h.renderer.HTML(c, http.StatusOK, "contact.html", "Contact", dto.ContactPage{Form: form, Errors: errs})
		return
	}

	contact, err := h.contentService.SubmitContact(c.Request.Context(), form.Name, form.Email, form.Subject, form.Message)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.Info("contact message received", "contact_id", contact.ID)
	if err := h.sessions.AddFlash(c, "success", MsgContactSent); err != nil {
		h.logger.Warn("failed to store flash", "error", err)
	}
	c.Redirect(http.StatusFound, "/contact")
}

// Dashboard handles GET /dashboard
func (h *MainHandler) Dashboard(c *gin.Context) {
	home, err := h.contentService.Home(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.renderer.HTML(c, http.StatusOK, "dashboard.html", "Dashboard", dto.DashboardPage{
		User:        session.CurrentUser(c),
		RecentPosts: home.RecentPosts,
	})
}

// Profile handles GET /profile
func (h *MainHandler) Profile(c *gin.Context) {
	h.renderer.HTML(c, http.StatusOK, "profile.html", "Profile", session.CurrentUser(c))
}
