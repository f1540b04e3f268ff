// Package web holds the HTML templates and static assets and renders pages
// with the per-request layout data.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/website/internal/api/dto"
	"github.com/martijn/website/internal/api/session"
	"github.com/martijn/website/internal/core/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var funcs = template.FuncMap{
	"formatDate": func(t time.Time) string {
		return t.Format("January 2, 2006")
	},
	"paragraphs": paragraphs,
}

// paragraphs renders blank-line separated text as escaped <p> elements.
func paragraphs(text string) template.HTML {
	var b strings.Builder
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if block = strings.TrimSpace(block); block == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(template.HTMLEscapeString(block))
		b.WriteString("</p>\n")
	}
	return template.HTML(b.String())
}

// Templates parses every page template. Each file is addressed by its base
// name, e.g. "login.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// Static serves the embedded assets.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Page is the value every template receives.
type Page struct {
	Title       string
	CurrentUser *domain.User
	Flashes     []session.Flash
	Year        int
	Data        any
}

type Renderer struct {
	sessions *session.Manager
}

func NewRenderer(sessions *session.Manager) *Renderer {
	return &Renderer{sessions: sessions}
}

// HTML renders name inside the site layout. Pending flashes are consumed;
// failing to record that is attached to the context for the error middleware
// to log, and the page is rendered regardless.
func (r *Renderer) HTML(c *gin.Context, status int, name, title string, data any) {
	flashes, err := r.sessions.Flashes(c)
	if err != nil {
		_ = c.Error(err)
	}

	c.HTML(status, name, Page{
		Title:       title,
		CurrentUser: session.CurrentUser(c),
		Flashes:     flashes,
		Year:        time.Now().Year(),
		Data:        data,
	})
}

// Error renders the shared error page and aborts the handler chain.
func (r *Renderer) Error(c *gin.Context, status int, message string) {
	r.HTML(c, status, "error.html", http.StatusText(status), dto.ErrorPage{Status: status, Message: message})
	c.Abort()
}
