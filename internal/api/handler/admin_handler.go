package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/martijn/website/internal/api/dto"
	"github.com/martijn/website/internal/api/util"
	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/core/service"
	"github.com/martijn/website/internal/web"
)

type AdminHandler struct {
	contentService *service.ContentService
	renderer       *web.Renderer
}

func NewAdminHandler(contentService *service.ContentService, renderer *web.Renderer) *AdminHandler {
	return &AdminHandler{
		contentService: contentService,
		renderer:       renderer,
	}
}

// Messages handles GET /admin/messages
func (h *AdminHandler) Messages(c *gin.Context) {
	messages, err := h.contentService.Messages(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	unread := 0
	for _, m := range messages {
		if !m.IsRead {
			unread++
		}
	}

	h.renderer.HTML(c, http.StatusOK, "admin_messages.html", "Messages", dto.MessagesPage{
		Messages: messages,
		Unread:   unread,
	})
}

// MarkRead handles POST /admin/messages/:id/read
func (h *AdminHandler) MarkRead(c *gin.Context) {
	h.mark(c, true)
}

// MarkUnread handles POST /admin/messages/:id/unread
func (h *AdminHandler) MarkUnread(c *gin.Context) {
	h.mark(c, false)
}

func (h *AdminHandler) mark(c *gin.Context, read bool) {
	id, ok := util.ParseID(c, "id")
	if !ok {
		h.renderer.Error(c, http.StatusNotFound, MsgPageNotFound)
		return
	}

	err := h.contentService.MarkMessage(c.Request.Context(), id, read)
	if errors.Is(err, domain.ErrNotFound) {
		h.renderer.Error(c, http.StatusNotFound, MsgPageNotFound)
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Redirect(http.StatusFound, "/admin/messages")
}
