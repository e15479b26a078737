package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type NotFoundHandler struct {
	site Site
}

func NewNotFoundHandler(site Site) *NotFoundHandler {
	return &NotFoundHandler{site: site}
}

// NotFound handles 404 errors for non-existent routes
func (h *NotFoundHandler) NotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404", h.site.page("Page Not Found", gin.H{
		"RequestedPath": c.Request.URL.Path,
	}))
}
