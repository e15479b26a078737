package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/toonarmycaptain/website/internal/models"
)

// Site holds the values every page template needs.
type Site struct {
	Name    string
	BlogURL string
}

// page builds template data titled "{title} - {site name}".
func (s Site) page(title string, extra gin.H) gin.H {
	data := gin.H{
		"Title":    title,
		"SiteName": s.Name,
		"Year":     time.Now().Year(),
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// ProjectLister supplies the projects page. It degrades to an empty list.
type ProjectLister interface {
	Projects(ctx context.Context) []models.Project
}

type PageHandler struct {
	site     Site
	projects ProjectLister
}

func NewPageHandler(site Site, projects ProjectLister) *PageHandler {
	return &PageHandler{
		site:     site,
		projects: projects,
	}
}

// BaseURL permanently redirects the bare site root to the home page
func (h *PageHandler) BaseURL(c *gin.Context) {
	c.Redirect(http.StatusMovedPermanently, "/home/")
}

// Favicon redirects legacy /favicon.ico requests to the static icon
func (h *PageHandler) Favicon(c *gin.Context) {
	c.Redirect(http.StatusFound, "/static/favicon.svg")
}

func (h *PageHandler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home", h.site.page("Home", nil))
}

// Projects lists public repositories; GitHub being down just empties the list.
func (h *PageHandler) Projects(c *gin.Context) {
	var projects []models.Project
	if h.projects != nil {
		projects = h.projects.Projects(c.Request.Context())
	}
	c.HTML(http.StatusOK, "projects", h.site.page("Projects", gin.H{"Projects": projects}))
}

func (h *PageHandler) Blog(c *gin.Context) {
	c.HTML(http.StatusOK, "blog", h.site.page("Blog", gin.H{"BlogURL": h.site.BlogURL}))
}

func (h *PageHandler) About(c *gin.Context) {
	c.HTML(http.StatusOK, "about", h.site.page("About me", nil))
}
