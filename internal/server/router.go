package server

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/toonarmycaptain/website/internal/forms"
	"github.com/toonarmycaptain/website/internal/handlers"
	"github.com/toonarmycaptain/website/internal/middleware"
	"github.com/toonarmycaptain/website/web"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Site      handlers.Site
	Sessions  *middleware.SessionManager
	Submitter handlers.Submitter
	Validator *forms.ContactValidator
	Projects  handlers.ProjectLister
	Store     handlers.Pinger
	Gatherer  prometheus.Gatherer
	Log       *logrus.Logger
}

// NewRouter wires middleware, templates, static assets and routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	tmpl, err := web.Templates(template.FuncMap{})
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Log))
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/static", http.FS(web.Static()))

	setupRoutes(router, deps)
	return router, nil
}

func setupRoutes(router *gin.Engine, deps Deps) {
	pageHandler := handlers.NewPageHandler(deps.Site, deps.Projects)
	contactHandler := handlers.NewContactHandler(deps.Site, deps.Submitter, deps.Validator, deps.Log)
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Log)
	notFoundHandler := handlers.NewNotFoundHandler(deps.Site)

	router.GET("/favicon.ico", pageHandler.Favicon)

	// Health check and metrics, outside the session
	router.GET("/health", healthHandler.Health)
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	site := router.Group("/")
	site.Use(deps.Sessions.Middleware())
	site.Use(middleware.CSRFProtect(deps.Log))
	{
		site.GET("/", pageHandler.BaseURL)
		site.GET("/home/", pageHandler.Home)
		site.GET("/projects/", pageHandler.Projects)
		site.GET("/blog/", pageHandler.Blog)
		site.GET("/about/", pageHandler.About)
		site.GET("/contact/", contactHandler.ContactForm)
		site.POST("/contact/", contactHandler.SubmitContact)
	}

	router.NoRoute(notFoundHandler.NotFound)
}
