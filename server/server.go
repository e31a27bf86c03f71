// Package server exposes the topicgraph HTTP interface: the index page with
// its relationship lookup form, the topic and person autocomplete endpoints
// and the operational endpoints.
package server

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saulfrancisco-ruizacevedo/topicgraph"
	"github.com/saulfrancisco-ruizacevedo/topicgraph/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

// Verifier reports whether the database is reachable.
type Verifier interface {
	Verify(ctx context.Context) error
}

// Options configures a Server. Store is required.
type Options struct {
	Store topicgraph.SessionOpener
	// Health backs /health. When nil the endpoint always reports ok.
	Health  Verifier
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Server is the gin engine with its dependencies.
type Server struct {
	store   topicgraph.SessionOpener
	health  Verifier
	logger  *slog.Logger
	metrics *metrics.Metrics
	engine  *gin.Engine
}

// New builds the engine and registers every route.
func New(opts Options) *Server {
	s := &Server{
		store:   opts.Store,
		health:  opts.Health,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	engine := gin.New()
	engine.Use(s.requestLog, gin.Recovery(), s.observe)
	engine.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	engine.GET("/health", s.healthCheck)
	engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	app := engine.Group("/", s.sessionScope)
	{
		app.GET("/", s.index)
		app.POST("/", s.index)
		app.GET("/topics", s.searchTopics)
		app.GET("/topics/:id/graph", s.topicGraph)
		app.GET("/persons", s.searchPersons)
		app.GET("/stats", s.stats)
	}

	s.engine = engine
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}
