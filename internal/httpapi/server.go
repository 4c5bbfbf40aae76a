// Package httpapi exposes the form orchestrator over HTTP. JSON endpoints
// live under /api for builders; /forms/:id serves and accepts the rendered
// form itself.
package httpapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/components/choices"
	"github.com/goliatone/go-formflow/pkg/orchestrator"
)

// DefaultAssetPath is where the runtime assets are mounted when an asset
// handler is configured.
const DefaultAssetPath = "/formflow/assets"

// DefaultMaxBodyBytes caps request bodies. Schemas are limited far below
// this by the validator; the cap only protects the decoder.
const DefaultMaxBodyBytes int64 = 4 << 20

// Option customises a Server.
type Option func(*Server)

// WithLogger routes request and handler logs to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAllowedOrigins restricts CORS to the given origins. Entries may be
// full origins ("https://app.example.com") or host patterns
// ("*.example.com", "localhost:*"). Empty allows every origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = append([]string(nil), origins...)
	}
}

// WithAssets mounts handler under path for the browser runtime.
func WithAssets(path string, handler http.Handler) Option {
	return func(s *Server) {
		s.assets = handler
		if strings.TrimSpace(path) != "" {
			s.assetPath = "/" + strings.Trim(strings.TrimSpace(path), "/")
		}
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// Server wires orchestrator operations to gin routes.
type Server struct {
	orch      *orchestrator.Orchestrator
	logger    *zap.Logger
	origins   []string
	assets    http.Handler
	assetPath string
	maxBody   int64
	router    *gin.Engine
}

// New builds the router. Gin's mode is a process-wide setting and is left
// to the caller.
func New(orch *orchestrator.Orchestrator, opts ...Option) *Server {
	s := &Server{
		orch:      orch,
		logger:    zap.NewNop(),
		assetPath: DefaultAssetPath,
		maxBody:   DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.orch == nil {
		s.orch = orchestrator.New(orchestrator.WithLogger(s.logger))
	}
	s.router = s.routes()
	return s
}

// Handler returns the http.Handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(RequestLogger(s.logger))
	router.Use(cors.New(corsConfig(s.origins)))
	router.Use(s.limitBody)

	api := router.Group("/api")
	api.GET("/field-types", s.fieldTypes)
	api.GET("/renderers", s.renderers)
	api.POST("/schemas/validate", s.validateSchema)
	api.POST("/schemas/evaluate", s.evaluate)
	api.POST("/render", s.render)

	options := gin.WrapH(choices.New(choices.WithRegistry(s.orch.FieldTypes())).Handler())
	api.GET("/choices/:type", options)
	api.HEAD("/choices/:type", options)

	api.GET("/forms", s.listForms)
	api.GET("/forms/new", s.newForm)
	api.GET("/forms/:id", s.getForm)
	api.PUT("/forms/:id", s.saveForm)
	api.POST("/forms/:id/submissions", s.submitJSON)

	router.GET("/forms/:id", s.page)
	router.POST("/forms/:id", s.submitPage)

	if s.assets != nil {
		router.GET(s.assetPath+"/*name", gin.WrapH(http.StripPrefix(s.assetPath+"/", s.assets)))
		router.HEAD(s.assetPath+"/*name", gin.WrapH(http.StripPrefix(s.assetPath+"/", s.assets)))
	}
	return router
}

func (s *Server) limitBody(c *gin.Context) {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	}
	c.Next()
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(origins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return true }
		return cfg
	}
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		patterns = append(patterns, originHost(origin))
	}
	cfg.AllowOriginFunc = func(origin string) bool {
		host := originHost(origin)
		for _, pattern := range patterns {
			if matchOrigin(pattern, host) {
				return true
			}
		}
		return false
	}
	return cfg
}

// originHost returns the "host[:port]" portion of an origin URL.
func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

func matchOrigin(pattern, host string) bool {
	if pattern == host {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	if strings.HasSuffix(pattern, ":*") {
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}
