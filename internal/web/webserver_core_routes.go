// Package web provides the HTTP server and the bill pages for go-pokr
package web

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"

	"github.com/go-while/go-pokr/internal/config"
	"github.com/go-while/go-pokr/internal/database"
	"github.com/go-while/go-pokr/internal/documents"
	"github.com/go-while/go-pokr/internal/errs"
	"github.com/go-while/go-pokr/internal/logging"
)

// GlossarySource produces the glossary annotation script
type GlossarySource interface {
	Script(ctx context.Context) (string, error)
}

// WebServer represents the web server
type WebServer struct {
	Repo      database.BillRepository
	Docs      *documents.Store
	Glossary  GlossarySource
	Router    *gin.Engine
	Config    *config.WebConfig
	StartTime time.Time // Track server start time for uptime calculations

	templates  map[string]*template.Template
	httpServer *http.Server
}

// TemplateData represents common template data
type TemplateData struct {
	Title       string
	CurrentTime string
	AppVersion  string
	RequestID   string
	Breadcrumbs []Breadcrumb
}

// Breadcrumb is one entry of the page navigation trail
type Breadcrumb struct {
	Name string
	URL  string // empty for the current page
}

// NewServer creates a new web server instance
func NewServer(repo database.BillRepository, docs *documents.Store, gloss GlossarySource, webconfig *config.WebConfig) (*WebServer, error) {
	if repo == nil || docs == nil || gloss == nil || webconfig == nil {
		return nil, errors.New("web: repository, documents, glossary and config are required")
	}
	if webconfig.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, errs.Wrap(err, "load templates")
	}

	router := gin.New()

	// Set trusted proxies for common reverse proxy setups (nginx, etc.)
	if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}); err != nil {
		return nil, errs.Wrap(err, "set trusted proxies")
	}

	server := &WebServer{
		Repo:      repo,
		Docs:      docs,
		Glossary:  gloss,
		Router:    router,
		Config:    webconfig,
		templates: templates,
		httpServer: &http.Server{
			Addr:              ":" + strconv.Itoa(webconfig.ListenPort),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	router.Use(server.RequestIDMiddleware())
	router.Use(server.AccessLogMiddleware())
	router.Use(gin.CustomRecovery(server.recoverPanic))

	// Configure security headers based on SSL setup
	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}

	// Only add SSL-specific headers if SSL is enabled on the application itself
	// (not when running behind a reverse proxy like nginx with SSL)
	if webconfig.SSL {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}
	router.Use(secure.New(secureConfig))

	// Add reverse proxy middleware for handling X-Forwarded headers
	router.Use(server.ReverseProxyMiddleware())

	if err := server.setupRoutes(); err != nil {
		return nil, err
	}
	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() error {
	static, err := s.staticAssetHandler()
	if err != nil {
		return errs.Wrap(err, "static assets")
	}
	assets, err := StaticAssets()
	if err != nil {
		return errs.Wrap(err, "list static assets")
	}
	logging.Debug(context.Background(), "static assets embedded", slog.Any("files", assets))
	s.Router.GET("/static/*filepath", static)
	s.Router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	s.Router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/bill/")
	})

	bill := s.Router.Group("/bill")
	{
		bill.GET("/", s.billsPage)
		bill.GET("/list", s.billListAPI)
		bill.GET("/glossary.js", s.glossaryScript)
		bill.GET("/:id", s.billPage)
		bill.GET("/:id/pdf", s.billPDF)
		bill.GET("/:id/text", s.billText)
		bill.GET("/:id/official", s.billOfficial)
	}

	s.Router.NoRoute(func(c *gin.Context) {
		s.renderNotFound(c)
	})
	return nil
}

// Start listens until Shutdown is called. A clean shutdown returns nil.
func (s *WebServer) Start() error {
	addr := s.httpServer.Addr
	s.StartTime = time.Now()

	var err error
	if s.Config.SSL {
		if s.Config.CertFile == "" || s.Config.KeyFile == "" {
			return errors.New("SSL enabled but cert_file or key_file not specified in config")
		}
		logging.Info(context.Background(), "starting HTTPS server", slog.String("addr", addr))
		err = s.httpServer.ListenAndServeTLS(s.Config.CertFile, s.Config.KeyFile)
	} else {
		logging.Info(context.Background(), "starting HTTP server", slog.String("addr", addr))
		err = s.httpServer.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx ends
func (s *WebServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
