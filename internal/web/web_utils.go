package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-pokr/internal/config"
	"github.com/go-while/go-pokr/internal/errs"
	"github.com/go-while/go-pokr/internal/logging"
	"github.com/go-while/go-pokr/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

// page templates, each rendered through base.html
var pageTemplates = []string{
	"bills.html",
	"bill.html",
	"bill-text.html",
	"not-found.html",
	"error.html",
}

var templateFuncs = template.FuncMap{
	"isodate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(models.DateLayout)
	},
}

func loadTemplates() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templatesFS, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		out[name] = tmpl
	}
	return out, nil
}

// getBaseTemplateData creates a TemplateData struct with common information
func (s *WebServer) getBaseTemplateData(c *gin.Context, title string, crumbs ...Breadcrumb) TemplateData {
	return TemplateData{
		Title:       title,
		CurrentTime: time.Now().Format("2006-01-02 15:04:05"),
		AppVersion:  config.AppVersion,
		RequestID:   requestID(c),
		Breadcrumbs: append([]Breadcrumb{{Name: "Bills", URL: "/bill/"}}, crumbs...),
	}
}

// renderTemplate renders a page into a buffer first so a failing template
// never leaves a partial page behind a 200 status.
func (s *WebServer) renderTemplate(c *gin.Context, statusCode int, templateName string, data any) {
	var buf bytes.Buffer
	err := fmt.Errorf("unknown template %s", templateName)
	if tmpl, ok := s.templates[templateName]; ok {
		err = tmpl.ExecuteTemplate(&buf, "base.html", data)
	}
	if err != nil {
		if templateName == "error.html" {
			c.String(statusCode, "%d %s", statusCode, http.StatusText(statusCode))
			return
		}
		s.renderError(c, http.StatusInternalServerError, "Template error", err.Error())
		return
	}
	c.Data(statusCode, "text/html; charset=utf-8", buf.Bytes())
}

// renderError renders an error page
func (s *WebServer) renderError(c *gin.Context, statusCode int, message string, errstring string) {
	errorData := struct {
		TemplateData
		Error      string
		StatusCode int
	}{
		TemplateData: s.getBaseTemplateData(c, "Error"),
		Error:        message,
		StatusCode:   statusCode,
	}
	logging.Warn(c.Request.Context(), "error page",
		slog.Int("status", statusCode),
		slog.String("message", message),
		slog.String("detail", errstring))
	s.renderTemplate(c, statusCode, "error.html", errorData)
}

// renderNotFound renders the 404 page
func (s *WebServer) renderNotFound(c *gin.Context) {
	data := s.getBaseTemplateData(c, "Not Found")
	s.renderTemplate(c, http.StatusNotFound, "not-found.html", data)
}

// renderRepoError maps repository and document errors onto the error pages
func (s *WebServer) renderRepoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		s.renderNotFound(c)
	case errors.Is(err, models.ErrMalformedRequest):
		s.renderError(c, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		logging.Error(c.Request.Context(), "request failed", slog.Any("err", errs.Loggable(err)))
		s.renderError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}

// queryInt64 returns def when name is absent or empty, and a malformed
// request error when the value is not an integer.
func queryInt64(c *gin.Context, name string, def int64) (int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", models.ErrMalformedRequest, name, raw)
	}
	return v, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	v, err := queryInt64(c, name, int64(def))
	if err != nil {
		return 0, err
	}
	if int64(int(v)) != v {
		return 0, fmt.Errorf("%w: %s out of range", models.ErrMalformedRequest, name)
	}
	return int(v), nil
}

// resolveAssembly reads assembly_id. An absent parameter means the current
// assembly, a present but empty one means assembly 0.
func (s *WebServer) resolveAssembly(c *gin.Context) (int64, error) {
	if _, ok := c.GetQuery("assembly_id"); ok {
		return queryInt64(c, "assembly_id", 0)
	}
	return s.Repo.CurrentAssemblyID(c.Request.Context())
}
