package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-pokr/internal/errs"
	"github.com/go-while/go-pokr/internal/glossary"
	"github.com/go-while/go-pokr/internal/logging"
)

// glossaryScript handles GET /bill/glossary.js
func (s *WebServer) glossaryScript(c *gin.Context) {
	script, err := s.Glossary.Script(c.Request.Context())
	if err != nil {
		logging.Error(c.Request.Context(), "glossary script failed", slog.Any("err", errs.Loggable(err)))
		c.String(http.StatusInternalServerError, "// glossary unavailable\n")
		return
	}

	etag := glossary.ETag(script)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "public, max-age=3600")
	if etagMatches(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", []byte(script))
}

// etagMatches implements the weak comparison If-None-Match asks for
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
