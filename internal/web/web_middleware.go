package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/go-while/go-pokr/internal/logging"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	maxRequestIDLen = 64
)

// RequestIDMiddleware accepts a sane incoming X-Request-ID or assigns a new
// uuid, echoes it and puts it on the request context for logging.
func (s *WebServer) RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		ctx := logging.WithAttrs(c.Request.Context(),
			slog.String("component", "web"),
			slog.String(requestIDKey, id))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		b := id[i]
		switch {
		case b >= '0' && b <= '9', b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b == '-', b == '_', b == '.':
		default:
			return false
		}
	}
	return true
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AccessLogMiddleware writes one structured line per request
func (s *WebServer) AccessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
			slog.Int("size", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}
		if status >= http.StatusInternalServerError {
			logging.Error(c.Request.Context(), "http request", attrs...)
			return
		}
		logging.Info(c.Request.Context(), "http request", attrs...)
	}
}

func (s *WebServer) recoverPanic(c *gin.Context, recovered any) {
	logging.Error(c.Request.Context(), "panic recovered", slog.Any("panic", recovered))
	s.renderError(c, http.StatusInternalServerError, "Internal Server Error", "unexpected failure")
	c.Abort()
}

// ReverseProxyMiddleware handles X-Forwarded headers when running behind a reverse proxy.
// The client ip itself comes from gin's trusted proxy handling.
func (s *WebServer) ReverseProxyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.fromTrustedProxy(c) {
			c.Next()
			return
		}
		// Handle X-Forwarded-Proto to detect if the original request was HTTPS
		if proto := c.GetHeader("X-Forwarded-Proto"); proto == "https" {
			c.Request.URL.Scheme = "https"
		}
		// Handle X-Forwarded-Host to get the original host
		if host := c.GetHeader("X-Forwarded-Host"); host != "" {
			c.Request.Host = host
		}
		c.Next()
	}
}

// fromTrustedProxy reports whether gin resolved the client ip through a
// trusted proxy hop, i.e. the forwarded headers are worth reading.
func (s *WebServer) fromTrustedProxy(c *gin.Context) bool {
	return c.ClientIP() != c.RemoteIP()
}
