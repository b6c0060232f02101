package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed static/*
var staticFS embed.FS

// StaticAssets lists the embedded assets as served below /static/
func StaticAssets() ([]string, error) {
	var assets []string
	err := fs.WalkDir(staticFS, "static", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			assets = append(assets, strings.TrimPrefix(name, "static/"))
		}
		return nil
	})
	return assets, err
}

// staticAssetHandler serves the embedded bill page assets, cached for an hour.
// Directories and unknown names are 404.
func (s *WebServer) staticAssetHandler() (gin.HandlerFunc, error) {
	assets, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}
	fileServer := http.FileServerFS(assets)

	return func(c *gin.Context) {
		name := strings.TrimPrefix(c.Param("filepath"), "/")
		if name == "" || strings.HasSuffix(name, "/") || path.Clean(name) != name {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		if info, err := fs.Stat(assets, name); err != nil || info.IsDir() {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.Request.URL.Path = "/" + name
		c.Header("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(c.Writer, c.Request)
	}, nil
}
