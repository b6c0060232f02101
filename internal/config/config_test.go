package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-while/go-pokr/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.DefaultListenPort, cfg.Web.ListenPort)
	require.Equal(t, 10, cfg.Web.PageLength)
	require.Equal(t, 100, cfg.Web.MaxPageLength)
	require.Equal(t, config.DefaultOfficialURL, cfg.Web.OfficialURL)
	require.Equal(t, "data/pokr.sq3", cfg.Database.Path)
	require.Equal(t, 24*time.Hour, cfg.Glossary.CacheTTL)
	require.Equal(t, "euc-kr", cfg.Documents.Charset)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pokr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
web:
  listen_port: 18080
  max_page_length: 50
glossary:
  data_dir: /srv/glossary
  cache_ttl: 2h
`), 0o644))

	t.Setenv("POKR_DOCUMENTS_ROOT", "/srv/docs")
	t.Setenv("POKR_WEB_CURRENT_ASSEMBLY", "19")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 18080, cfg.Web.ListenPort)
	require.Equal(t, 50, cfg.Web.MaxPageLength)
	require.Equal(t, 10, cfg.Web.PageLength)
	require.Equal(t, "/srv/glossary", cfg.Glossary.DataDir)
	require.Equal(t, 2*time.Hour, cfg.Glossary.CacheTTL)
	require.Equal(t, "/srv/docs", cfg.Documents.Root)
	require.EqualValues(t, 19, cfg.Web.CurrentAssembly)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *config.MainConfig){
		"port":        func(c *config.MainConfig) { c.Web.ListenPort = 80 },
		"ssl":         func(c *config.MainConfig) { c.Web.SSL = true },
		"page length": func(c *config.MainConfig) { c.Web.PageLength = 0 },
		"max length":  func(c *config.MainConfig) { c.Web.MaxPageLength = 5 },
		"url":         func(c *config.MainConfig) { c.Web.OfficialURL = "http://example.org/" },
		"db":          func(c *config.MainConfig) { c.Database.Path = "" },
		"ttl":         func(c *config.MainConfig) { c.Glossary.CacheTTL = 0 },
	}
	require.NoError(t, config.NewDefaultConfig().Validate())
	for name, mutate := range cases {
		cfg := config.NewDefaultConfig()
		mutate(cfg)
		require.Error(t, cfg.Validate(), name)
	}
}
