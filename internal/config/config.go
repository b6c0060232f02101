// Package config provides configuration management for go-pokr.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/go-while/go-pokr/internal/errs"
)

var AppVersion = "-unset-" // will be set at build time

const (
	DefaultListenPort       = 11980
	DefaultPageLength       = 10
	DefaultMaxPageLength    = 100
	DefaultGlossaryCacheTTL = 24 * time.Hour
	DefaultOfficialURL      = "http://likms.assembly.go.kr/bill/jsp/BillDetail.jsp?bill_id=%s"

	// EnvPrefix is prepended to every environment override, e.g. POKR_WEB_LISTEN_PORT.
	EnvPrefix = "POKR"
)

// MainConfig holds the main configuration for go-pokr
type MainConfig struct {
	Web       WebConfig       `json:"web" mapstructure:"web"`
	Database  DatabaseConfig  `json:"database" mapstructure:"database"`
	Glossary  GlossaryConfig  `json:"glossary" mapstructure:"glossary"`
	Documents DocumentsConfig `json:"documents" mapstructure:"documents"`

	AppVersion string `json:"app_version" mapstructure:"-"` // Application version, set at build time
}

// WebConfig holds web interface configuration
type WebConfig struct {
	ListenPort    int    `json:"listen_port" mapstructure:"listen_port"`
	SSL           bool   `json:"ssl" mapstructure:"ssl"`
	CertFile      string `json:"cert_file,omitempty" mapstructure:"cert_file"`
	KeyFile       string `json:"key_file,omitempty" mapstructure:"key_file"`
	Debug         bool   `json:"debug" mapstructure:"debug"`
	PageLength    int    `json:"page_length" mapstructure:"page_length"`         // grid rows when "length" is absent
	MaxPageLength int    `json:"max_page_length" mapstructure:"max_page_length"` // upper bound for "length"
	OfficialURL   string `json:"official_url" mapstructure:"official_url"`       // fmt template with one %s for the link id
	// CurrentAssembly is used when the assemblies table has no rows.
	CurrentAssembly int64 `json:"current_assembly" mapstructure:"current_assembly"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path         string `json:"path" mapstructure:"path"` // sqlite file
	MaxOpenConns int    `json:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	WALMode      bool   `json:"wal_mode" mapstructure:"wal_mode"`
}

// GlossaryConfig points at the two static glossary inputs
type GlossaryConfig struct {
	DataDir  string        `json:"data_dir" mapstructure:"data_dir"`
	CacheTTL time.Duration `json:"cache_ttl" mapstructure:"cache_ttl"`
}

// DocumentsConfig describes where bill PDFs and texts live
type DocumentsConfig struct {
	Root    string `json:"root" mapstructure:"root"`       // base for relative document paths
	Charset string `json:"charset" mapstructure:"charset"` // legacy charset of non UTF-8 texts
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *MainConfig {
	return &MainConfig{
		AppVersion: AppVersion,
		Web: WebConfig{
			ListenPort:    DefaultListenPort,
			PageLength:    DefaultPageLength,
			MaxPageLength: DefaultMaxPageLength,
			OfficialURL:   DefaultOfficialURL,
		},
		Database: DatabaseConfig{
			Path:         "data/pokr.sq3",
			MaxOpenConns: 16,
			MaxIdleConns: 4,
			WALMode:      true,
		},
		Glossary: GlossaryConfig{
			DataDir:  "data",
			CacheTTL: DefaultGlossaryCacheTTL,
		},
		Documents: DocumentsConfig{
			Root:    "data/documents",
			Charset: "euc-kr",
		},
	}
}

// Load reads an optional config file plus POKR_* environment variables on top
// of NewDefaultConfig. An empty path searches ./config.{yaml,toml,json} and
// silently keeps the defaults when nothing is found.
func Load(path string) (*MainConfig, error) {
	v := viper.New()
	setDefaults(v, NewDefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errs.Wrap(err, "read config")
		}
	}

	cfg := NewDefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errs.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *MainConfig) {
	v.SetDefault("web.listen_port", d.Web.ListenPort)
	v.SetDefault("web.ssl", d.Web.SSL)
	v.SetDefault("web.cert_file", d.Web.CertFile)
	v.SetDefault("web.key_file", d.Web.KeyFile)
	v.SetDefault("web.debug", d.Web.Debug)
	v.SetDefault("web.page_length", d.Web.PageLength)
	v.SetDefault("web.max_page_length", d.Web.MaxPageLength)
	v.SetDefault("web.official_url", d.Web.OfficialURL)
	v.SetDefault("web.current_assembly", d.Web.CurrentAssembly)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.wal_mode", d.Database.WALMode)
	v.SetDefault("glossary.data_dir", d.Glossary.DataDir)
	v.SetDefault("glossary.cache_ttl", d.Glossary.CacheTTL)
	v.SetDefault("documents.root", d.Documents.Root)
	v.SetDefault("documents.charset", d.Documents.Charset)
}

// Validate rejects settings the server cannot run with.
func (c *MainConfig) Validate() error {
	if c.Web.ListenPort < 1024 || c.Web.ListenPort > 65535 {
		return fmt.Errorf("invalid web.listen_port %d (must be between 1024 and 65535)", c.Web.ListenPort)
	}
	if c.Web.SSL && (c.Web.CertFile == "" || c.Web.KeyFile == "") {
		return errors.New("web.ssl enabled but cert_file or key_file not specified")
	}
	if c.Web.PageLength <= 0 {
		return errors.New("web.page_length must be positive")
	}
	if c.Web.MaxPageLength < c.Web.PageLength {
		return errors.New("web.max_page_length cannot be below web.page_length")
	}
	if strings.Count(c.Web.OfficialURL, "%s") != 1 {
		return fmt.Errorf("web.official_url must contain exactly one %%s: %q", c.Web.OfficialURL)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Glossary.CacheTTL <= 0 {
		return errors.New("glossary.cache_ttl must be positive")
	}
	return nil
}
