package main

import (
	"flag"
	"time"

	"github.com/go-while/go-pokr/internal/config"
)

// webFlags are command-line overrides applied on top of the loaded config.
// Zero values leave the config untouched.
type webFlags struct {
	configPath  string
	webport     int
	webssl      bool
	webcertFile string
	webkeyFile  string
	dataDir     string
	dbPath      string
	docRoot     string
	glossaryTTL time.Duration
	pprofAddr   string
	debug       bool
}

func (f *webFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "config file (yaml, toml or json); default searches ./config.* and ./configs/config.*")
	fs.IntVar(&f.webport, "webport", 0, "Web server port (default: 11980)")
	fs.BoolVar(&f.webssl, "webssl", false, "Enable SSL")
	fs.StringVar(&f.webcertFile, "websslcert", "", "SSL certificate file (/path/to/fullchain.pem)")
	fs.StringVar(&f.webkeyFile, "websslkey", "", "SSL key file (/path/to/privkey.pem)")
	fs.StringVar(&f.dataDir, "datadir", "", "directory holding glossary-terms.regex and glossary-map.json (default: ./data)")
	fs.StringVar(&f.dbPath, "db", "", "sqlite database file (default: data/pokr.sq3)")
	fs.StringVar(&f.docRoot, "docroot", "", "base directory for relative bill document paths (default: data/documents)")
	fs.DurationVar(&f.glossaryTTL, "glossary-ttl", 0, "glossary script cache lifetime (default: 24h)")
	fs.StringVar(&f.pprofAddr, "pprof", "", "start the pprof web endpoint on this address, e.g. :51111")
	fs.BoolVar(&f.debug, "debug", false, "gin debug mode")
}

func (f *webFlags) apply(cfg *config.MainConfig) {
	if f.webport > 0 {
		cfg.Web.ListenPort = f.webport
	}
	if f.webssl {
		cfg.Web.SSL = true
	}
	if f.webcertFile != "" {
		cfg.Web.CertFile = f.webcertFile
	}
	if f.webkeyFile != "" {
		cfg.Web.KeyFile = f.webkeyFile
	}
	if f.dataDir != "" {
		cfg.Glossary.DataDir = f.dataDir
	}
	if f.dbPath != "" {
		cfg.Database.Path = f.dbPath
	}
	if f.docRoot != "" {
		cfg.Documents.Root = f.docRoot
	}
	if f.glossaryTTL > 0 {
		cfg.Glossary.CacheTTL = f.glossaryTTL
	}
	if f.debug {
		cfg.Web.Debug = true
	}
}
