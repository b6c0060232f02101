// Package glossary renders the script that highlights glossary terms in bill
// texts. The rendered script is cached for a fixed window; edits to the data
// files only show up after the cached copy expires.
package glossary

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/go-while/go-pokr/internal/cache"
	"github.com/go-while/go-pokr/internal/errs"
	"github.com/go-while/go-pokr/internal/logging"
)

const (
	// CacheKey is the single key the rendered script lives under.
	CacheKey = "glossary:script"

	TermsFile = "glossary-terms.regex"
	MapFile   = "glossary-map.json"

	DefaultTTL = 24 * time.Hour
)

//go:embed glossary.js.tmpl
var scriptTemplate string

var tmpl = template.Must(template.New("glossary.js").Parse(scriptTemplate))

// Renderer builds the glossary script from DataDir and memoizes it in Cache.
type Renderer struct {
	dataDir string
	cache   cache.Cache
	ttl     time.Duration
}

// NewRenderer returns a Renderer; ttl <= 0 falls back to DefaultTTL
func NewRenderer(dataDir string, c cache.Cache, ttl time.Duration) (*Renderer, error) {
	if c == nil {
		return nil, errors.New("glossary: cache is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Renderer{dataDir: dataDir, cache: c, ttl: ttl}, nil
}

// Script returns the cached script, rendering and storing it on a miss.
// Concurrent misses may render twice; both store the same value.
func (r *Renderer) Script(ctx context.Context) (string, error) {
	ctx = logging.WithAttrs(ctx, slog.String("component", "glossary"))

	if cached, found, err := r.cache.Get(ctx, CacheKey); err != nil {
		return "", errs.Wrap(err, "glossary cache get")
	} else if found {
		return cached, nil
	}

	script, err := r.Generate()
	if err != nil {
		return "", err
	}
	if err := r.cache.Set(ctx, CacheKey, script, r.ttl); err != nil {
		return "", errs.Wrap(err, "glossary cache set")
	}
	logging.Info(ctx, "glossary script rendered",
		slog.Int("bytes", len(script)), slog.Duration("ttl", r.ttl))
	return script, nil
}

type scriptData struct {
	TermsPattern string // JSON string literal
	Dictionary   string // JSON object
}

// Generate renders the script from the current data files, bypassing the cache
func (r *Renderer) Generate() (string, error) {
	terms, err := readTrimmed(filepath.Join(r.dataDir, TermsFile))
	if err != nil {
		return "", err
	}
	if terms == "" {
		return "", fmt.Errorf("glossary: %s is empty", TermsFile)
	}
	dictionary, err := readTrimmed(filepath.Join(r.dataDir, MapFile))
	if err != nil {
		return "", err
	}
	var entries map[string]any
	if err := json.Unmarshal([]byte(dictionary), &entries); err != nil {
		return "", errs.Wrapf(err, "glossary: %s is not a JSON object", MapFile)
	}
	if entries == nil {
		return "", fmt.Errorf("glossary: %s is not a JSON object", MapFile)
	}

	// Re-encoding escapes <, > and & so the script can sit inline in a page.
	pattern, err := json.Marshal(terms)
	if err != nil {
		return "", errs.Wrap(err, "glossary: encode terms pattern")
	}
	encoded, err := json.Marshal(entries)
	if err != nil {
		return "", errs.Wrap(err, "glossary: encode dictionary")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, scriptData{TermsPattern: string(pattern), Dictionary: string(encoded)}); err != nil {
		return "", errs.Wrap(err, "glossary: render script")
	}
	return buf.String(), nil
}

func readTrimmed(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errs.Wrapf(err, "glossary: read %s", path)
	}
	return strings.TrimSpace(string(raw)), nil
}

// ETag returns a strong entity tag for script: the hex BLAKE2b-256 digest
func ETag(script string) string {
	sum := blake2b.Sum256([]byte(script))
	return `"` + hex.EncodeToString(sum[:]) + `"`
}
