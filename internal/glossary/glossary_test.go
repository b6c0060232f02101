package glossary

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github.com/go-while/go-pokr/internal/cache"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func writeData(t *testing.T, dir, terms, dictionary string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TermsFile), []byte(terms), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, MapFile), []byte(dictionary), 0o644))
}

func newRenderer(t *testing.T, dir string) (*Renderer, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	mc := cache.NewMemoryCache(8, cache.WithClock(clk.Now), cache.WithCleanupInterval(0))
	t.Cleanup(mc.Stop)
	r, err := NewRenderer(dir, mc, 0)
	require.NoError(t, err)
	return r, clk
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "  (법률안|의결)\n", `{"법률안": "a bill", "의결": "<b>resolution</b>"}`)
	r, _ := newRenderer(t, dir)

	script, err := r.Generate()
	require.NoError(t, err)
	require.Contains(t, script, `new RegExp("(법률안|의결)", 'g')`)
	require.Contains(t, script, `"법률안":"a bill"`)
	require.Contains(t, script, `\u003cb\u003eresolution\u003c/b\u003e`)
	require.NotContains(t, script, "<b>")
}

func TestGenerateRejectsBadData(t *testing.T) {
	dir := t.TempDir()
	r, _ := newRenderer(t, dir)

	_, err := r.Generate()
	require.ErrorIs(t, err, os.ErrNotExist)

	writeData(t, dir, "   ", `{}`)
	_, err = r.Generate()
	require.Error(t, err)

	writeData(t, dir, "a|b", `["a"]`)
	_, err = r.Generate()
	require.Error(t, err)

	writeData(t, dir, "a|b", `null`)
	_, err = r.Generate()
	require.Error(t, err)
}

func TestScriptIsCachedUntilExpiry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeData(t, dir, "old", `{"old": "first"}`)
	r, clk := newRenderer(t, dir)

	first, err := r.Script(ctx)
	require.NoError(t, err)
	require.Contains(t, first, `"old"`)

	writeData(t, dir, "new", `{"new": "second"}`)
	clk.Advance(23 * time.Hour)

	again, err := r.Script(ctx)
	require.NoError(t, err)
	require.Equal(t, first, again, "file edits stay invisible inside the cache window")

	clk.Advance(time.Hour)
	fresh, err := r.Script(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first, fresh)
	require.Contains(t, fresh, `"new":"second"`)
}

func TestNewRendererNeedsCache(t *testing.T) {
	_, err := NewRenderer(t.TempDir(), nil, time.Hour)
	require.Error(t, err)
}

func TestETag(t *testing.T) {
	tag := ETag("script")
	require.Len(t, tag, 66)
	sum := blake2b.Sum256([]byte("script"))
	require.Equal(t, `"`+hex.EncodeToString(sum[:])+`"`, tag)
	require.Equal(t, tag, ETag("script"))
	require.NotEqual(t, tag, ETag("script2"))
}
