package documents

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-while/go-pokr/internal/models"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestResolve(t *testing.T) {
	s := NewStore("/srv/docs", "euc-kr")
	require.Equal(t, "/srv/docs/pdf/1.pdf", s.Resolve("pdf/1.pdf"))
	require.Equal(t, "/abs/1.pdf", s.Resolve("/abs/1.pdf"))

	require.Equal(t, "pdf/1.pdf", NewStore("", "").Resolve("pdf/1.pdf"))
}

func TestStatMissing(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, "")

	_, _, err := s.Stat("")
	require.ErrorIs(t, err, models.ErrNotFound)
	_, _, err = s.Stat("missing.pdf")
	require.ErrorIs(t, err, models.ErrNotFound)
	_, _, err = s.Stat(".")
	require.ErrorIs(t, err, models.ErrNotFound)

	writeFile(t, dir, "1.pdf", []byte("%PDF-1.4"))
	full, info, err := s.Stat("1.pdf")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "1.pdf"), full)
	require.EqualValues(t, 8, info.Size())
}

func TestReadTextUTF8(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "1.txt", []byte("\xef\xbb\xbf제1조 목적\r\n제2조 정의\n"))

	text, err := NewStore(dir, "euc-kr").ReadText("1.txt")
	require.NoError(t, err)
	require.Equal(t, "utf-8", text.Charset)
	require.Equal(t, []string{"제1조 목적", "제2조 정의"}, text.Lines)
}

func TestReadTextLegacyCharset(t *testing.T) {
	dir := t.TempDir()
	// "법안 제1조" in EUC-KR
	writeFile(t, dir, "2.txt", []byte("\xb9\xfd\xbe\xc8 \xc1\xa61\xc1\xb6\n"))

	text, err := NewStore(dir, "cp949").ReadText("2.txt")
	require.NoError(t, err)
	require.Equal(t, "euc-kr", text.Charset)
	require.Equal(t, []string{"법안 제1조"}, text.Lines)
}

func TestReadTextUnknownCharsetFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "3.txt", []byte("ok\xff"))

	text, err := NewStore(dir, "no-such-charset").ReadText("3.txt")
	require.NoError(t, err)
	require.Equal(t, "utf-8", text.Charset)
	require.Equal(t, []string{"ok�"}, text.Lines)
}

func TestReadTextMissing(t *testing.T) {
	_, err := NewStore(t.TempDir(), "").ReadText("nope.txt")
	require.ErrorIs(t, err, models.ErrNotFound)
}
