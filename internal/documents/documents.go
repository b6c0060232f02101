// Package documents opens the pdf and text files referenced by bill records.
package documents

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/go-while/go-pokr/internal/errs"
	"github.com/go-while/go-pokr/internal/models"
)

// Store resolves document paths against a root directory
type Store struct {
	root    string
	charset string
}

// NewStore returns a Store; charset is used for texts that are not valid UTF-8
func NewStore(root, charset string) *Store {
	return &Store{root: root, charset: normalizeCharsetName(charset)}
}

// Resolve returns an absolute path as is and joins a relative one to the root
func (s *Store) Resolve(path string) string {
	if filepath.IsAbs(path) || s.root == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(s.root, path)
}

// Stat resolves path and checks it is a regular file; models.ErrNotFound otherwise
func (s *Store) Stat(path string) (string, fs.FileInfo, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil, models.ErrNotFound
	}
	full := s.Resolve(path)
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return full, nil, fmt.Errorf("document %s: %w", full, models.ErrNotFound)
		}
		return full, nil, errs.Wrapf(err, "stat document %s", full)
	}
	if info.IsDir() {
		return full, nil, fmt.Errorf("document %s is a directory: %w", full, models.ErrNotFound)
	}
	return full, info, nil
}

// Text is a decoded text document
type Text struct {
	Path    string
	Charset string
	Lines   []string
}

// ReadText reads the whole document. Valid UTF-8 is kept; anything else is
// decoded from the store's charset.
func (s *Store) ReadText(path string) (*Text, error) {
	full, _, err := s.Stat(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(full)
	if err != nil {
		return nil, errs.Wrapf(err, "read document %s", full)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	charset := "utf-8"
	content := string(raw)
	if !utf8.Valid(raw) {
		charset = s.charset
		content, err = decodeCharsetToUTF8(raw, charset)
		if err != nil {
			charset = "utf-8"
			content = strings.ToValidUTF8(string(raw), "�")
		}
	}
	return &Text{Path: full, Charset: charset, Lines: splitLines(content)}, nil
}

func splitLines(content string) []string {
	lines := make([]string, 0, strings.Count(content, "\n")+1)
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	return lines
}

// decodeCharsetToUTF8 converts bytes from the specified charset to UTF-8 string
func decodeCharsetToUTF8(data []byte, charset string) (string, error) {
	charset = normalizeCharsetName(charset)
	if charset == "utf-8" {
		return string(data), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("unsupported charset: %s", charset)
	}

	result, _, err := transform.String(enc.NewDecoder(), string(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode from %s: %w", charset, err)
	}
	return result, nil
}

// normalizeCharsetName normalizes charset names to match htmlindex expectations
func normalizeCharsetName(charset string) string {
	normalized := strings.ToLower(strings.TrimSpace(charset))
	switch normalized {
	case "", "utf-8", "utf8":
		return "utf-8"
	case "euckr", "euc_kr", "ks_c_5601-1987", "ksc5601", "cp949", "uhc":
		return "euc-kr"
	case "latin-1", "latin1", "iso8859-1", "iso_8859-1":
		return "iso-8859-1"
	default:
		return normalized
	}
}
