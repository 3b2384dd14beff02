// Package storage keeps uploaded files on local disk under a single directory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"valvx/internal/domain"
)

// PublicPrefix is the URL path uploaded files are served under.
const PublicPrefix = "/uploads/"

// MaxNameBytes bounds generated file names: the common filesystem limit,
// which also fits the file_path VARCHAR(255) columns.
const MaxNameBytes = 255

const maxExtBytes = 16

var whitespace = regexp.MustCompile(`\s+`)

// DiskStore writes files to dir using generated, collision-resistant names.
type DiskStore struct {
	dir string
	now func() time.Time
}

// Saved describes a stored file. Name is relative to the store directory.
type Saved struct {
	Name string
	Size int64
}

// NewDiskStore creates dir if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &DiskStore{dir: dir, now: time.Now}, nil
}

// Dir returns the directory files are stored in.
func (s *DiskStore) Dir() string { return s.dir }

// Save copies r into a new file named after originalName. Content larger than
// limit bytes is rejected with domain.ErrTooLarge and nothing is left on disk.
func (s *DiskStore) Save(ctx context.Context, originalName string, r io.Reader, limit int64) (*Saved, error) {
	name := s.GenerateName(originalName)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	n, err := io.Copy(tmp, io.LimitReader(contextReader{ctx, r}, limit+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if n > limit {
		return nil, fmt.Errorf("file exceeds %d bytes: %w", limit, domain.ErrTooLarge)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	return &Saved{Name: name, Size: n}, nil
}

// GenerateName builds pdf-<unixmillis>-<6 random base36 chars>-<original>,
// with whitespace in the original name replaced by underscores. Long
// originals are shortened so the result fits in MaxNameBytes.
func (s *DiskStore) GenerateName(originalName string) string {
	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(originalName, "\\", "/")))
	if base == "/" || base == "." {
		base = "file.pdf"
	}
	base = whitespace.ReplaceAllString(base, "_")
	prefix := fmt.Sprintf("pdf-%d-%s-", s.now().UnixMilli(), RandomSuffix())
	return prefix + truncateName(base, MaxNameBytes-len(prefix))
}

// truncateName cuts name to at most limit bytes on a rune boundary, keeping
// a short extension such as ".pdf".
func truncateName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) > maxExtBytes || len(ext) >= limit {
		ext = ""
	}
	stem := strings.TrimSuffix(name, ext)
	budget := limit - len(ext)

	cut := 0
	for cut < len(stem) {
		_, size := utf8.DecodeRuneInString(stem[cut:])
		if cut+size > budget {
			break
		}
		cut += size
	}
	return stem[:cut] + ext
}

// RandomSuffix returns 6 random lowercase base36 characters.
func RandomSuffix() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 6)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}

// Open opens a stored file for reading.
func (s *DiskStore) Open(name string) (*os.File, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file %s: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *DiskStore) Remove(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// PublicURL returns the URL path a stored file is served at.
func (s *DiskStore) PublicURL(name string) string {
	if name == "" {
		return ""
	}
	return PublicPrefix + url.PathEscape(name)
}

// resolve maps a stored name to a path, rejecting anything that is not a
// plain file name inside the store directory.
func (s *DiskStore) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.HasPrefix(name, ".upload-") {
		return "", fmt.Errorf("invalid file name %s: %w", strconv.Quote(name), domain.ErrValidation)
	}
	return filepath.Join(s.dir, name), nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
