// Package media stores uploaded files such as book icons on local disk.
// Entities keep only the path relative to the store root.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// BookIconsDir is the subdirectory icons are written to.
const BookIconsDir = "book_icons"

var (
	ErrNotAnImage   = errors.New("file is not an image")
	ErrFileTooLarge = errors.New("file exceeds the size limit")
	ErrEmptyFile    = errors.New("file is empty")
	ErrInvalidPath  = errors.New("invalid media path")
	ErrNotFound     = errors.New("media file not found")
)

// Store handles media files under a root directory.
type Store struct {
	root         string
	maxIconBytes int64
}

// NewStore creates the root and icon directories if needed.
func NewStore(root string, maxIconBytes int64) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, BookIconsDir), 0755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Store{root: root, maxIconBytes: maxIconBytes}, nil
}

// Root returns the media root directory.
func (s *Store) Root() string {
	return s.root
}

// SaveBookIcon writes an uploaded icon as book_icons/<bookID>_<id>.<ext> and
// returns that relative path. The content type is sniffed from the data.
func (s *Store) SaveBookIcon(bookID uint, r io.Reader) (string, *mimetype.MIME, error) {
	limit := s.maxIconBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", nil, ErrEmptyFile
	}
	if int64(len(data)) > limit {
		return "", nil, ErrFileTooLarge
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", nil, fmt.Errorf("%w: detected %s", ErrNotAnImage, mtype.String())
	}

	id, err := gonanoid.New(12)
	if err != nil {
		return "", nil, fmt.Errorf("generate file name: %w", err)
	}
	rel := filepath.ToSlash(filepath.Join(BookIconsDir, fmt.Sprintf("%d_%s%s", bookID, id, mtype.Extension())))

	if err := s.writeAtomic(rel, data); err != nil {
		return "", nil, err
	}
	return rel, mtype, nil
}

// writeAtomic writes through a temp file in the target directory and renames it.
func (s *Store) writeAtomic(rel string, data []byte) error {
	target := filepath.Join(s.root, filepath.FromSlash(rel))

	tmpFile, err := os.CreateTemp(filepath.Dir(target), "upload_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmpFile, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, target)
}

// Path resolves a stored relative path to a file on disk. Paths escaping the
// root are rejected.
func (s *Store) Path(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", ErrInvalidPath
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	full := filepath.Join(s.root, clean)
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	return full, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(rel string) error {
	full, err := s.Path(rel)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveBookIcons deletes every icon stored for a book.
func (s *Store) RemoveBookIcons(bookID uint) error {
	pattern := filepath.Join(s.root, BookIconsDir, fmt.Sprintf("%d_*", bookID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
