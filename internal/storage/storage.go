// Package storage keeps story media on the local filesystem under date and user partitions
package storage

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidPath is returned for relative paths escaping the storage root
var ErrInvalidPath = errors.New("invalid media path")

// localStorage implements media storage using local filesystem
type localStorage struct {
	basePath string
	baseURL  string
	now      func() time.Time
}

// NewLocalStorage creates a new localStorage instance
func NewLocalStorage(basePath, baseURL string) *localStorage {
	return &localStorage{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		now:      time.Now,
	}
}

// relativePath builds YYYY/MM/user_<id>/<uuid>.<ext> with forward slashes
func (s *localStorage) relativePath(userID int, logicalName string) string {
	now := s.now()
	return path.Join(
		fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", int(now.Month())),
		fmt.Sprintf("user_%d", userID),
		GenerateFileName(filepath.Ext(logicalName)),
	)
}

// resolve turns a stored relative path into a filesystem path inside the base directory
func (s *localStorage) resolve(relPath string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(relPath, "\\", "/"))
	if relPath == "" || cleaned == "/" || strings.Contains(relPath, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.basePath, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}

// Save writes the reader to a new file owned by userID and returns its relative path and size
func (s *localStorage) Save(r io.Reader, userID int, logicalName string) (string, int64, error) {
	relPath := s.relativePath(userID, logicalName)
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create media directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create media file: %w", err)
	}

	sw := NewSizeWriter()
	if _, err := io.Copy(file, io.TeeReader(r, sw)); err != nil {
		file.Close()
		os.Remove(fullPath)
		return "", 0, fmt.Errorf("failed to write media file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(fullPath)
		return "", 0, fmt.Errorf("failed to close media file: %w", err)
	}

	return relPath, sw.Size(), nil
}

// Delete removes the file at relPath; a missing file is reported as an error for the caller to log
func (s *localStorage) Delete(relPath string) error {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete media file %s: %w", relPath, err)
	}
	return nil
}

// URLFor returns the public URL of a stored file, or an empty string for an empty path
func (s *localStorage) URLFor(relPath string) string {
	if relPath == "" {
		return ""
	}
	segments := strings.Split(strings.TrimPrefix(relPath, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return s.baseURL + "/" + strings.Join(segments, "/")
}

// Root returns the directory serving as storage root
func (s *localStorage) Root() string {
	return s.basePath
}
