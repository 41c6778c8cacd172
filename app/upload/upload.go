// Package upload stores uploaded resume files in a location directory
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"
)

// ErrUnsupportedType returned for files with extension not in the allowed list
var ErrUnsupportedType = errors.New("unsupported file type")

// ErrInvalidName returned for empty or hidden file names
var ErrInvalidName = errors.New("invalid file name")

// ErrTooLarge returned when the uploaded content exceeds the size limit
var ErrTooLarge = errors.New("file too large")

// ResumeExtensions lists accepted resume file extensions
var ResumeExtensions = []string{".pdf", ".docx"}

// Storage keeps uploaded files in location
type Storage struct {
	location   string
	maxSize    int64
	extensions []string
}

// New makes Storage for location, the directory is created if missing.
// maxSize limits stored file size, 0 means no limit.
func New(location string, maxSize int64, extensions []string) (*Storage, error) {
	if err := os.MkdirAll(location, 0o700); err != nil {
		return nil, fmt.Errorf("can't make %s: %w", location, err)
	}
	return &Storage{location: location, maxSize: maxSize, extensions: extensions}, nil
}

// Save stores content under the base part of name and returns the stored file name.
// If the name is taken already, the stored name gets a unique prefix instead of overwriting.
func (s *Storage) Save(name string, r io.Reader) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "" || base == "." || base == "/" || strings.HasPrefix(base, ".") {
		return "", fmt.Errorf("%w %q", ErrInvalidName, name)
	}
	if !s.Allowed(base) {
		return "", fmt.Errorf("%w: %q, allowed %s", ErrUnsupportedType, base, strings.Join(s.extensions, ", "))
	}

	tmp, err := os.CreateTemp(s.location, ".upload-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file in %s: %w", s.location, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after successful link

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", base, err)
	}
	if s.maxSize > 0 && n > s.maxSize {
		return "", fmt.Errorf("%w: %s is over %d bytes", ErrTooLarge, base, s.maxSize)
	}

	stored := base
	// link fails if the target exists, so the first uploader's file is never overwritten
	if err = os.Link(tmp.Name(), filepath.Join(s.location, stored)); errors.Is(err, os.ErrExist) {
		stored = uuid.NewString()[:8] + "-" + base
		err = os.Link(tmp.Name(), filepath.Join(s.location, stored))
	}
	if err != nil {
		return "", fmt.Errorf("failed to save %s: %w", stored, err)
	}
	log.Printf("[INFO] stored upload %s, %d bytes", filepath.Join(s.location, stored), n)
	return stored, nil
}

// Allowed checks if the file name has one of the accepted extensions, case-insensitive
func (s *Storage) Allowed(name string) bool {
	return slices.Contains(s.extensions, strings.ToLower(filepath.Ext(name)))
}

// Extensions returns accepted extensions
func (s *Storage) Extensions() []string { return s.extensions }

func (s *Storage) String() string {
	return fmt.Sprintf("location:%s, max-size:%d, types:%s", s.location, s.maxSize, strings.Join(s.extensions, ","))
}
