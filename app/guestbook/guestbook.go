// Package guestbook records contact messages to an append-only text file, one line per message
package guestbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/go-pkgz/lgr"
)

// Message is a single guestbook entry
type Message struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Text  string `json:"text"`
}

// String formats message as a single log line
func (m Message) String() string {
	return fmt.Sprintf("姓名: %s, 邮箱: %s, 留言: %s", oneLine(m.Name), oneLine(m.Email), oneLine(m.Text))
}

// Book appends messages to a file. Thread safe.
type Book struct {
	path string
	mu   sync.Mutex
}

// New makes Book for the given file path, parent directories are created as needed
func New(path string) (*Book, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to make directory for %s: %w", path, err)
	}
	return &Book{path: path}, nil
}

// Add appends message to the file
func (b *Book) Add(msg Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	fh, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", b.path, err)
	}
	if _, err = fh.WriteString(msg.String() + "\n"); err != nil {
		_ = fh.Close()
		return fmt.Errorf("failed to write message to %s: %w", b.path, err)
	}
	if err = fh.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", b.path, err)
	}
	log.Printf("[DEBUG] guestbook message from %q recorded", msg.Name)
	return nil
}

func (b *Book) String() string { return b.path }

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// oneLine keeps a multi-line value on a single line of the file, other whitespace is kept as is
func oneLine(s string) string {
	return lineBreaks.Replace(s)
}
