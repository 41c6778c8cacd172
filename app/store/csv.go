package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	log "github.com/go-pkgz/lgr"
)

// Header is the fixed columns row of the postings file: title, company, salary, location, description
var Header = []string{"职位名称", "公司", "薪资", "地点", "详情"}

const utf8BOM = "\ufeff"

// CSVFile implements Backend with a single csv file. Each save rewrites the whole file
// into a temporary file next to it and renames it over the target.
type CSVFile struct {
	path string
}

// NewCSVFile makes CSVFile backend for path, parent directories are created as needed
func NewCSVFile(path string) (*CSVFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to make directory for %s: %w", path, err)
	}
	return &CSVFile{path: path}, nil
}

// Load reads postings from the file. Missing or empty file is an empty list.
// IDs are assigned from row positions, starting with 1.
func (c *CSVFile) Load() ([]Posting, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[INFO] postings file %s doesn't exist, starting empty", c.path)
			return []Posting{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", c.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Posting{}, nil
	}
	return decodeCSV(bytes.NewReader(data))
}

// Save writes all postings to the file atomically
func (c *CSVFile) Save(postings []Posting) error {
	buf := bytes.Buffer{}
	if err := encodeCSV(&buf, postings); err != nil {
		return fmt.Errorf("failed to encode postings: %w", err)
	}
	return writeAtomic(c.path, buf.Bytes())
}

// Close is a no-op, the file is not kept open
func (c *CSVFile) Close() error { return nil }

func (c *CSVFile) String() string { return "csv:" + c.path }

func decodeCSV(r io.Reader) ([]Posting, error) {
	rd := csv.NewReader(r)
	rd.FieldsPerRecord = len(Header)

	header, err := rd.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: can't read header: %w", ErrMalformed, err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	if !slices.Equal(header, Header) {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrMalformed, strings.Join(header, ","))
	}

	res := []Posting{}
	for {
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		res = append(res, Posting{
			ID:          int64(len(res) + 1),
			Title:       rec[0],
			Company:     rec[1],
			Salary:      rec[2],
			Location:    rec[3],
			Description: rec[4],
		})
	}
	return res, nil
}

func encodeCSV(w io.Writer, postings []Posting) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, p := range postings {
		if err := cw.Write([]string{p.Title, p.Company, p.Salary, p.Location, p.Description}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeAtomic writes data to a temp file in the target's directory, syncs it and renames over the target
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // postings file is public data
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", tmp.Name(), path, err)
	}
	return nil
}
