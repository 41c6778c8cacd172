package store

import (
	"errors"
	"strings"
)

// ErrMalformed is returned when the backing storage can't be parsed into postings
var ErrMalformed = errors.New("malformed postings storage")

// Posting is a single job listing
type Posting struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title" jsonschema:"required,minLength=1"`
	Company     string `json:"company" db:"company" jsonschema:"required,minLength=1"`
	Salary      string `json:"salary" db:"salary"`
	Location    string `json:"location" db:"location"`
	Description string `json:"description" db:"description"`
}

// Validate checks presence of required fields. The store itself doesn't call it,
// this is the caller's responsibility before Append.
func (p Posting) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(p.Company) == "" {
		missing = append(missing, "company")
	}
	if len(missing) > 0 {
		return errors.New("missing required fields: " + strings.Join(missing, ", "))
	}
	return nil
}

// normalized returns posting with CR LF pairs in all text fields reduced to LF. The csv reader
// drops CR before LF, so pairs are replaced until none left and the stored text reads back unchanged.
func (p Posting) normalized() Posting {
	p.Title = normalizeLineBreaks(p.Title)
	p.Company = normalizeLineBreaks(p.Company)
	p.Salary = normalizeLineBreaks(p.Salary)
	p.Location = normalizeLineBreaks(p.Location)
	p.Description = normalizeLineBreaks(p.Description)
	return p
}

func normalizeLineBreaks(s string) string {
	for strings.Contains(s, "\r\n") {
		s = strings.ReplaceAll(s, "\r\n", "\n")
	}
	return s
}
