// Package notify delivers notifications about new postings and guestbook messages
// to email and webhook destinations.
package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"
	"github.com/go-pkgz/syncs"

	"github.com/whale-jobs/whale/app/guestbook"
	"github.com/whale-jobs/whale/app/store"
)

//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports github.com/go-pkgz/notify Notifier
//go:generate moq -out mocks/repeater.go -pkg mocks -skip-ensure -fmt goimports . Repeater

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Service sends notifications to all configured destinations
type Service struct {
	destinations []notify.Notifier
	fromEmail    string
	toEmail      []string
	webhooks     []string
	params       Params
	repeater     Repeater

	postingTmpl msgTemplate
	messageTmpl msgTemplate
}

// msgTemplate is a custom template with embedded default used if custom is missing or fails
type msgTemplate struct {
	custom *template.Template
	dflt   *template.Template
}

// Repeater repeats failed function
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// Params defines what to notify about and how
type Params struct {
	EnabledPosting  bool
	EnabledMessage  bool
	PostingTemplate string // custom template file for new posting, embedded default used if empty or broken
	MessageTemplate string // custom template file for new message, embedded default used if empty or broken
	SiteName        string
	Concurrency     int // max destinations notified in parallel
	Repeater        Repeater
}

// SendersParams defines destinations
type SendersParams struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPTLS      bool
	Timeout      time.Duration
	FromEmail    string
	ToEmails     []string
	Webhooks     []string
}

// NewService makes notification service. Returns nil if no destinations defined.
func NewService(p Params, sp SendersParams) *Service {
	if len(sp.ToEmails) == 0 && len(sp.Webhooks) == 0 {
		return nil
	}

	res := &Service{params: p, fromEmail: sp.FromEmail, toEmail: sp.ToEmails, webhooks: sp.Webhooks, repeater: p.Repeater}
	if res.params.Concurrency <= 0 {
		res.params.Concurrency = 4
	}
	if res.params.SiteName == "" {
		res.params.SiteName = "whale"
	}

	if len(sp.ToEmails) > 0 {
		res.destinations = append(res.destinations, notify.NewEmail(notify.SMTPParams{
			Host:        sp.SMTPHost,
			Port:        sp.SMTPPort,
			TLS:         sp.SMTPTLS,
			Username:    sp.SMTPUsername,
			Password:    sp.SMTPPassword,
			TimeOut:     sp.Timeout,
			ContentType: "text/html",
		}))
	}
	if len(sp.Webhooks) > 0 {
		res.destinations = append(res.destinations, notify.NewWebhook(notify.WebhookParams{Timeout: sp.Timeout}))
	}

	res.postingTmpl = loadTemplate(p.PostingTemplate, "templates/posting.tmpl")
	res.messageTmpl = loadTemplate(p.MessageTemplate, "templates/message.tmpl")
	return res
}

// IsOnPosting status enabling new posting notifications
func (s *Service) IsOnPosting() bool { return s.params.EnabledPosting }

// IsOnMessage status enabling guestbook message notifications
func (s *Service) IsOnMessage() bool { return s.params.EnabledMessage }

// OnPosting sends notification about new posting, if enabled
func (s *Service) OnPosting(ctx context.Context, p store.Posting) error {
	if !s.IsOnPosting() {
		return nil
	}
	msg, err := s.MakePostingHTML(p)
	if err != nil {
		return fmt.Errorf("can't make posting notification: %w", err)
	}
	return s.Send(ctx, fmt.Sprintf("new posting %q at %s on %s", p.Title, p.Company, s.params.SiteName), msg)
}

// OnMessage sends notification about new guestbook message, if enabled
func (s *Service) OnMessage(ctx context.Context, m guestbook.Message) error {
	if !s.IsOnMessage() {
		return nil
	}
	msg, err := s.MakeMessageHTML(m)
	if err != nil {
		return fmt.Errorf("can't make message notification: %w", err)
	}
	return s.Send(ctx, fmt.Sprintf("new message from %s on %s", m.Name, s.params.SiteName), msg)
}

// MakePostingHTML creates html body for a new posting
func (s *Service) MakePostingHTML(p store.Posting) (string, error) {
	data := struct {
		store.Posting
		Site string
		TS   time.Time
	}{Posting: p, Site: s.params.SiteName, TS: time.Now()}
	return s.postingTmpl.execute(data)
}

// MakeMessageHTML creates html body for a guestbook message
func (s *Service) MakeMessageHTML(m guestbook.Message) (string, error) {
	data := struct {
		guestbook.Message
		Site string
		TS   time.Time
	}{Message: m, Site: s.params.SiteName, TS: time.Now()}
	return s.messageTmpl.execute(data)
}

// Send delivers subj and text to all destinations in parallel, each one with repeater if set.
// Returns joined errors of all failed destinations.
func (s *Service) Send(ctx context.Context, subj, text string) error {
	dests := make([]string, 0, len(s.webhooks)+1)
	if len(s.toEmail) > 0 {
		dests = append(dests, s.mailto(subj))
	}
	dests = append(dests, s.webhooks...)

	concurrency := s.params.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var errs []error
	var mu sync.Mutex
	gr := syncs.NewSizedGroup(concurrency)
	for _, dest := range dests {
		gr.Go(func(context.Context) {
			send := func() error { return notify.Send(ctx, s.destinations, dest, text) }
			var err error
			if s.repeater != nil {
				err = s.repeater.Do(ctx, send)
			} else {
				err = send()
			}
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		})
	}
	gr.Wait()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	log.Printf("[DEBUG] notification %q sent to %d destination(s)", subj, len(dests))
	return nil
}

func (s *Service) mailto(subj string) string {
	return fmt.Sprintf("mailto:%s?from=%s&subject=%s", strings.Join(s.toEmail, ","), s.fromEmail, url.QueryEscape(subj))
}

// loadTemplate parses custom template file if set, and the embedded default
func loadTemplate(customFile, defaultName string) msgTemplate {
	res := msgTemplate{dflt: template.Must(template.ParseFS(templatesFS, defaultName))}
	if customFile == "" {
		return res
	}
	data, err := os.ReadFile(customFile) //nolint:gosec // template path from trusted config
	if err != nil {
		log.Printf("[WARN] can't read custom template %s, fallback to default: %v", customFile, err)
		return res
	}
	if res.custom, err = template.New("custom").Parse(string(data)); err != nil {
		log.Printf("[WARN] can't parse custom template %s, fallback to default: %v", customFile, err)
	}
	return res
}

func (m msgTemplate) execute(data any) (string, error) {
	if m.custom != nil {
		buf := bytes.Buffer{}
		err := m.custom.Execute(&buf, data)
		if err == nil {
			return buf.String(), nil
		}
		log.Printf("[WARN] can't execute custom template, fallback to default: %v", err)
	}
	buf := bytes.Buffer{}
	if err := m.dflt.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to apply template: %w", err)
	}
	return buf.String(), nil
}
