// Package web implements the web server for the job board: html pages with HTMX partials and JSON API
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"image"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/whale-jobs/whale/app/enhance"
	"github.com/whale-jobs/whale/app/guestbook"
	"github.com/whale-jobs/whale/app/store"
	"github.com/whale-jobs/whale/app/web/enums"
)

//go:generate moq -out mocks/job_store.go -pkg mocks -skip-ensure -fmt goimports . JobStore
//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server represents the web server
type Server struct {
	store          JobStore
	resumes        ResumeStorage
	images         ImageWorkspace
	guestbook      MessageBook
	notifier       Notifier
	templates      map[string]*template.Template
	baseURL        string // base URL path for reverse proxy (e.g., /whale), empty for root
	siteName       string
	version        string
	outputImage    string        // where enhanced image is saved
	maxUploadSize  int64         // max size of resume or image upload
	maxImagePixels int           // max decoded image size
	notifyTimeout  time.Duration // timeout for async notifications
	csrfProtection *http.CrossOriginProtection
	postLimiter    *limiter.Limiter // rate limiter for mutating endpoints
}

// JobStore defines postings operations used by web handlers
type JobStore interface {
	Search(keyword string) []store.Posting
	Append(p store.Posting) ([]store.Posting, error)
	Get(id int64) (store.Posting, bool)
	Len() int
}

// ResumeStorage saves uploaded resumes
type ResumeStorage interface {
	Save(name string, r io.Reader) (string, error)
	Extensions() []string
}

// ImageWorkspace keeps uploaded images between preview requests
type ImageWorkspace interface {
	Put(img image.Image) string
	Get(id string) (image.Image, error)
}

// MessageBook records guestbook messages
type MessageBook interface {
	Add(msg guestbook.Message) error
}

// Notifier sends notifications about new postings and messages
type Notifier interface {
	OnPosting(ctx context.Context, p store.Posting) error
	OnMessage(ctx context.Context, m guestbook.Message) error
}

// Config holds server configuration
type Config struct {
	Store           JobStore       // required
	Resumes         ResumeStorage  // required
	Images          ImageWorkspace // required
	Guestbook       MessageBook    // required
	Notifier        Notifier       // optional, nil disables notifications
	BaseURL         string         // base URL path for reverse proxy (e.g., /whale), empty for root
	SiteName        string
	Version         string
	OutputImagePath string        // enhanced image destination, defaults to output/enhanced_image.png
	MaxUploadSize   int64         // max upload size in bytes, defaults to 10MB
	MaxImagePixels  int           // max uploaded image width*height, defaults to enhance.DefaultMaxPixels
	NotifyTimeout   time.Duration // defaults to 30s
	PostRateLimit   float64       // max POST requests per second per client, defaults to 5
}

// TemplateData holds data for templates
type TemplateData struct {
	Page        enums.Page
	Pages       []enums.Page
	Theme       enums.Theme
	SiteName    string
	BaseURL     string // base URL path for reverse proxy (e.g., /whale)
	Version     string // application version (short form)
	FullVersion string // full application version
	CurrentYear int

	Postings   []store.Posting
	TotalCount int // total postings before search
	Search     string

	Alert Alert // result message for form submissions

	Extensions []string // accepted upload types
	ImageID    string   // uploaded image in workspace
	Params     enhance.Params
	MinFactor  float64
	MaxFactor  float64
}

// Alert is a message shown after form submission
type Alert struct {
	Kind string // success, warning or error
	Text string
}

// newTemplateData creates a TemplateData with common fields populated from request
func (s *Server) newTemplateData(r *http.Request, page enums.Page) TemplateData {
	return TemplateData{
		Page:        page,
		Pages:       enums.PageValues(),
		Theme:       s.getTheme(r),
		SiteName:    s.siteName,
		BaseURL:     s.baseURL,
		Version:     shortVersion(s.version),
		FullVersion: s.version,
		CurrentYear: time.Now().Year(),
		MinFactor:   enhance.MinFactor,
		MaxFactor:   enhance.MaxFactor,
		Params:      enhance.Params{Brightness: enhance.DefaultFactor, Contrast: enhance.DefaultFactor},
	}
}

// New creates a new web server
func New(cfg Config) (*Server, error) {
	// validate required dependencies
	if cfg.Store == nil || cfg.Resumes == nil || cfg.Images == nil || cfg.Guestbook == nil {
		return nil, fmt.Errorf("web server initialization failed: store, resumes, images and guestbook are required")
	}

	s := &Server{
		store:          cfg.Store,
		resumes:        cfg.Resumes,
		images:         cfg.Images,
		guestbook:      cfg.Guestbook,
		notifier:       cfg.Notifier,
		baseURL:        cfg.BaseURL,
		siteName:       cfg.SiteName,
		version:        cfg.Version,
		outputImage:    cfg.OutputImagePath,
		maxUploadSize:  cfg.MaxUploadSize,
		maxImagePixels: cfg.MaxImagePixels,
		notifyTimeout:  cfg.NotifyTimeout,
		csrfProtection: http.NewCrossOriginProtection(),
	}
	if s.siteName == "" {
		s.siteName = "Whale兼职"
	}
	if s.outputImage == "" {
		s.outputImage = "output/enhanced_image.png"
	}
	if s.maxUploadSize <= 0 {
		s.maxUploadSize = 10 * 1024 * 1024
	}
	if s.maxImagePixels <= 0 {
		s.maxImagePixels = enhance.DefaultMaxPixels
	}
	if s.notifyTimeout <= 0 {
		s.notifyTimeout = 30 * time.Second
	}

	rate := cfg.PostRateLimit
	if rate <= 0 {
		rate = 5
	}
	s.postLimiter = tollbooth.NewLimiter(rate, nil)
	s.postLimiter.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"}) // rest.RealIP sets it from headers
	s.postLimiter.SetMessage("too many requests, slow down")

	templates, err := s.parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("web server initialization failed: failed to parse HTML templates: %w", err)
	}
	s.templates = templates

	return s, nil
}

// Run starts the web server and blocks until ctx is canceled
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// handler returns the http.Handler with base URL wrapping applied
func (s *Server) handler() http.Handler {
	routes := s.routes()
	if s.baseURL == "" {
		return routes
	}

	mux := http.NewServeMux()
	// handle base URL without trailing slash - redirect to with trailing slash
	mux.HandleFunc(s.baseURL, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.baseURL+"/", http.StatusMovedPermanently)
	})
	mux.Handle(s.baseURL+"/", http.StripPrefix(s.baseURL, routes))
	return mux
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	// global middleware - applied to all routes
	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("whale", "whale-jobs", s.version),
		rest.Ping,
		rest.Trace,
		rest.SizeLimit(s.maxUploadSize+64*1024), // upload plus form overhead
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	// pages
	router.HandleFunc("GET /{$}", s.handleHome)
	router.HandleFunc("GET /jobs", s.handleJobsPage)
	router.HandleFunc("GET /resume", s.handleResumePage)
	router.HandleFunc("GET /image", s.handleImagePage)
	router.HandleFunc("GET /contact", s.handleContactPage)

	limited := tollbooth.HTTPMiddleware(s.postLimiter)

	// HTMX endpoints
	router.Mount("/api").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)             // prevent caching of API responses
		api.Use(s.csrfProtection.Handler) // CSRF protection for POST endpoints

		api.HandleFunc("GET /jobs", s.handleJobsPartial)
		api.HandleFunc("GET /image/{id}/preview", s.handleImagePreview)
		api.HandleFunc("POST /theme", s.handleThemeToggle)
		api.With(limited).HandleFunc("POST /jobs", s.handleCreatePosting)
		api.With(limited).HandleFunc("POST /resume", s.handleResumeUpload)
		api.With(limited).HandleFunc("POST /image", s.handleImageUpload)
		api.With(limited).HandleFunc("POST /image/{id}/save", s.handleImageSave)
		api.With(limited).HandleFunc("POST /contact", s.handleContact)
	})

	// JSON API for CLI/programmatic access
	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.Use(s.csrfProtection.Handler)
		api.HandleFunc("GET /jobs", s.handleAPIListPostings)
		api.HandleFunc("GET /jobs/{id}", s.handleAPIGetPosting)
		api.HandleFunc("GET /schema/posting", s.handleAPIPostingSchema)
		api.With(limited).HandleFunc("POST /jobs", s.handleAPICreatePosting)
	})

	// static files with proper error handling
	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Printf("[ERROR] failed to create static file system: %v", err)
		router.Handle("GET /static/", http.FileServer(http.FS(staticFS)))
	} else {
		router.HandleFiles("/static/", http.FS(fsys))
	}

	return router
}

// render renders a full page or a named partial with status 200
func (s *Server) render(w http.ResponseWriter, page, tmplName string, data any) {
	s.renderStatus(w, http.StatusOK, page, tmplName, data)
}

// renderStatus renders template into a buffer first, so errors never produce a half-written page
func (s *Server) renderStatus(w http.ResponseWriter, status int, page, tmplName string, data any) {
	tmpl, ok := s.templates[page]
	if !ok {
		log.Printf("[WARN] template %s not found", page)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, tmplName, data); err != nil {
		log.Printf("[WARN] failed to execute template %s/%s: %v", page, tmplName, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write response: %v", err)
	}
}

// parseTemplates parses a full template set for every page and a separate set of partials for HTMX responses
func (s *Server) parseTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)

	funcMap := template.FuncMap{
		"url":       s.url,
		"pageTitle": pageTitle,
		"pageURL":   s.pageURL,
		"truncate":  truncate,
	}

	for _, p := range enums.PageValues() {
		tmpl, err := template.New("base.html").Funcs(funcMap).ParseFS(templatesFS,
			"templates/base.html", "templates/"+p.String()+".html", "templates/partials/*.html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", p, err)
		}
		templates[p.String()] = tmpl
	}

	partials, err := template.New("partials").Funcs(funcMap).ParseFS(templatesFS, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse partials: %w", err)
	}
	templates["partials"] = partials

	return templates, nil
}

func (s *Server) getTheme(r *http.Request) enums.Theme {
	cookie, err := r.Cookie("theme")
	if err != nil {
		return enums.ThemeLight // default to light when no cookie
	}
	theme, err := enums.ParseTheme(cookie.Value)
	if err != nil {
		log.Printf("[WARN] invalid theme %q: %v", cookie.Value, err)
		return enums.ThemeLight
	}
	return theme
}

// notify sends notification in background, detached from request cancellation
func (s *Server) notify(r *http.Request, fn func(ctx context.Context, n Notifier) error) {
	if s.notifier == nil {
		return
	}
	ctx := context.WithoutCancel(r.Context())
	go func() {
		ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
		defer cancel()
		if err := fn(ctx, s.notifier); err != nil {
			log.Printf("[WARN] notification failed: %v", err)
		}
	}()
}

// template helper functions

func pageTitle(p enums.Page) string {
	switch p {
	case enums.PageHome:
		return "首页"
	case enums.PageJobs:
		return "查看岗位"
	case enums.PageResume:
		return "上传简历"
	case enums.PageImage:
		return "图片美化"
	case enums.PageContact:
		return "联系我们"
	default:
		return p.String()
	}
}

// pageURL returns page location with base URL, home is the root
func (s *Server) pageURL(p enums.Page) string {
	if p == enums.PageHome {
		return s.url("/")
	}
	return s.url("/" + p.String())
}

func truncate(str string, n int) string {
	r := []rune(str)
	if len(r) <= n {
		return str
	}
	return string(r[:n]) + "..."
}

// url prepends the base URL to a path for reverse proxy support
func (s *Server) url(path string) string {
	return s.baseURL + path
}

// cookiePath returns the cookie path with base URL support
func (s *Server) cookiePath() string {
	if s.baseURL == "" {
		return "/"
	}
	return s.baseURL + "/"
}

// shortVersion extracts a short version string from full version
// for version like "v1.7.0-abc1234-20241225", returns "v1.7.0"
func shortVersion(fullVer string) string {
	if fullVer == "" || fullVer == "unknown" {
		return fullVer
	}
	if idx := strings.Index(fullVer, "-"); idx > 0 {
		return fullVer[:idx]
	}
	return fullVer
}
