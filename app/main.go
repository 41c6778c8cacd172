package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/joho/godotenv"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/whale-jobs/whale/app/enhance"
	"github.com/whale-jobs/whale/app/guestbook"
	"github.com/whale-jobs/whale/app/notify"
	"github.com/whale-jobs/whale/app/store"
	"github.com/whale-jobs/whale/app/upload"
	"github.com/whale-jobs/whale/app/web"
)

var opts struct {
	Listen   string `short:"l" long:"listen" env:"WHALE_LISTEN" default:":8080" description:"web server listen address"`
	BaseURL  string `long:"base-url" env:"WHALE_BASE_URL" description:"base URL path for reverse proxy (e.g., /whale)"`
	SiteName string `long:"site" env:"WHALE_SITE" default:"Whale兼职" description:"site name"`
	Dbg      bool   `long:"dbg" env:"WHALE_DEBUG" description:"debug mode"`

	Store struct {
		Type string `long:"type" env:"TYPE" choice:"csv" choice:"sqlite" default:"csv" description:"postings storage type"`
		Path string `long:"path" env:"PATH" default:"data/jobs.csv" description:"postings storage file"`
	} `group:"store" namespace:"store" env-namespace:"WHALE_STORE"`

	Web struct {
		MaxUpload int64   `long:"max-upload" env:"MAX_UPLOAD" default:"10485760" description:"max upload size in bytes"`
		RateLimit float64 `long:"rate-limit" env:"RATE_LIMIT" default:"5" description:"max POST requests per second per client"`
	} `group:"web" namespace:"web" env-namespace:"WHALE_WEB"`

	Upload struct {
		Location string `long:"location" env:"LOCATION" default:"uploaded_resumes" description:"resumes directory"`
	} `group:"upload" namespace:"upload" env-namespace:"WHALE_UPLOAD"`

	Image struct {
		Output    string        `long:"output" env:"OUTPUT" default:"output/enhanced_image.png" description:"enhanced image destination"`
		TTL       time.Duration `long:"ttl" env:"TTL" default:"30m" description:"how long uploaded images are kept for editing"`
		MaxImages int           `long:"max-images" env:"MAX_IMAGES" default:"100" description:"max images kept for editing"`
		MaxPixels int           `long:"max-pixels" env:"MAX_PIXELS" default:"25000000" description:"max uploaded image width*height"`
	} `group:"image" namespace:"image" env-namespace:"WHALE_IMAGE"`

	Guestbook struct {
		Path string `long:"path" env:"PATH" default:"messages.txt" description:"guestbook messages file"`
	} `group:"guestbook" namespace:"guestbook" env-namespace:"WHALE_GUESTBOOK"`

	Repeater struct {
		Attempts int           `long:"attempts" env:"ATTEMPTS" default:"3" description:"how many times to repeat failed notification"`
		Duration time.Duration `long:"duration" env:"DURATION" default:"1s" description:"initial duration"`
		Factor   float64       `long:"factor" env:"FACTOR" default:"3" description:"backoff factor"`
		Jitter   bool          `long:"jitter" env:"JITTER" description:"jitter"`
	} `group:"repeater" namespace:"repeater" env-namespace:"WHALE_REPEATER"`

	Notify struct {
		EnabledPosting  bool          `long:"enabled-posting" env:"ENABLED_POSTING" description:"enable notifications on new postings"`
		EnabledMessage  bool          `long:"enabled-message" env:"ENABLED_MESSAGE" description:"enable notifications on guestbook messages"`
		SMTPHost        string        `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host"`
		SMTPPort        int           `long:"smtp-port" env:"SMTP_PORT" default:"25" description:"SMTP port"`
		SMTPUsername    string        `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP user name"`
		SMTPPassword    string        `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
		SMTPTLS         bool          `long:"smtp-tls" env:"SMTP_TLS" description:"enable SMTP TLS"`
		Timeout         time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"notification delivery timeout"`
		FromEmail       string        `long:"from" env:"FROM" description:"SMTP from email"`
		ToEmails        []string      `long:"to" env:"TO" description:"SMTP to email(s)" env-delim:","`
		Webhooks        []string      `long:"webhook" env:"WEBHOOK" description:"webhook URL(s)" env-delim:","`
		PostingTemplate string        `long:"posting-template" env:"POSTING_TEMPLATE" description:"custom new posting template file"`
		MessageTemplate string        `long:"message-template" env:"MESSAGE_TEMPLATE" description:"custom new message template file"`
		Concurrency     int           `long:"concurrency" env:"CONCURRENCY" default:"4" description:"max destinations notified in parallel"`
	} `group:"notify" namespace:"notify" env-namespace:"WHALE_NOTIFY"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"filename" env:"FILENAME" default:"whale.log" description:"log file name"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max log file size in megabytes"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of old log files to keep"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max days to keep old log files, 0 to keep all"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"compress rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"WHALE_LOG"`
}

var revision = "unknown"

func main() {
	fmt.Printf("whale %s\n", revision)

	// .env is optional, values from it don't override the real environment
	envErr := godotenv.Load()

	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	setupLogs()
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Printf("[WARN] can't load .env file: %v", envErr)
	}

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals(cancel) // handle SIGQUIT, SIGINT and SIGTERM

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	log.Printf("[INFO] whale stopped")
}

// run creates all components and runs web server until ctx canceled
func run(ctx context.Context) error {
	jobStore, err := makeStore()
	if err != nil {
		return fmt.Errorf("can't open postings store: %w", err)
	}
	defer func() {
		if err := jobStore.Close(); err != nil {
			log.Printf("[WARN] failed to close postings store: %v", err)
		}
	}()

	resumes, err := upload.New(opts.Upload.Location, opts.Web.MaxUpload, upload.ResumeExtensions)
	if err != nil {
		return fmt.Errorf("can't make resumes storage: %w", err)
	}

	book, err := guestbook.New(opts.Guestbook.Path)
	if err != nil {
		return fmt.Errorf("can't make guestbook: %w", err)
	}

	cfg := web.Config{
		Store:           jobStore,
		Resumes:         resumes,
		Images:          enhance.NewWorkspace(opts.Image.TTL, opts.Image.MaxImages),
		Guestbook:       book,
		BaseURL:         validateBaseURL(opts.BaseURL),
		SiteName:        opts.SiteName,
		Version:         revision,
		OutputImagePath: opts.Image.Output,
		MaxUploadSize:   opts.Web.MaxUpload,
		MaxImagePixels:  opts.Image.MaxPixels,
		NotifyTimeout:   opts.Notify.Timeout * time.Duration(max(opts.Repeater.Attempts, 1)),
		PostRateLimit:   opts.Web.RateLimit,
	}
	if notifier := makeNotifier(); notifier != nil {
		cfg.Notifier = notifier
	}

	srv, err := web.New(cfg)
	if err != nil {
		return fmt.Errorf("can't make web server: %w", err)
	}
	log.Printf("[INFO] postings %s (%d), resumes %s, guestbook %s", opts.Store.Path, jobStore.Len(), resumes, book)
	return srv.Run(ctx, opts.Listen)
}

// makeStore opens postings backend and loads all postings. Malformed storage is an error, missing one is not.
func makeStore() (*store.Store, error) {
	var backend store.Backend
	switch opts.Store.Type {
	case "sqlite":
		sq, err := store.NewSQLite(opts.Store.Path)
		if err != nil {
			return nil, err
		}
		backend = sq
	default:
		cf, err := store.NewCSVFile(opts.Store.Path)
		if err != nil {
			return nil, err
		}
		backend = cf
	}

	res := store.New(backend)
	if _, err := res.Load(); err != nil {
		if closeErr := res.Close(); closeErr != nil {
			log.Printf("[WARN] failed to close %s: %v", backend, closeErr)
		}
		return nil, err
	}
	return res, nil
}

// makeNotifier makes notification service, nil if nothing to notify about or no destinations
func makeNotifier() *notify.Service {
	if !opts.Notify.EnabledPosting && !opts.Notify.EnabledMessage {
		return nil
	}

	if opts.Notify.FromEmail == "" {
		opts.Notify.FromEmail = "whale@" + makeHostName()
	}

	rptr := repeater.New(&strategy.Backoff{Repeats: opts.Repeater.Attempts, Duration: opts.Repeater.Duration,
		Factor: opts.Repeater.Factor, Jitter: opts.Repeater.Jitter})

	return notify.NewService(notify.Params{
		EnabledPosting:  opts.Notify.EnabledPosting,
		EnabledMessage:  opts.Notify.EnabledMessage,
		PostingTemplate: opts.Notify.PostingTemplate,
		MessageTemplate: opts.Notify.MessageTemplate,
		SiteName:        opts.SiteName,
		Concurrency:     opts.Notify.Concurrency,
		Repeater:        rptr,
	}, notify.SendersParams{
		SMTPHost:     opts.Notify.SMTPHost,
		SMTPPort:     opts.Notify.SMTPPort,
		SMTPUsername: opts.Notify.SMTPUsername,
		SMTPPassword: opts.Notify.SMTPPassword,
		SMTPTLS:      opts.Notify.SMTPTLS,
		Timeout:      opts.Notify.Timeout,
		FromEmail:    opts.Notify.FromEmail,
		ToEmails:     opts.Notify.ToEmails,
		Webhooks:     opts.Notify.Webhooks,
	})
}

func makeHostName() string {
	host, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return host
}

// validateBaseURL normalizes base URL, removes trailing slash and treats "/" as no base URL
func validateBaseURL(u string) string {
	u = strings.TrimSpace(u)
	u = strings.TrimRight(u, "/")
	if u != "" && !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return u
}

// setupLogs configures lgr and returns the writer logs go to, rotated file if enabled or stdout
func setupLogs() io.Writer {
	logOpts := []log.Option{log.Msec, log.LevelBraces}
	if opts.Dbg {
		logOpts = []log.Option{log.Debug, log.Msec, log.LevelBraces, log.CallerFile, log.CallerFunc}
	}

	var out io.Writer = os.Stdout
	if opts.Log.Enabled {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.EnabledCompress,
		}
		logOpts = append(logOpts, log.Out(io.MultiWriter(os.Stdout, out)), log.Err(io.MultiWriter(os.Stderr, out)))
	}

	log.SetupStdLogger(logOpts...)
	log.Setup(logOpts...)
	return out
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			log.Printf("[INFO] %s received, shutting down", sig)
			cancel() // terminate on SIGTERM or SIGINT
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
