package web

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whale-jobs/whale/app/enhance"
	"github.com/whale-jobs/whale/app/guestbook"
	"github.com/whale-jobs/whale/app/store"
	"github.com/whale-jobs/whale/app/upload"
	"github.com/whale-jobs/whale/app/web/enums"
)

// testEnv keeps locations used by a test server
type testEnv struct {
	jobsFile     string
	resumesDir   string
	messagesFile string
	outputImage  string
	store        *store.Store
}

func newTestServer(t *testing.T, postings ...store.Posting) (*Server, testEnv) {
	t.Helper()
	tmpDir := t.TempDir()
	env := testEnv{
		jobsFile:     filepath.Join(tmpDir, "data", "jobs.csv"),
		resumesDir:   filepath.Join(tmpDir, "uploaded_resumes"),
		messagesFile: filepath.Join(tmpDir, "messages.txt"),
		outputImage:  filepath.Join(tmpDir, "output", "enhanced_image.png"),
	}

	csvFile, err := store.NewCSVFile(env.jobsFile)
	require.NoError(t, err)
	env.store = store.New(csvFile)
	_, err = env.store.Load()
	require.NoError(t, err)
	for _, p := range postings {
		_, err = env.store.Append(p)
		require.NoError(t, err)
	}

	resumes, err := upload.New(env.resumesDir, 1024*1024, upload.ResumeExtensions)
	require.NoError(t, err)
	book, err := guestbook.New(env.messagesFile)
	require.NoError(t, err)

	srv, err := New(Config{
		Store:           env.store,
		Resumes:         resumes,
		Images:          enhance.NewWorkspace(time.Minute, 10),
		Guestbook:       book,
		Version:         "v1.2.3-abc1234-20250101",
		OutputImagePath: env.outputImage,
		PostRateLimit:   1000,
	})
	require.NoError(t, err)
	return srv, env
}

func TestNew(t *testing.T) {
	t.Run("missing dependencies", func(t *testing.T) {
		_, err := New(Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required")
	})

	t.Run("defaults", func(t *testing.T) {
		srv, err := New(Config{
			Store:     &store.Store{},
			Resumes:   &upload.Storage{},
			Images:    enhance.NewWorkspace(time.Minute, 1),
			Guestbook: &guestbook.Book{},
		})
		require.NoError(t, err)
		assert.Equal(t, "Whale兼职", srv.siteName)
		assert.Equal(t, "output/enhanced_image.png", srv.outputImage)
		assert.Equal(t, int64(10*1024*1024), srv.maxUploadSize)
		assert.Equal(t, 30*time.Second, srv.notifyTimeout)
		assert.Equal(t, enhance.DefaultMaxPixels, srv.maxImagePixels)
		assert.NotNil(t, srv.postLimiter)
		assert.Nil(t, srv.notifier)
		for _, p := range enums.PageValues() {
			assert.Contains(t, srv.templates, p.String())
		}
		assert.Contains(t, srv.templates, "partials")
	})
}

func TestServer_Routes(t *testing.T) {
	srv, _ := newTestServer(t, store.Posting{Title: "Cashier", Company: "ACME"})
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{"/", http.StatusOK, "欢迎来到"},
		{"/jobs", http.StatusOK, "Cashier - ACME"},
		{"/resume", http.StatusOK, "上传你的简历"},
		{"/image", http.StatusOK, "上传并美化你的图片"},
		{"/contact", http.StatusOK, "留言板"},
		{"/api/jobs?search=cash", http.StatusOK, "Cashier - ACME"},
		{"/api/v1/jobs", http.StatusOK, `"title":"Cashier"`},
		{"/api/v1/jobs/1", http.StatusOK, `"company":"ACME"`},
		{"/api/v1/schema/posting", http.StatusOK, `"required"`},
		{"/static/style.css", http.StatusOK, "transparent-box"},
		{"/ping", http.StatusOK, "pong"},
		{"/no-such-page", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), tt.contains)
		})
	}

	t.Run("app info headers", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "whale", resp.Header.Get("App-Name"))
		assert.Equal(t, "v1.2.3-abc1234-20250101", resp.Header.Get("App-Version"))
	})

	t.Run("post job via form", func(t *testing.T) {
		form := url.Values{"title": {"Barista"}, "company": {"Bean"}}
		resp, err := http.PostForm(ts.URL+"/api/jobs", form)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "postings-changed", resp.Header.Get("HX-Trigger"))
		assert.NotEmpty(t, resp.Header.Get("Cache-Control"))
	})

	t.Run("cross origin post rejected", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/jobs", strings.NewReader("title=x&company=y"))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Sec-Fetch-Site", "cross-site")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestServer_PostRateLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.postLimiter.SetMax(1).SetBurst(1)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	codes := make([]int, 0, 5)
	for range 5 {
		resp, err := http.PostForm(ts.URL+"/api/contact", url.Values{"message": {"hi"}})
		require.NoError(t, err)
		_ = resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Contains(t, codes, http.StatusTooManyRequests)
}

func TestServer_HandlerBaseURL(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.baseURL = "/whale"
	handler := srv.handler()

	t.Run("redirect without trailing slash", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whale", http.NoBody)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusMovedPermanently, w.Code)
		assert.Equal(t, "/whale/", w.Header().Get("Location"))
	})

	t.Run("page links prefixed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whale/jobs", http.NoBody)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `href="/whale/contact"`)
		assert.Contains(t, body, `hx-get="/whale/api/jobs"`)
		assert.Contains(t, body, `href="/whale/static/style.css"`)
	})
}

func TestServer_Run(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server didn't stop")
	}
}

func TestServer_render_ErrorHandling(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("unknown template set", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.render(w, "nope", "base", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("unknown template name", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.render(w, "partials", "nope", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Template error")
	})
}

func TestServer_getTheme(t *testing.T) {
	srv := &Server{}
	tests := []struct {
		name   string
		cookie string
		want   enums.Theme
	}{
		{"no cookie", "", enums.ThemeLight},
		{"dark", "dark", enums.ThemeDark},
		{"light", "light", enums.ThemeLight},
		{"invalid", "purple", enums.ThemeLight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "theme", Value: tt.cookie})
			}
			assert.Equal(t, tt.want, srv.getTheme(req))
		})
	}
}

func TestTemplateHelpers(t *testing.T) {
	srv := &Server{baseURL: "/whale"}
	assert.Equal(t, "/whale/", srv.pageURL(enums.PageHome))
	assert.Equal(t, "/whale/jobs", srv.pageURL(enums.PageJobs))
	assert.Equal(t, "/whale/static/app.js", srv.url("/static/app.js"))
	assert.Equal(t, "/whale/", srv.cookiePath())
	assert.Equal(t, "/", (&Server{}).cookiePath())

	assert.Equal(t, "首页", pageTitle(enums.PageHome))
	assert.Equal(t, "查看岗位", pageTitle(enums.PageJobs))
	assert.Equal(t, "联系我们", pageTitle(enums.PageContact))

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "兼职平...", truncate("兼职平台招聘", 3))
}

func TestShortVersion(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"unknown", "unknown"},
		{"v1.7.0", "v1.7.0"},
		{"v1.7.0-abc1234-20241225", "v1.7.0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shortVersion(tt.in))
	}
}

// multipartBody makes multipart form with a single file field
func multipartBody(t *testing.T, field, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

// testPNG makes a small png image with a gray gradient
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for x := range 4 {
		for y := range 4 {
			v := uint8(40 * (x + y))
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}
