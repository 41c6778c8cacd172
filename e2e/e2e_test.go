//go:build e2e

// Package e2e provides end-to-end browser tests for the job board web UI.
//
// Test organization:
// - e2e_test.go: TestMain, shared helpers, constants, navigation tests
// - jobs_test.go: postings search and publishing
// - forms_test.go: resume upload, guestbook and theme toggle
package e2e

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "http://localhost:18080"

var (
	pw        *playwright.Playwright
	serverCmd *exec.Cmd
	workDir   string
)

func TestMain(m *testing.M) {
	var err error
	workDir, err = os.MkdirTemp("", "whale-e2e")
	if err != nil {
		fmt.Printf("failed to make work dir: %v\n", err)
		os.Exit(1)
	}

	if err = createTestPostings(filepath.Join(workDir, "data", "jobs.csv")); err != nil {
		fmt.Printf("failed to create test postings: %v\n", err)
		os.Exit(1)
	}

	// build test binary
	ctx := context.Background()
	binary := filepath.Join(workDir, "whale-e2e")
	build := exec.CommandContext(ctx, "go", "build", "-o", binary, "./app")
	build.Dir = ".."
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err = build.Run(); err != nil {
		fmt.Printf("failed to build: %v\n", err)
		os.Exit(1)
	}

	serverCmd = exec.CommandContext(ctx, binary,
		"--listen=:18080",
		"--store.path="+filepath.Join(workDir, "data", "jobs.csv"),
		"--upload.location="+filepath.Join(workDir, "uploaded_resumes"),
		"--guestbook.path="+filepath.Join(workDir, "messages.txt"),
		"--image.output="+filepath.Join(workDir, "output", "enhanced_image.png"),
		"--web.rate-limit=100",
	)
	serverCmd.Dir = workDir
	serverCmd.Stdout = os.Stdout
	serverCmd.Stderr = os.Stderr
	if err = serverCmd.Start(); err != nil {
		fmt.Printf("failed to start server: %v\n", err)
		os.Exit(1)
	}

	if err = waitForServer(baseURL+"/ping", 30*time.Second); err != nil {
		fmt.Printf("server not ready: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	if err = playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		fmt.Printf("failed to install playwright: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	pw, err = playwright.Run()
	if err != nil {
		fmt.Printf("failed to start playwright: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	code := m.Run()

	_ = pw.Stop()
	_ = serverCmd.Process.Kill()
	_ = os.RemoveAll(workDir)

	os.Exit(code)
}

// createTestPostings writes postings file with a few jobs, in the same format the server keeps it
func createTestPostings(path string) error {
	content := "\ufeff职位名称,公司,薪资,地点,详情\n" +
		"Cashier,ACME,20/h,Shanghai,evening shifts\n" +
		"Software Engineer,Globex,300/d,Remote,Go and htmx\n" +
		"Barista,Bean,25/h,Beijing,\"latte art,\nweekends\"\n"
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to make data dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write test postings: %w", err)
	}
	return nil
}

func waitForServer(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("server not ready after %v", timeout)
		default:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody) // #nosec G107 - test url
			if err != nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			resp, err := client.Do(req)
			if err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return nil
				}
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
}

func newPage(t *testing.T) playwright.Page {
	t.Helper()
	headless := os.Getenv("E2E_HEADLESS") != "false"
	slowMo := 0.0
	if !headless {
		slowMo = 50
	}
	brow, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		SlowMo:   playwright.Float(slowMo),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = brow.Close() })

	// isolated context keeps theme cookie per test
	ctx, err := brow.NewContext()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })

	page, err := ctx.NewPage()
	require.NoError(t, err)
	return page
}

// navigateTo opens the page at path and waits for the banner
func navigateTo(t *testing.T, page playwright.Page, path string) {
	t.Helper()
	_, err := page.Goto(baseURL + path)
	require.NoError(t, err)
	err = page.Locator(".banner").WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	})
	require.NoError(t, err)
}

// countJobs returns number of job entries currently shown
func countJobs(t *testing.T, page playwright.Page) int {
	t.Helper()
	count, err := page.Locator("#job-list details.job").Count()
	require.NoError(t, err)
	return count
}

func TestHome_PageLoads(t *testing.T) {
	page := newPage(t)
	navigateTo(t, page, "/")

	title, err := page.Title()
	require.NoError(t, err)
	assert.Contains(t, title, "Whale兼职")
	assert.Contains(t, title, "首页")

	text, err := page.Locator("#total-count").TextContent()
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestNavigation_AllPages(t *testing.T) {
	page := newPage(t)
	navigateTo(t, page, "/")

	tests := []struct {
		page  string
		title string
	}{
		{"jobs", "查看岗位"},
		{"resume", "上传简历"},
		{"image", "图片美化"},
		{"contact", "联系我们"},
		{"home", "首页"},
	}
	for _, tt := range tests {
		require.NoError(t, page.Locator(".nav-link[data-page='"+tt.page+"']").Click())
		require.NoError(t, page.WaitForLoadState())

		title, err := page.Title()
		require.NoError(t, err)
		assert.Contains(t, title, tt.title)

		active, err := page.Locator(".nav-link.active").GetAttribute("data-page")
		require.NoError(t, err)
		assert.Equal(t, tt.page, active)
	}
}

func TestHome_LinkToJobs(t *testing.T) {
	page := newPage(t)
	navigateTo(t, page, "/")

	require.NoError(t, page.Locator(".stats a").Click())
	require.NoError(t, page.WaitForURL(baseURL+"/jobs"))
	assert.GreaterOrEqual(t, countJobs(t, page), 3)
}
