package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/phishguard/internal/model"
)

const mailPage = `<html><body>
<a href="/inbox">Inbox</a>
<a href="http://phish.test/login">Verify your account</a>
<a href="https://www.google.com/search">Search</a>
</body></html>`

type fixture struct {
	page    *httptest.Server
	backend *httptest.Server
	reports atomic.Int32
	config  string
	dataDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{dataDir: t.TempDir()}

	f.page = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(mailPage))
	}))
	t.Cleanup(f.page.Close)

	f.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/analyze":
			var req model.AnalysisRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			_ = json.NewEncoder(w).Encode(model.AnalysisResult{
				URL: req.URL, RiskLevel: model.RiskDangerous, RiskScore: 0.92, Confidence: 0.8,
				Recommendations: []string{"Do not enter credentials"},
			})
		case "/api/report":
			f.reports.Add(1)
			_, _ = w.Write([]byte(`{"message":"Report received"}`))
		case "/api/stats":
			_, _ = w.Write([]byte(`{"total_scans":3,"phishing_detected":1,"safe_urls":2,"suspicious_urls":0}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.backend.Close)

	f.config = filepath.Join(t.TempDir(), "config.yaml")
	cfg := "log_level: error\nnotify:\n  desktop: false\ngateway:\n  base_url: " + f.backend.URL + "/api\n"
	require.NoError(t, os.WriteFile(f.config, []byte(cfg), 0o644))
	return f
}

func (f *fixture) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", f.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	t.Parallel()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "phishguard dev")
}

func TestLinks_ClassifiesEachAnchor(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	out, err := f.run(t, "", "links", f.page.URL, "--all-pages")
	require.NoError(t, err)
	assert.Contains(t, out, "internal")
	assert.Contains(t, out, "allow-listed")
	assert.Contains(t, out, "intercept")
	assert.Contains(t, out, "http://phish.test/login")
}

func TestLinks_UnmonitoredPageSaysSo(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	out, err := f.run(t, "", "links", f.page.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "is not monitored")
}

func TestCheck_RequiresMonitoredPage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.run(t, "", "check", f.page.URL, "--local", "--data-dir", f.dataDir, "--click", "phish.test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a monitored")
}

func TestCheck_DismissStaysOnPage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	out, err := f.run(t, "", "check", f.page.URL, "--all-pages", "--local", "--data-dir", f.dataDir,
		"--click", "Verify your account", "--action", "dismiss")
	require.NoError(t, err)
	assert.Contains(t, out, "Analyzing Link...")
	assert.Contains(t, out, "DANGEROUS - Risk Score: 92%")
	assert.Contains(t, out, "Do not enter credentials")
	assert.Contains(t, out, "stayed on the page")
	assert.NotContains(t, out, "navigating to")
}

func TestCheck_ProceedFromPrompt(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	out, err := f.run(t, "proceed\n", "check", f.page.URL, "--all-pages", "--local", "--data-dir", f.dataDir,
		"--click", "http://phish.test/login")
	require.NoError(t, err)
	assert.Contains(t, out, "choose [proceed/dismiss/report]")
	assert.Contains(t, out, "navigating to http://phish.test/login")
}

func TestCheck_ReportSendsReason(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	out, err := f.run(t, "", "check", f.page.URL, "--all-pages", "--local", "--data-dir", f.dataDir,
		"--click", "phish.test", "--action", "report", "--reason", "fake bank login")
	require.NoError(t, err)
	assert.Contains(t, out, "Thank you for your report!")
	assert.EqualValues(t, 1, f.reports.Load())
}

func TestCheck_InternalLinkIsFollowed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	out, err := f.run(t, "", "check", f.page.URL, "--all-pages", "--local", "--data-dir", f.dataDir,
		"--click", "Inbox")
	require.NoError(t, err)
	assert.Contains(t, out, "internal link, following without a check")
	assert.Contains(t, out, "/inbox")
}

func TestStats_Local(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	out, err := f.run(t, "", "stats", "--local", "--data-dir", f.dataDir)
	require.NoError(t, err)

	var st model.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.EqualValues(t, 3, st.TotalScans)
	assert.False(t, st.Error)
}

func TestStats_NoServiceRunning(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.run(t, "", "stats", "--bridge", "ws://127.0.0.1:1/ws/bridge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--local")
}
