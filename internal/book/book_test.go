package book

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Aleph-Alpha/bookrag/pkg/logger"
	"github.com/Aleph-Alpha/bookrag/pkg/metrics"
	"github.com/Aleph-Alpha/bookrag/pkg/tracer"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lessonMarkdown = `# Introduction to Physical AI

Physical AI brings models into the real world.

## Embodiment

Robots have bodies.

### Sensors

Cameras and LiDAR.
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestRouter(t *testing.T, cfg Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	renderer, err := NewRenderer(cfg.TemplateFile)
	require.NoError(t, err)
	log := logger.NewNop()
	return NewRouter(NewHandler(cfg, renderer, log),
		metrics.NewMetrics(metrics.Config{Disabled: true}),
		tracer.NewClient(tracer.Config{ServiceName: "test"}, log),
		log)
}

func newBook(t *testing.T) Config {
	t.Helper()
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.ContentDir = filepath.Join(root, "02-parts")
	cfg.StaticDir = filepath.Join(root, "static")

	chapter := filepath.Join(cfg.ContentDir, "01-Part-I-Foundations", "01-Chapter-Physical-AI")
	writeFile(t, filepath.Join(chapter, "README.md"), "# Chapter One\n\nOverview.\n")
	writeFile(t, filepath.Join(chapter, "01-Intro.md"), lessonMarkdown)
	writeFile(t, filepath.Join(cfg.StaticDir, "style.css"), "body { margin: 0; }")
	writeFile(t, filepath.Join(root, "secret.md"), "# secret")
	return cfg
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestTitle(t *testing.T) {
	cases := map[string]string{
		"01-Intro":               "01 Intro",
		"01-Chapter-Physical-AI": "01 Chapter Physical Ai",
		"ros2-basics":            "Ros2 Basics",
	}
	for in, want := range cases {
		if got := Title(in); got != want {
			t.Errorf("Title(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildExtractsHeadingAndTOC(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)

	page, err := r.Build("01-Intro", []byte(lessonMarkdown))
	require.NoError(t, err)

	assert.Equal(t, "01 Intro", page.Title)
	assert.Equal(t, "Introduction to Physical AI", page.Heading)
	require.Len(t, page.TOC, 2)
	assert.Equal(t, TOCEntry{Level: 2, Text: "Embodiment", Anchor: "embodiment"}, page.TOC[0])
	assert.Equal(t, TOCEntry{Level: 3, Text: "Sensors", Anchor: "sensors"}, page.TOC[1])
	assert.Contains(t, string(page.Content), "<p>Robots have bodies.</p>")
}

func TestLandingRedirects(t *testing.T) {
	r := newTestRouter(t, newBook(t))

	w := get(r, "/")

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, DefaultLanding, w.Header().Get("Location"))
}

func TestLessonAndChapterPages(t *testing.T) {
	r := newTestRouter(t, newBook(t))

	w := get(r, "/book/01-Part-I-Foundations/01-Chapter-Physical-AI/01-Intro")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<title>01 Intro</title>")
	assert.Contains(t, body, `<a href="#sensors">Sensors</a>`)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = get(r, "/book/01-Part-I-Foundations/01-Chapter-Physical-AI")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>01 Chapter Physical Ai</title>")
}

func TestMissingPages(t *testing.T) {
	r := newTestRouter(t, newBook(t))

	w := get(r, "/book/01-Part-I-Foundations/99-Missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "<h1>Module Intro not found</h1>", w.Body.String())

	w = get(r, "/book/01-Part-I-Foundations/01-Chapter-Physical-AI/99-Missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "<h1>Lesson not found</h1>", w.Body.String())
}

func TestTraversalIsNotFound(t *testing.T) {
	r := newTestRouter(t, newBook(t))

	for _, path := range []string{
		"/book/../..%2Fsecret",
		"/book/01-Part-I-Foundations/01-Chapter-Physical-AI/..%2F..%2F..%2Fsecret",
		"/book/01-Part-I-Foundations/..%5C..",
	} {
		w := get(r, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.NotContains(t, w.Body.String(), "secret", path)
	}
}

func TestStaticFilesAndTemplateOverride(t *testing.T) {
	cfg := newBook(t)
	cfg.TemplateFile = filepath.Join(t.TempDir(), "custom.html")
	writeFile(t, cfg.TemplateFile, `<html><title>custom {{ .Title }}</title>{{ .Content }}</html>`)
	r := newTestRouter(t, cfg)

	w := get(r, "/static/style.css")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body { margin: 0; }", w.Body.String())

	w = get(r, "/book/01-Part-I-Foundations/01-Chapter-Physical-AI/01-Intro")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "<html><title>custom 01 Intro</title>"))
}
