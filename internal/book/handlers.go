package book

import (
	"bytes"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aleph-Alpha/bookrag/internal/server"
	"github.com/Aleph-Alpha/bookrag/pkg/metrics"
	"github.com/Aleph-Alpha/bookrag/pkg/tracer"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

const (
	readmeFile = "README.md"

	msgIntroNotFound  = "<h1>Module Intro not found</h1>"
	msgLessonNotFound = "<h1>Lesson not found</h1>"
)

type Handler struct {
	cfg      Config
	renderer *Renderer
	logger   server.Logger
}

func NewHandler(cfg Config, renderer *Renderer, logger server.Logger) *Handler {
	return &Handler{cfg: cfg, renderer: renderer, logger: logger}
}

func (h *Handler) landing(c *gin.Context) {
	target := h.cfg.Landing
	if target == "" {
		target = DefaultLanding
	}
	c.Redirect(http.StatusTemporaryRedirect, target)
}

func (h *Handler) chapterIntro(c *gin.Context) {
	part, chapter := c.Param("part"), c.Param("chapter")
	if !validSegment(part) || !validSegment(chapter) {
		c.Data(http.StatusNotFound, gin.MIMEHTML, []byte(msgIntroNotFound))
		return
	}
	h.serve(c, chapter, filepath.Join(h.cfg.ContentDir, part, chapter, readmeFile), msgIntroNotFound)
}

func (h *Handler) lesson(c *gin.Context) {
	part, chapter, lesson := c.Param("part"), c.Param("chapter"), c.Param("lesson")
	if !validSegment(part) || !validSegment(chapter) || !validSegment(lesson) {
		c.Data(http.StatusNotFound, gin.MIMEHTML, []byte(msgLessonNotFound))
		return
	}
	h.serve(c, lesson, filepath.Join(h.cfg.ContentDir, part, chapter, lesson+".md"), msgLessonNotFound)
}

func (h *Handler) serve(c *gin.Context, id, path, notFound string) {
	md, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		c.Data(http.StatusNotFound, gin.MIMEHTML, []byte(notFound))
		return
	}
	if err != nil {
		_ = c.Error(err)
		h.logger.ErrorWithContext(c.Request.Context(), "failed to read book page", err, map[string]interface{}{"path": path})
		c.Data(http.StatusInternalServerError, gin.MIMEHTML, []byte("<h1>Internal server error</h1>"))
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, id, md); err != nil {
		_ = c.Error(err)
		h.logger.ErrorWithContext(c.Request.Context(), "failed to render book page", err, map[string]interface{}{"path": path})
		c.Data(http.StatusInternalServerError, gin.MIMEHTML, []byte("<h1>Internal server error</h1>"))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// validSegment rejects ids that could leave the content directory.
func validSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`) && !strings.Contains(s, "..")
}

func NewRouter(h *Handler, m *metrics.Metrics, tr *tracer.Tracer, logger server.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), server.Tracing(tr), server.AccessLog(logger, m))

	r.Static("/static", h.cfg.StaticDir)
	r.GET("/", h.landing)
	r.GET("/book/:part/:chapter", h.chapterIntro)
	r.GET("/book/:part/:chapter/:lesson", h.lesson)
	return r
}

func newRendererFromConfig(cfg Config) (*Renderer, error) {
	return NewRenderer(cfg.TemplateFile)
}

func serverConfig(cfg Config) server.Config {
	sc := server.DefaultConfig()
	if cfg.Address != "" {
		sc.Address = cfg.Address
	} else {
		sc.Address = DefaultAddress
	}
	return sc
}

// FXModule provides the book router and reuses the API server lifecycle.
var FXModule = fx.Module("book",
	fx.Provide(
		newRendererFromConfig,
		NewHandler,
		NewRouter,
		serverConfig,
		server.NewServer,
	),
	fx.Invoke(server.RegisterServerLifecycle),
)
