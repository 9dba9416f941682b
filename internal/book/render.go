// Package book serves the markdown book as HTML pages.
package book

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/Aleph-Alpha/bookrag/internal/chunker"
	"github.com/PuerkitoBio/goquery"
	"github.com/russross/blackfriday/v2"
)

//go:embed templates/page.html
var templatesFS embed.FS

const markdownExtensions = blackfriday.CommonExtensions | blackfriday.AutoHeadingIDs

// TOCEntry is an h2 or h3 heading of a page.
type TOCEntry struct {
	Level  int
	Text   string
	Anchor string
}

// Page is the data handed to the page template.
type Page struct {
	Title   string
	Heading string
	TOC     []TOCEntry
	Content template.HTML
}

type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses templateFile, or the embedded template when it is empty.
func NewRenderer(templateFile string) (*Renderer, error) {
	var (
		tmpl *template.Template
		err  error
	)
	if templateFile != "" {
		tmpl, err = template.ParseFiles(templateFile)
	} else {
		tmpl, err = template.ParseFS(templatesFS, "templates/page.html")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Build converts markdown into a Page titled after id.
func (r *Renderer) Build(id string, markdown []byte) (Page, error) {
	html := blackfriday.Run(markdown, blackfriday.WithExtensions(markdownExtensions))

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse rendered markdown: %w", err)
	}

	page := Page{
		Title:   Title(id),
		Heading: strings.TrimSpace(doc.Find("h1").First().Text()),
		Content: template.HTML(html),
	}
	doc.Find("h2, h3").Each(func(_ int, s *goquery.Selection) {
		level := 2
		if goquery.NodeName(s) == "h3" {
			level = 3
		}
		anchor, _ := s.Attr("id")
		page.TOC = append(page.TOC, TOCEntry{Level: level, Text: strings.TrimSpace(s.Text()), Anchor: anchor})
	})
	return page, nil
}

// Render writes the page for markdown to w.
func (r *Renderer) Render(w io.Writer, id string, markdown []byte) error {
	page, err := r.Build(id, markdown)
	if err != nil {
		return err
	}
	if err := r.tmpl.Execute(w, page); err != nil {
		return fmt.Errorf("failed to execute page template: %w", err)
	}
	return nil
}

// Title turns "01-Intro-To-ROS" into "01 Intro To Ros".
func Title(id string) string {
	return chunker.TitleCase(strings.ReplaceAll(id, "-", " "))
}
