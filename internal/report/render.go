package report

import (
	"bytes"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// TOCItem represents a table of contents entry
type TOCItem struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// Rendered is an HTML report with its outline.
type Rendered struct {
	Title string    `json:"title"`
	HTML  string    `json:"html"`
	TOC   []TOCItem `json:"toc"`
}

// Renderer converts report Markdown to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a renderer with GFM tables and chroma highlighting.
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("monokai"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)

	return &Renderer{md: md}
}

// HTML renders source and extracts its headings.
func (r *Renderer) HTML(source string) (*Rendered, error) {
	src := []byte(source)

	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return nil, err
	}

	toc := r.extractTOC(src)
	title := ""
	if len(toc) > 0 {
		title = toc[0].Title
	}

	return &Rendered{
		Title: title,
		HTML:  buf.String(),
		TOC:   toc,
	}, nil
}

func (r *Renderer) extractTOC(source []byte) []TOCItem {
	doc := r.md.Parser().Parse(text.NewReader(source))

	var toc []TOCItem
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			title := headingText(heading, source)
			toc = append(toc, TOCItem{
				Level:  heading.Level,
				Title:  title,
				Anchor: anchorFor(title),
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil
	}
	return toc
}

// headingText concatenates the text segments below n, including code spans.
func headingText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

var (
	anchorStrip  = regexp.MustCompile(`[^a-z0-9\-_\p{Han}\p{Hiragana}\p{Katakana}]`)
	anchorHyphen = regexp.MustCompile(`-+`)
)

// anchorFor creates a URL-safe anchor from heading text
func anchorFor(title string) string {
	anchor := strings.ToLower(title)
	anchor = strings.ReplaceAll(anchor, " ", "-")
	anchor = strings.ReplaceAll(anchor, "/", "-")
	anchor = anchorStrip.ReplaceAllString(anchor, "")
	anchor = anchorHyphen.ReplaceAllString(anchor, "-")
	return strings.Trim(anchor, "-")
}

// Terminal renders source for a terminal. Without styled output the plain
// "notty" style is used so pipes receive no escape sequences.
func Terminal(source string, width int, styled bool) (string, error) {
	var opts []glamour.TermRendererOption
	if styled {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath("notty"))
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return renderer.Render(source)
}
