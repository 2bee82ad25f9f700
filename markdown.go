package nckweb

import (
	"math"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/russross/blackfriday/v2"
)

const (
	excerptLength  = 140
	wordsPerMinute = 200
)

const extensions = blackfriday.CommonExtensions | blackfriday.AutoHeadingIDs | blackfriday.Footnotes

// Typographic punctuation is handled by SmartypantsTransform on the final
// HTML, so the renderer's own smartypants is left off.
const htmlFlags = blackfriday.UseXHTML | blackfriday.FootnoteReturnLinks

type renderer interface {
	render(in []byte) string
}

type blackfridayHtmlRenderer struct {
	extensions blackfriday.Extensions
	flags      blackfriday.HTMLFlags
}

func newMarkdownRenderer() renderer {
	return &blackfridayHtmlRenderer{extensions, htmlFlags}
}

// The HTML renderer keeps per-document state, so every call gets a fresh one.
func (b *blackfridayHtmlRenderer) render(in []byte) string {
	r := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{Flags: b.flags})
	return string(blackfriday.Run(in, blackfriday.WithRenderer(r), blackfriday.WithExtensions(b.extensions)))
}

// Document is the HTML of one post while it moves through the sub-transform chain.
type Document struct {
	Node *ContentNode
	HTML string
	// Derivatives collects the images registered by transforms.
	Derivatives []ImageDerivative
}

// SubTransform is one stage of the markdown-to-HTML chain.
type SubTransform interface {
	Name() string
	Apply(doc *Document) error
}

// Transformer turns markdown content nodes into posts.
type Transformer struct {
	toHtml renderer
}

func NewTransformer() *Transformer {
	return &Transformer{toHtml: newMarkdownRenderer()}
}

// Transform renders node and runs pipeline over the result in order. The
// first failing sub-transform aborts with a *TransformError.
func (t *Transformer) Transform(node *ContentNode, pipeline []SubTransform) (*TransformedPost, error) {
	doc := &Document{
		Node: node,
		HTML: t.toHtml.render(node.RawBody),
	}
	for _, st := range pipeline {
		if err := st.Apply(doc); err != nil {
			return nil, &TransformError{Path: node.Path, Transform: st.Name(), Cause: err}
		}
	}

	date, err := postDate(node)
	if err != nil {
		return nil, &TransformError{Path: node.Path, Cause: err}
	}

	text, err := plainText(doc.HTML)
	if err != nil {
		return nil, &TransformError{Path: node.Path, Cause: err}
	}

	slug := deriveSlug(node)
	title := node.String("title")
	if title == "" {
		title = slug
	}

	return &TransformedPost{
		Node:        node,
		HTML:        doc.HTML,
		Excerpt:     excerpt(text, excerptLength),
		Slug:        slug,
		Title:       title,
		Description: node.String("description"),
		Date:        date,
		ReadingTime: readingTime(text),
		Images:      doc.Derivatives,
	}, nil
}

// deriveSlug uses the "slug" front matter field, falling back to the path
// relative to the content root. index.md files take their directory's name.
func deriveSlug(node *ContentNode) string {
	if s := node.String("slug"); s != "" {
		return strings.Trim(s, "/")
	}
	rel := strings.TrimSuffix(node.RelPath, path.Ext(node.RelPath))
	if path.Base(rel) == "index" {
		rel = path.Dir(rel)
	}
	return strings.Trim(rel, "/.")
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// postDate reads the "date" front matter field, falling back to the file's
// modification time.
func postDate(node *ContentNode) (time.Time, error) {
	if t, ok := node.FrontMatter["date"].(time.Time); ok {
		return t.UTC(), nil
	}
	raw := node.String("date")
	if raw == "" {
		return node.ModTime, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("invalid date %q", raw)
}

func plainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", errors.WithStack(err)
	}
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

func excerpt(text string, length int) string {
	if utf8.RuneCountInString(text) <= length {
		return text
	}
	runes := []rune(text)[:length]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

func readingTime(text string) time.Duration {
	words := len(strings.Fields(text))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}
