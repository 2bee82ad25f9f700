package nckweb

import (
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/russross/blackfriday/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const smartypantsFlags = blackfriday.Smartypants |
	blackfriday.SmartypantsFractions |
	blackfriday.SmartypantsDashes |
	blackfriday.SmartypantsLatexDashes

// SmartypantsTransform replaces straight quotes, dashes, ellipses and
// fractions with their typographic forms. Text inside code, preformatted
// and script elements is left untouched.
type SmartypantsTransform struct{}

func (t *SmartypantsTransform) Name() string { return "smartypants" }

var verbatimElements = map[atom.Atom]bool{
	atom.Pre:    true,
	atom.Code:   true,
	atom.Kbd:    true,
	atom.Samp:   true,
	atom.Script: true,
	atom.Style:  true,
}

// The HTML renderer escapes quotes as numeric references, which the
// smartypants renderer does not recognise. Text is re-escaped with only the
// references text content needs.
var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\u00a0", "&nbsp;")

func (t *SmartypantsTransform) Apply(doc *Document) error {
	var out bytes.Buffer
	// One renderer per document: open quotes are tracked across text tokens.
	sp := blackfriday.NewSmartypantsRenderer(smartypantsFlags)
	z := html.NewTokenizer(strings.NewReader(doc.HTML))
	verbatim := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return errors.WithStack(err)
			}
			doc.HTML = out.String()
			return nil
		case html.StartTagToken:
			name, _ := z.TagName()
			if verbatimElements[atom.Lookup(name)] {
				verbatim++
			}
			out.Write(z.Raw())
		case html.EndTagToken:
			name, _ := z.TagName()
			if verbatimElements[atom.Lookup(name)] && verbatim > 0 {
				verbatim--
			}
			out.Write(z.Raw())
		case html.TextToken:
			raw := z.Raw()
			if verbatim > 0 {
				out.Write(raw)
				continue
			}
			text := textEscaper.Replace(html.UnescapeString(string(raw)))
			sp.Process(&out, []byte(text))
		default:
			out.Write(z.Raw())
		}
	}
}
