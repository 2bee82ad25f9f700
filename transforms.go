package nckweb

import (
	"fmt"
	"html/template"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/sourcegraph/syntaxhighlight"
)

// DefaultPipeline returns the sub-transforms every post goes through, in
// the order they must run: images are rewritten before code is highlighted,
// and punctuation is smartened last so it only sees final text.
func DefaultPipeline(conf *SiteConf, assets *AssetProcessor) []SubTransform {
	return []SubTransform{
		&ImageTransform{Assets: assets, Widths: conf.imageWidths()},
		&IframeTransform{WrapperStyle: conf.Iframe.WrapperStyle},
		&HighlightTransform{},
		&CopyLinkedFilesTransform{Assets: assets},
		&SmartypantsTransform{},
	}
}

// rewriteHTML parses the document's HTML, lets fn edit it and writes the
// body back into doc.
func rewriteHTML(doc *Document, fn func(d *goquery.Document) error) error {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc.HTML))
	if err != nil {
		return errors.WithStack(err)
	}
	if err := fn(d); err != nil {
		return err
	}
	out, err := d.Find("body").Html()
	if err != nil {
		return errors.WithStack(err)
	}
	doc.HTML = out
	return nil
}

// isExternalRef reports whether ref points outside the site's source tree.
func isExternalRef(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "//") {
		return true
	}
	u, err := url.Parse(ref)
	return err != nil || u.Scheme != "" || u.Host != ""
}

// splitRef separates the path of a reference from its query and fragment.
func splitRef(ref string) (p, suffix string) {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}

// ImageTransform replaces relative raster images with resized derivatives,
// one per distinct width, and links each image to its largest version.
// Without Widths it uses DefaultImageWidth.
type ImageTransform struct {
	Assets *AssetProcessor
	Widths []int
}

func (t *ImageTransform) Name() string { return "images" }

func (t *ImageTransform) Apply(doc *Document) error {
	return rewriteHTML(doc, func(d *goquery.Document) error {
		var err error
		d.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			src, _ := s.Attr("src")
			ref, _ := splitRef(src)
			if isExternalRef(src) || !isRasterImage(ref) {
				return true
			}
			err = t.rewrite(doc, s, ref)
			return err == nil
		})
		return err
	})
}

func (t *ImageTransform) rewrite(doc *Document, s *goquery.Selection, ref string) error {
	abs, err := t.Assets.Resolve(ref, doc.Node.Dir())
	if err != nil {
		return err
	}

	widths := t.Widths
	if len(widths) == 0 {
		widths = []int{DefaultImageWidth}
	}
	derivatives := make([]ImageDerivative, 0, len(widths))
	for _, w := range widths {
		d, err := t.Assets.Derive(abs, w)
		if err != nil {
			return err
		}
		derivatives = append(derivatives, d)
		doc.addDerivative(d)
	}
	// Widths above the source all collapse to its own width.
	derivatives = uniqueWidths(derivatives)
	largest := derivatives[len(derivatives)-1]

	srcset := make([]string, len(derivatives))
	for i, d := range derivatives {
		srcset[i] = d.OutputPath + " " + strconv.Itoa(d.Width) + "w"
	}
	s.SetAttr("src", largest.OutputPath)
	s.SetAttr("srcset", strings.Join(srcset, ", "))
	s.SetAttr("sizes", fmt.Sprintf("(max-width: %dpx) 100vw, %dpx", largest.Width, largest.Width))
	s.SetAttr("loading", "lazy")
	if s.Closest("a").Length() == 0 {
		s.WrapHtml(`<a class="resp-image-link" href="` + template.HTMLEscapeString(largest.OutputPath) + `" target="_blank" rel="noopener"></a>`)
	}
	return nil
}

func (doc *Document) addDerivative(d ImageDerivative) {
	for _, have := range doc.Derivatives {
		if have.OutputPath == d.OutputPath {
			return
		}
	}
	doc.Derivatives = append(doc.Derivatives, d)
}

// IframeTransform makes embedded iframes with a fixed width and height scale
// with the page while keeping their aspect ratio.
type IframeTransform struct {
	WrapperStyle string
}

func (t *IframeTransform) Name() string { return "responsive-iframe" }

func (t *IframeTransform) Apply(doc *Document) error {
	return rewriteHTML(doc, func(d *goquery.Document) error {
		d.Find("iframe").Each(func(_ int, s *goquery.Selection) {
			if s.Parent().HasClass("resp-iframe-wrapper") {
				return
			}
			width, werr := strconv.ParseFloat(s.AttrOr("width", ""), 64)
			height, herr := strconv.ParseFloat(s.AttrOr("height", ""), 64)
			if werr != nil || herr != nil || width <= 0 || height <= 0 {
				return
			}

			ratio := strconv.FormatFloat(height/width*100, 'f', -1, 64)
			style := "padding-bottom: " + ratio + "%; position: relative; height: 0; overflow: hidden;"
			if t.WrapperStyle != "" {
				style += " " + strings.TrimSpace(t.WrapperStyle)
			}
			s.RemoveAttr("width")
			s.RemoveAttr("height")
			s.SetAttr("style", "position: absolute; top: 0; left: 0; width: 100%; height: 100%;")
			s.WrapHtml(`<div class="resp-iframe-wrapper" style="` + template.HTMLEscapeString(style) + `"></div>`)
		})
		return nil
	})
}

// HighlightTransform syntax-highlights fenced code blocks that name a language.
type HighlightTransform struct{}

func (t *HighlightTransform) Name() string { return "highlight" }

func (t *HighlightTransform) Apply(doc *Document) error {
	return rewriteHTML(doc, func(d *goquery.Document) error {
		var err error
		d.Find(`pre > code[class*="language-"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			var highlighted []byte
			highlighted, err = syntaxhighlight.AsHTML([]byte(s.Text()))
			if err != nil {
				err = errors.Wrap(err, "highlighting code block")
				return false
			}
			s.SetHtml(string(highlighted))
			s.Parent().AddClass("highlight")
			return true
		})
		return err
	})
}

// CopyLinkedFilesTransform publishes files a post links to, or embeds
// without resizing, and points the references at the published copies.
// References that do not resolve to a file are left alone.
type CopyLinkedFilesTransform struct {
	Assets *AssetProcessor
}

func (t *CopyLinkedFilesTransform) Name() string { return "copy-linked-files" }

var linkedFileAttrs = []struct{ selector, attr string }{
	{"a[href]", "href"},
	{"img[src]", "src"},
	{"video[src]", "src"},
	{"video[poster]", "poster"},
	{"audio[src]", "src"},
	{"source[src]", "src"},
}

func (t *CopyLinkedFilesTransform) Apply(doc *Document) error {
	return rewriteHTML(doc, func(d *goquery.Document) error {
		for _, la := range linkedFileAttrs {
			var err error
			d.Find(la.selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				ref, _ := s.Attr(la.attr)
				err = t.rewrite(doc, s, la.attr, ref)
				return err == nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *CopyLinkedFilesTransform) rewrite(doc *Document, s *goquery.Selection, attr, ref string) error {
	if isExternalRef(ref) {
		return nil
	}
	p, suffix := splitRef(ref)
	switch strings.ToLower(path.Ext(p)) {
	case "", ".md", ".markdown", ".html", ".htm":
		return nil
	}

	abs, err := t.Assets.Resolve(p, doc.Node.Dir())
	if err != nil {
		var notFound *AssetNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	published, err := t.Assets.Publish(abs)
	if err != nil {
		return err
	}
	s.SetAttr(attr, published.OutputPath+suffix)
	return nil
}
