package nckweb

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"os"

	"github.com/pkg/errors"
)

type layoutParam struct {
	Page        *Page
	Site        SiteMetadata
	HeadTitle   string
	Header      template.HTML
	Analytics   template.HTML
	SocialLinks []SocialLink
	ThemeColor  string
}

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"rhythm": Rhythm,
}

// templateEngine loads the layout and page body templates. A template found
// in the configured template directory replaces the embedded default of the
// same name.
type templateEngine struct {
	dir           fs.FS
	embedded      fs.FS
	templateCache map[string]*template.Template
}

func newTemplateEngine(dir string) (*templateEngine, error) {
	embedded, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, errors.WithStack(err)
	}
	te := &templateEngine{
		embedded:      embedded,
		templateCache: make(map[string]*template.Template),
	}
	if dir != "" {
		te.dir = os.DirFS(dir)
	}
	return te, nil
}

func (te *templateEngine) source(filename string) fs.FS {
	if te.dir != nil {
		if _, err := fs.Stat(te.dir, filename); err == nil {
			return te.dir
		}
	}
	return te.embedded
}

func (te *templateEngine) getTemplate(filename string) (*template.Template, error) {
	t, ok := te.templateCache[filename]
	if !ok {
		var err error
		t, err = template.New(filename).Funcs(templateFuncs).ParseFS(te.source(filename), filename)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing template %v", filename)
		}
		te.templateCache[filename] = t
	}
	return t, nil
}

// renderPage writes page wrapped in the site layout to w.
func (te *templateEngine) renderPage(page *Page, conf *SiteConf, w io.Writer) error {
	t, err := te.getTemplate("global.html")
	if err != nil {
		return err
	}

	analytics, err := AnalyticsSnippet(conf.Analytics.TrackingID)
	if err != nil {
		return errors.Wrap(err, "rendering analytics snippet")
	}

	headTitle := conf.Metadata.Title
	if !page.IsRoot {
		headTitle = page.Title + " | " + conf.Metadata.Title
	}
	themeColor := conf.Manifest.ThemeColor
	if themeColor == "" {
		themeColor = AccentColor
	}

	p := layoutParam{
		Page:        page,
		Site:        conf.Metadata,
		HeadTitle:   headTitle,
		Header:      RenderTitle(page.IsRoot, conf.Metadata.Title),
		Analytics:   analytics,
		SocialLinks: socialLinks(conf.Metadata.Social),
		ThemeColor:  themeColor,
	}
	return errors.Wrapf(t.Execute(w, p), "rendering %v", page.Route)
}
