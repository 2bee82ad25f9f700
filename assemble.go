package nckweb

import (
	"html/template"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// RootRoute is the route of the site index.
const RootRoute = "/"

// Page is one HTML document of the built site.
type Page struct {
	Route    string
	Title    string
	BodyHTML template.HTML
	IsRoot   bool

	CanonicalURL string
	Description  string
	// Published is the zero time for pages that are not posts.
	Published time.Time
	Modified  time.Time
}

// OutputPath is the page's file path relative to the output directory.
func (p *Page) OutputPath() string {
	return strings.TrimPrefix(p.Route, "/") + "index.html"
}

type postBodyParam struct {
	Post     *TransformedPost
	Body     template.HTML
	Minutes  int
	Previous *TransformedPost
	Next     *TransformedPost
}

type indexBodyParam struct {
	Site  SiteMetadata
	Posts []*TransformedPost
}

// CanonicalURL makes route absolute against base, whatever slashes either carries.
func CanonicalURL(base, route string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", errors.Wrapf(err, "invalid site url %q", base)
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	u.Path = strings.TrimRight(u.Path, "/") + route
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// Assemble builds the site's pages: one per post plus the synthesized
// index at RootRoute listing posts newest first.
func Assemble(in []*TransformedPost, conf *SiteConf) ([]Page, error) {
	if err := checkUniqueSlugs(in); err != nil {
		return nil, err
	}
	engine, err := newTemplateEngine(conf.TemplateDir)
	if err != nil {
		return nil, err
	}
	indexTmpl, err := engine.getTemplate("index.html")
	if err != nil {
		return nil, err
	}
	postTmpl, err := engine.getTemplate("post.html")
	if err != nil {
		return nil, err
	}

	sorted := make(posts, len(in))
	copy(sorted, in)
	sort.Sort(sorted)

	pages := make([]Page, 0, len(sorted)+1)

	var index strings.Builder
	if err := indexTmpl.Execute(&index, indexBodyParam{Site: conf.Metadata, Posts: sorted}); err != nil {
		return nil, errors.Wrap(err, "rendering index")
	}
	root := Page{
		Route:       RootRoute,
		Title:       conf.Metadata.Title,
		BodyHTML:    template.HTML(index.String()),
		IsRoot:      true,
		Description: conf.Metadata.Description,
		Modified:    sorted.latestDate(),
	}
	pages = append(pages, root)

	for i, p := range sorted {
		param := postBodyParam{
			Post:    p,
			Body:    template.HTML(p.HTML),
			Minutes: int(p.ReadingTime / time.Minute),
		}
		// sorted is newest first: the previous post is the older one.
		if i+1 < len(sorted) {
			param.Previous = sorted[i+1]
		}
		if i > 0 {
			param.Next = sorted[i-1]
		}

		var body strings.Builder
		if err := postTmpl.Execute(&body, param); err != nil {
			return nil, errors.Wrapf(err, "rendering %v", p.Node.Path)
		}
		modified := p.Date
		if p.Node.ModTime.After(modified) {
			modified = p.Node.ModTime
		}
		pages = append(pages, Page{
			Route:       p.Route(),
			Title:       p.Title,
			BodyHTML:    template.HTML(body.String()),
			Description: p.Summary(),
			Published:   p.Date,
			Modified:    modified,
		})
	}

	for i := range pages {
		pages[i].CanonicalURL, err = CanonicalURL(conf.Metadata.SiteURL, pages[i].Route)
		if err != nil {
			return nil, err
		}
	}

	if err := ValidatePages(pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// ValidatePages checks that routes are unique and that exactly one page is
// the root page.
func ValidatePages(pages []Page) error {
	seen := make(map[string]bool, len(pages))
	roots := 0
	for _, p := range pages {
		if seen[p.Route] {
			return &DuplicateRouteError{Route: p.Route}
		}
		seen[p.Route] = true
		if p.IsRoot {
			roots++
		}
	}
	if roots != 1 {
		return &RootPageError{Count: roots}
	}
	return nil
}

// checkUniqueSlugs rejects posts that would be published at the same route.
func checkUniqueSlugs(ps []*TransformedPost) error {
	byRoute := make(map[string]string, len(ps))
	for _, p := range ps {
		route := p.Route()
		if route == RootRoute {
			return &DuplicateRouteError{Route: route, Sources: []string{p.Node.Path}}
		}
		if other, ok := byRoute[route]; ok {
			return &DuplicateRouteError{Route: route, Sources: []string{other, p.Node.Path}}
		}
		byRoute[route] = p.Node.Path
	}
	return nil
}
