package nckweb

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func testPost(slug, title string, date time.Time) *TransformedPost {
	return &TransformedPost{
		Node:        &ContentNode{Path: "/content/blog/" + slug + ".md", ModTime: date},
		HTML:        "<p>body of " + slug + "</p>",
		Excerpt:     "body of " + slug,
		Slug:        slug,
		Title:       title,
		Date:        date,
		ReadingTime: time.Minute,
	}
}

func TestAssemble_PagesAndRoot(t *testing.T) {
	conf := testConf(t)
	older := testPost("first", "First", time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := testPost("second", "Second", time.Date(2019, 2, 1, 0, 0, 0, 0, time.UTC))

	pages, err := Assemble([]*TransformedPost{older, newer}, conf)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	root := pages[0]
	require.True(t, root.IsRoot)
	require.Equal(t, RootRoute, root.Route)
	require.Equal(t, "Nckweb", root.Title)
	require.Equal(t, "https://nckweb.com.ar/", root.CanonicalURL)
	require.Equal(t, "index.html", root.OutputPath())
	body := string(root.BodyHTML)
	require.Less(t, strings.Index(body, "Second"), strings.Index(body, "First"), "newest post listed first")
	require.Contains(t, body, `href="/first/"`)

	require.Equal(t, "/second/", pages[1].Route)
	require.Equal(t, "/first/", pages[2].Route)
	require.False(t, pages[1].IsRoot)
	require.Equal(t, "https://nckweb.com.ar/first/", pages[2].CanonicalURL)
	require.Equal(t, "first/index.html", pages[2].OutputPath())
	require.True(t, pages[2].Published.Equal(older.Date))

	// The newest post links back to the older one and not forward.
	require.Contains(t, string(pages[1].BodyHTML), `rel="prev"`)
	require.NotContains(t, string(pages[1].BodyHTML), `rel="next"`)
	require.Contains(t, string(pages[1].BodyHTML), "<p>body of second</p>")
}

func TestAssemble_NoPostsStillHasRoot(t *testing.T) {
	pages, err := Assemble(nil, testConf(t))
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.True(t, pages[0].IsRoot)
}

func TestAssemble_DuplicateSlug(t *testing.T) {
	date := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	a := testPost("same", "A", date)
	b := testPost("same", "B", date)
	b.Node = &ContentNode{Path: "/content/blog/same/index.md"}

	_, err := Assemble([]*TransformedPost{a, b}, testConf(t))
	var dup *DuplicateRouteError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, "/same/", dup.Route)
	require.Len(t, dup.Sources, 2)
}

func TestAssemble_PostAtRootRoute(t *testing.T) {
	p := testPost("", "Index", time.Now())

	_, err := Assemble([]*TransformedPost{p}, testConf(t))
	var dup *DuplicateRouteError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, RootRoute, dup.Route)
}

func TestValidatePages(t *testing.T) {
	tests := []struct {
		name  string
		pages []Page
		check func(t *testing.T, err error)
	}{
		{
			name:  "valid",
			pages: []Page{{Route: "/", IsRoot: true}, {Route: "/a/"}},
			check: func(t *testing.T, err error) { require.NoError(t, err) },
		},
		{
			name:  "duplicate route",
			pages: []Page{{Route: "/", IsRoot: true}, {Route: "/a/"}, {Route: "/a/"}},
			check: func(t *testing.T, err error) {
				var dup *DuplicateRouteError
				require.True(t, errors.As(err, &dup))
				require.Equal(t, "/a/", dup.Route)
			},
		},
		{
			name:  "no root",
			pages: []Page{{Route: "/a/"}},
			check: func(t *testing.T, err error) {
				var rootErr *RootPageError
				require.True(t, errors.As(err, &rootErr))
				require.Equal(t, 0, rootErr.Count)
			},
		},
		{
			name:  "two roots",
			pages: []Page{{Route: "/", IsRoot: true}, {Route: "/home/", IsRoot: true}},
			check: func(t *testing.T, err error) {
				var rootErr *RootPageError
				require.True(t, errors.As(err, &rootErr))
				require.Equal(t, 2, rootErr.Count)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ValidatePages(tt.pages))
		})
	}
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		base, route, want string
	}{
		{"https://nckweb.com.ar", "/", "https://nckweb.com.ar/"},
		{"https://nckweb.com.ar/", "/", "https://nckweb.com.ar/"},
		{"https://nckweb.com.ar/", "/hello-world/", "https://nckweb.com.ar/hello-world/"},
		{"https://nckweb.com.ar", "hello-world/", "https://nckweb.com.ar/hello-world/"},
		{"https://example.com/blog/", "/post/", "https://example.com/blog/post/"},
	}
	for _, tt := range tests {
		t.Run(tt.base+tt.route, func(t *testing.T) {
			got, err := CanonicalURL(tt.base, tt.route)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAssemble_TemplateDirOverridesBodies(t *testing.T) {
	conf := testConf(t)
	conf.TemplateDir = t.TempDir()
	writeFile(t, filepath.Join(conf.TemplateDir, "post.html"), `<article class="custom">{{.Post.Title}}: {{.Body}}</article>`)

	p := testPost("first", "First", time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC))
	pages, err := Assemble([]*TransformedPost{p}, conf)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	require.Equal(t, `<article class="custom">First: <p>body of first</p></article>`, string(pages[1].BodyHTML))
	// index.html is not in the directory, so the embedded one is used.
	require.Contains(t, string(pages[0].BodyHTML), `href="/first/"`)
}
