package nckweb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func artifactOf(t *testing.T, site *Site, kind ArtifactKind) Artifact {
	t.Helper()
	for _, a := range site.Artifacts() {
		if a.Kind == kind {
			return a
		}
	}
	t.Fatalf("no %v artifact", kind)
	return Artifact{}
}

func TestBuild_SinglePost(t *testing.T) {
	conf := testConf(t)
	writeFile(t, filepath.Join(conf.ContentDir, "hello-world.md"), "---\ntitle: \"Hello World\"\n---\n# Hi\n")

	site, err := Build(context.Background(), conf, nil)
	require.NoError(t, err)

	pages := site.Pages()
	require.Len(t, pages, 2)
	var roots, others []Page
	for _, p := range pages {
		if p.IsRoot {
			roots = append(roots, p)
		} else {
			others = append(others, p)
		}
	}
	require.Len(t, roots, 1)
	require.Len(t, others, 1)
	require.Equal(t, "/hello-world/", others[0].Route)
	require.Equal(t, "Hello World", others[0].Title)

	sitemap := artifactOf(t, site, Sitemap)
	require.Equal(t, 2, strings.Count(string(sitemap.Content), "<url>"))

	for _, name := range []string{"index.html", "hello-world/index.html", "atom.xml", "sitemap.xml", "manifest.webmanifest"} {
		_, err := os.Stat(filepath.Join(conf.OutDir, filepath.FromSlash(name)))
		require.NoError(t, err, name)
	}

	index, err := os.ReadFile(filepath.Join(conf.OutDir, "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(index), `<h1 class="title"`)

	post, err := os.ReadFile(filepath.Join(conf.OutDir, "hello-world", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(post), "text-transform: uppercase")
	require.Contains(t, string(post), ">Hi</h1>")
	require.Contains(t, string(post), `href="https://nckweb.com.ar/hello-world/"`)
}

func TestBuild_ImageDerivatives(t *testing.T) {
	conf := testConf(t)
	conf.Images.Widths = []int{295, 590}
	writePNG(t, filepath.Join(conf.AssetsDir, "photo.png"), 800, 600)
	writeFile(t, filepath.Join(conf.ContentDir, "pics.md"), "---\ntitle: Pics\n---\n![alt](./photo.png)\n")

	site, err := Build(context.Background(), conf, nil)
	require.NoError(t, err)

	posts := site.Posts()
	require.Len(t, posts, 1)
	p := posts[0]
	require.Len(t, p.Images, 2)
	require.NotContains(t, p.HTML, "./photo.png")
	for _, d := range p.Images {
		require.Contains(t, p.HTML, d.OutputPath)
		_, err := os.Stat(filepath.Join(conf.OutDir, filepath.FromSlash(d.OutputPath)))
		require.NoError(t, err)
	}
}

func TestBuild_MissingContentRoot(t *testing.T) {
	conf := testConf(t)
	conf.ContentDir = filepath.Join(t.TempDir(), "missing")

	_, err := Build(context.Background(), conf, nil)
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, conf.ContentDir, notFound.Path)

	_, statErr := os.Stat(conf.OutDir)
	require.True(t, os.IsNotExist(statErr), "nothing written before the scan succeeded")
}

func TestBuild_BadPostAbortsBuild(t *testing.T) {
	conf := testConf(t)
	writeFile(t, filepath.Join(conf.ContentDir, "good.md"), "---\ntitle: Good\n---\nok\n")
	writeFile(t, filepath.Join(conf.ContentDir, "bad.md"), "---\ntitle: Bad\n---\n![x](./missing.png)\n")

	_, err := Build(context.Background(), conf, nil)
	var te *TransformError
	require.True(t, errors.As(err, &te))
	require.Equal(t, filepath.Join(conf.ContentDir, "bad.md"), te.Path)
	var notFound *AssetNotFoundError
	require.True(t, errors.As(err, &notFound))

	_, statErr := os.Stat(filepath.Join(conf.OutDir, "index.html"))
	require.True(t, os.IsNotExist(statErr))
}

func TestBuild_DuplicateSlugs(t *testing.T) {
	conf := testConf(t)
	writeFile(t, filepath.Join(conf.ContentDir, "hello.md"), "# one\n")
	writeFile(t, filepath.Join(conf.ContentDir, "hello", "index.md"), "# two\n")

	_, err := Build(context.Background(), conf, nil)
	var dup *DuplicateRouteError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, "/hello/", dup.Route)
}

func TestBuild_Drafts(t *testing.T) {
	conf := testConf(t)
	writeFile(t, filepath.Join(conf.ContentDir, "wip.md"), "---\ntitle: WIP\ndraft: true\n---\nsoon\n")
	writeFile(t, filepath.Join(conf.ContentDir, "done.md"), "---\ntitle: Done\n---\nhere\n")

	site, err := ReadSite(context.Background(), conf, nil)
	require.NoError(t, err)
	require.Len(t, site.Posts(), 1)
	require.Equal(t, "done", site.Posts()[0].Slug)

	conf.Drafts = true
	site, err = ReadSite(context.Background(), conf, nil)
	require.NoError(t, err)
	require.Len(t, site.Posts(), 2)
}

func TestBuild_ManifestIconsAndStaticFiles(t *testing.T) {
	conf := testConf(t)
	conf.Manifest.Icon = filepath.Join(conf.AssetsDir, "icon.png")
	writePNG(t, conf.Manifest.Icon, 512, 512)
	writeFile(t, filepath.Join(conf.StaticDir, "robots.txt"), "User-agent: *\n")

	site, err := Build(context.Background(), conf, nil)
	require.NoError(t, err)

	manifest := artifactOf(t, site, Manifest)
	require.Contains(t, string(manifest.Content), `"sizes": "192x192"`)
	require.Contains(t, string(manifest.Content), `"sizes": "512x512"`)

	robots, err := os.ReadFile(filepath.Join(conf.OutDir, "robots.txt"))
	require.NoError(t, err)
	require.Equal(t, "User-agent: *\n", string(robots))
}

func TestBuild_NonSquareManifestIcon(t *testing.T) {
	conf := testConf(t)
	conf.Manifest.Icon = filepath.Join(conf.AssetsDir, "icon.png")
	writePNG(t, conf.Manifest.Icon, 200, 100)

	site, err := Build(context.Background(), conf, nil)
	require.NoError(t, err)

	var m struct {
		Icons []struct {
			Src   string `json:"src"`
			Sizes string `json:"sizes"`
		} `json:"icons"`
	}
	require.NoError(t, json.Unmarshal(artifactOf(t, site, Manifest).Content, &m))

	var sizes []string
	for _, icon := range m.Icons {
		sizes = append(sizes, icon.Sizes)
		_, err := os.Stat(filepath.Join(conf.OutDir, filepath.FromSlash(icon.Src)))
		require.NoError(t, err)
	}
	require.Equal(t, []string{"48x24", "72x36", "96x48", "144x72", "192x96", "200x100"}, sizes)
}

func TestBuild_Reproducible(t *testing.T) {
	conf := testConf(t)
	writeFile(t, filepath.Join(conf.ContentDir, "a.md"), "---\ntitle: A\ndate: 2019-01-01\n---\n\"Quote\" -- here\n")
	writeFile(t, filepath.Join(conf.ContentDir, "b.md"), "---\ntitle: B\ndate: 2019-01-02\n---\n```go\nx := 1\n```\n")

	first, err := Build(context.Background(), conf, nil)
	require.NoError(t, err)
	second, err := Build(context.Background(), conf, nil)
	require.NoError(t, err)

	require.Equal(t, first.Pages(), second.Pages())
	require.Equal(t, first.Artifacts(), second.Artifacts())
}
