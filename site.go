// Package nckweb builds the nckweb blog: markdown posts and image assets
// in, a static site with an Atom feed, a sitemap and a web-app manifest out.
//
// Posts go through a fixed chain of sub-transforms (see DefaultPipeline),
// are assembled into pages wrapped in the layout chrome, and the auxiliary
// generators run over the finished page set.
package nckweb

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/otiai10/copy"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	blogSourceName   = "blog"
	assetsSourceName = "assets"
)

// Site is one build of the blog: the posts read from the content root and,
// once rendered, its pages and artifacts.
type Site struct {
	conf   *SiteConf
	log    *slog.Logger
	assets *AssetProcessor

	nodes     []ContentNode
	posts     posts
	pages     []Page
	artifacts []Artifact
}

// ReadSite scans the content and asset roots and transforms every post.
// Posts are transformed concurrently; the first failure aborts the build.
func ReadSite(ctx context.Context, conf *SiteConf, logger *slog.Logger) (*Site, error) {
	if logger == nil {
		logger = slog.Default()
	}

	nodes, err := Scan(conf.ContentDir, blogSourceName)
	if err != nil {
		return nil, err
	}
	if conf.AssetsDir != "" {
		assetNodes, err := Scan(conf.AssetsDir, assetsSourceName)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, assetNodes...)
	}

	assets, err := NewAssetProcessor(conf.OutDir, conf.ContentDir, conf.AssetsDir)
	if err != nil {
		return nil, err
	}

	thisSite := &Site{
		conf:   conf,
		log:    logger,
		assets: assets,
		nodes:  nodes,
	}

	markdown := make([]*ContentNode, 0, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		if n.SourceName != blogSourceName || !n.IsMarkdown() {
			continue
		}
		if n.IsDraft() && !conf.Drafts {
			logger.Info("Skipping draft", "path", n.Path)
			continue
		}
		markdown = append(markdown, n)
	}

	pipeline := DefaultPipeline(conf, assets)
	transformer := NewTransformer()
	results := make([]*TransformedPost, len(markdown))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, node := range markdown {
		i, node := i, node
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := transformer.Transform(node, pipeline)
			if err != nil {
				return err
			}
			logger.Debug("Transformed post", "path", node.Path, "slug", p.Slug, "images", len(p.Images))
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := checkUniqueSlugs(results); err != nil {
		return nil, err
	}
	thisSite.posts = results

	logger.Info("Read site", "posts", len(results), "files", len(nodes), "derivatives", assets.Computed())
	return thisSite, nil
}

func (s *Site) Posts() []*TransformedPost { return s.posts }
func (s *Site) Pages() []Page             { return s.pages }
func (s *Site) Artifacts() []Artifact     { return s.artifacts }

// RenderAll assembles the pages, writes them to the output directory and
// generates the feed, sitemap and manifest.
func (s *Site) RenderAll(ctx context.Context) error {
	pages, err := Assemble(s.posts, s.conf)
	if err != nil {
		return err
	}
	s.pages = pages

	if err := s.RenderHtml(); err != nil {
		return err
	}

	icons, err := s.deriveIcons()
	if err != nil {
		return err
	}

	generators := []Generator{
		FeedGenerator{},
		SitemapGenerator{},
		ManifestGenerator{Icons: icons},
	}
	artifacts := make([]Artifact, len(generators))
	g, gctx := errgroup.WithContext(ctx)
	for i, gen := range generators {
		i, gen := i, gen
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := gen.Generate(s.conf, pages)
			artifacts[i] = a
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.artifacts = artifacts

	for _, a := range artifacts {
		path := filepath.Join(s.conf.OutDir, a.Name)
		if err := os.WriteFile(path, a.Content, os.FileMode(0664)); err != nil {
			return errors.Wrapf(err, "writing %v", a.Kind)
		}
		s.log.Info("Wrote artifact", "kind", a.Kind.String(), "path", path)
	}
	return nil
}

// RenderHtml writes every assembled page inside the layout chrome.
func (s *Site) RenderHtml() error {
	engine, err := newTemplateEngine(s.conf.TemplateDir)
	if err != nil {
		return err
	}

	for i := range s.pages {
		page := &s.pages[i]
		var b bytes.Buffer
		if err := engine.renderPage(page, s.conf, &b); err != nil {
			return err
		}

		outHtmlName := filepath.Join(s.conf.OutDir, filepath.FromSlash(page.OutputPath()))
		if err := os.MkdirAll(filepath.Dir(outHtmlName), os.FileMode(0775)); err != nil {
			return errors.WithStack(err)
		}
		if err := os.WriteFile(outHtmlName, b.Bytes(), os.FileMode(0664)); err != nil {
			return errors.WithStack(err)
		}
	}
	s.log.Info("Wrote pages", "count", len(s.pages), "dir", s.conf.OutDir)
	return nil
}

func (s *Site) deriveIcons() ([]ImageDerivative, error) {
	icon := s.conf.Manifest.Icon
	if icon == "" {
		return nil, nil
	}
	icons := make([]ImageDerivative, 0, len(IconSizes))
	for _, size := range IconSizes {
		d, err := s.assets.Derive(icon, size)
		if err != nil {
			return nil, errors.Wrap(err, "manifest icon")
		}
		icons = append(icons, d)
	}
	// Sizes above the source width are served by the source-sized icon.
	return uniqueWidths(icons), nil
}

// CopyStaticFiles copies the static directory verbatim into the output
// directory. A missing static directory is not an error.
func (s *Site) CopyStaticFiles() error {
	srcDir := s.conf.StaticDir
	if srcDir == "" {
		return nil
	}
	if _, err := os.Stat(srcDir); errors.Is(err, fs.ErrNotExist) {
		s.log.Debug("No static directory", "dir", srcDir)
		return nil
	}
	s.log.Info("Copying static files", "from", srcDir, "to", s.conf.OutDir)
	return errors.Wrap(copy.Copy(srcDir, s.conf.OutDir), "copying static files")
}

// Build runs a complete build of conf into its output directory.
func Build(ctx context.Context, conf *SiteConf, logger *slog.Logger) (*Site, error) {
	site, err := ReadSite(ctx, conf, logger)
	if err != nil {
		return nil, err
	}
	if err := site.RenderAll(ctx); err != nil {
		return nil, err
	}
	if err := site.CopyStaticFiles(); err != nil {
		return nil, err
	}
	return site, nil
}
