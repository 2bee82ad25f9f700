package nckweb

import (
	"encoding/xml"
	"sort"

	"github.com/pkg/errors"
)

const sitemapFileName = "sitemap.xml"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	Urls    []sitemapUrl `xml:"url"`
}

type sitemapUrl struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// SitemapGenerator lists every page in sitemaps.org format.
type SitemapGenerator struct{}

func (SitemapGenerator) Generate(conf *SiteConf, pages []Page) (Artifact, error) {
	sitemap := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		Urls:  make([]sitemapUrl, 0, len(pages)),
	}

	sorted := make([]Page, len(pages))
	copy(sorted, pages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Route < sorted[j].Route })

	for _, p := range sorted {
		loc := p.CanonicalURL
		if loc == "" {
			var err error
			if loc, err = CanonicalURL(conf.Metadata.SiteURL, p.Route); err != nil {
				return Artifact{}, err
			}
		}
		u := sitemapUrl{Loc: loc, ChangeFreq: "daily", Priority: "0.7"}
		if !p.Modified.IsZero() {
			u.LastMod = p.Modified.UTC().Format("2006-01-02")
		}
		sitemap.Urls = append(sitemap.Urls, u)
	}

	xmlOutput, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return Artifact{}, errors.Wrap(err, "generating sitemap")
	}
	content := append([]byte(xml.Header), xmlOutput...)
	return Artifact{Kind: Sitemap, Name: sitemapFileName, Content: content}, nil
}
