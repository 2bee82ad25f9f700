package nckweb

import (
	"log/slog"
	"sort"
	"time"

	"github.com/pkg/errors"
	atom "github.com/thomas11/atomgenerator"
)

const feedFileName = "atom.xml"

// FeedGenerator produces the Atom feed of all posts, newest first.
type FeedGenerator struct{}

func (FeedGenerator) Generate(conf *SiteConf, pages []Page) (Artifact, error) {
	entries := make([]*Page, 0, len(pages))
	for i := range pages {
		if pages[i].IsRoot {
			continue
		}
		if pages[i].Published.IsZero() {
			return Artifact{}, errors.Errorf("feed: page %v has no publish date", pages[i].Route)
		}
		entries = append(entries, &pages[i])
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Published.Equal(entries[j].Published) {
			return entries[i].Published.After(entries[j].Published)
		}
		return entries[i].Route < entries[j].Route
	})

	feedUrl, err := CanonicalURL(conf.Metadata.SiteURL, RootRoute)
	if err != nil {
		return Artifact{}, err
	}

	// Dated by the newest post, never the wall clock.
	feed := atom.Feed{
		Title: conf.Metadata.Title,
		Link:  feedUrl,
	}
	if len(entries) > 0 {
		feed.PubDate = entries[0].Published
	} else {
		feed.PubDate = time.Unix(0, 0).UTC()
	}
	feed.AddAuthor(atom.Author{
		Name: conf.Metadata.Author,
		Uri:  feedUrl,
	})

	for _, p := range entries {
		feed.AddEntry(&atom.Entry{
			Title:       p.Title,
			Description: p.Description,
			Link:        p.CanonicalURL,
			PubDate:     p.Published,
			Content:     string(p.BodyHTML),
		})
	}

	if errs := feed.Validate(); len(errs) > 0 {
		for _, e := range errs {
			slog.Error("Atom feed is not valid", "error", e)
		}
		return Artifact{}, errors.Wrap(errs[0], "validating feed")
	}

	content, err := feed.GenXml()
	if err != nil {
		return Artifact{}, errors.Wrap(err, "generating feed")
	}
	return Artifact{Kind: Feed, Name: feedFileName, Content: content}, nil
}
