package nckweb

import (
	"bytes"
	"fmt"
	"time"
)

// TransformedPost is a markdown node rendered to HTML with its derived fields.
type TransformedPost struct {
	Node        *ContentNode
	HTML        string
	Excerpt     string
	Slug        string
	Title       string
	Description string
	Date        time.Time
	ReadingTime time.Duration
	Images      []ImageDerivative
}

// Route is the URL path the post is published at.
func (p *TransformedPost) Route() string {
	if p.Slug == "" {
		return RootRoute
	}
	return "/" + p.Slug + "/"
}

// Summary is the description if there is one, the excerpt otherwise.
func (p *TransformedPost) Summary() string {
	if p.Description != "" {
		return p.Description
	}
	return p.Excerpt
}

// Called from templates
func (p *TransformedPost) FormatDate() string {
	return formatDate(p.Date)
}

func (p *TransformedPost) String() string {
	b := new(bytes.Buffer)
	b.WriteString("title: ")
	b.WriteString(p.Title)
	b.WriteString("\nslug: ")
	b.WriteString(p.Slug)
	b.WriteString("\ndate: ")
	b.WriteString(p.Date.String())
	fmt.Fprintf(b, "\nimages: %d", len(p.Images))

	body := p.HTML
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	b.WriteString("\nhtml: ")
	b.WriteString(body)

	return b.String()
}

func formatDate(d time.Time) string {
	return d.Format("January 2, 2006")
}

type posts []*TransformedPost

// Newest first; slug breaks ties so the order is stable across builds.
func (ps posts) Len() int      { return len(ps) }
func (ps posts) Swap(i, j int) { ps[i], ps[j] = ps[j], ps[i] }
func (ps posts) Less(i, j int) bool {
	if !ps[i].Date.Equal(ps[j].Date) {
		return ps[i].Date.After(ps[j].Date)
	}
	return ps[i].Slug < ps[j].Slug
}

func (ps posts) latestDate() time.Time {
	var t time.Time
	for _, p := range ps {
		if p.Date.After(t) {
			t = p.Date
		}
	}
	return t
}
