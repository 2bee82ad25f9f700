package nckweb

import (
	"html/template"
	"sort"
	"strconv"
)

// HeaderVariant selects how the site title is rendered at the top of a page.
type HeaderVariant int

const (
	// HeaderLarge is used on the site index.
	HeaderLarge HeaderVariant = iota
	// HeaderSmallUppercase is used everywhere else.
	HeaderSmallUppercase
)

func (v HeaderVariant) String() string {
	switch v {
	case HeaderLarge:
		return "large"
	case HeaderSmallUppercase:
		return "small-uppercase"
	}
	return "HeaderVariant(" + strconv.Itoa(int(v)) + ")"
}

func HeaderVariantFor(isRoot bool) HeaderVariant {
	if isRoot {
		return HeaderLarge
	}
	return HeaderSmallUppercase
}

const titleLinkStyle = "box-shadow: none; text-decoration: none; color: inherit;"

// RenderTitle renders the site title heading. Both variants link to the site root.
func RenderTitle(isRoot bool, title string) template.HTML {
	link := `<a style="` + titleLinkStyle + `" href="/">` + template.HTMLEscapeString(title) + `</a>`

	switch HeaderVariantFor(isRoot) {
	case HeaderLarge:
		return template.HTML(`<h1 class="title" style="margin-bottom: ` + Rhythm(1.5) + `; margin-top: 0;">` + link + `</h1>`)
	default:
		return template.HTML(`<h3 class="title-small" style="text-transform: uppercase; color: ` + AccentColor +
			`; font-family: Montserrat, sans-serif; margin-top: 0;">` + link + `</h3>`)
	}
}

// baseLineHeight is the vertical rhythm unit in rem.
const baseLineHeight = 1.75

// Rhythm returns n lines of vertical rhythm as a CSS length.
func Rhythm(n float64) string {
	return strconv.FormatFloat(n*baseLineHeight, 'f', -1, 64) + "rem"
}

type SocialLink struct {
	Platform string
	URL      string
}

var socialProfileURLs = map[string]string{
	"twitter":  "https://twitter.com/",
	"github":   "https://github.com/",
	"medium":   "https://medium.com/@",
	"linkedin": "https://www.linkedin.com/in/",
}

var socialOrder = []string{"twitter", "github", "medium"}

// socialLinks turns platform handles into profile links. The usual
// platforms come first, anything else follows in name order. Platforms
// with no known profile URL are skipped.
func socialLinks(social map[string]string) []SocialLink {
	links := make([]SocialLink, 0, len(social))
	seen := make(map[string]bool)
	for _, p := range socialOrder {
		if h, ok := social[p]; ok && h != "" {
			links = append(links, SocialLink{p, socialProfileURLs[p] + h})
			seen[p] = true
		}
	}

	var rest []string
	for p := range social {
		if _, known := socialProfileURLs[p]; known && !seen[p] && social[p] != "" {
			rest = append(rest, p)
		}
	}
	sort.Strings(rest)
	for _, p := range rest {
		links = append(links, SocialLink{p, socialProfileURLs[p] + social[p]})
	}
	return links
}
