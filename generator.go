package nckweb

// ArtifactKind identifies what an Artifact holds.
type ArtifactKind int

const (
	Feed ArtifactKind = iota
	Sitemap
	Manifest
)

func (k ArtifactKind) String() string {
	switch k {
	case Feed:
		return "feed"
	case Sitemap:
		return "sitemap"
	case Manifest:
		return "manifest"
	}
	return "unknown"
}

// Artifact is a generated output file other than a page.
type Artifact struct {
	Kind ArtifactKind
	// Name is the file name relative to the output directory.
	Name    string
	Content []byte
}

// Generator derives one artifact from the site configuration and the
// complete page set. Implementations must not modify pages.
type Generator interface {
	Generate(conf *SiteConf, pages []Page) (Artifact, error)
}
