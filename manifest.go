package nckweb

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

const manifestFileName = "manifest.webmanifest"

// IconSizes are the square icon sizes listed in the web-app manifest.
var IconSizes = []int{48, 72, 96, 144, 192, 256, 384, 512}

type webManifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	Description     string         `json:"description,omitempty"`
	StartURL        string         `json:"start_url"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Display         string         `json:"display"`
	Icons           []manifestIcon `json:"icons,omitempty"`
}

type manifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

// ManifestGenerator writes the web-app manifest. It only reads the site
// configuration and the icon derivatives it was given; pages are ignored.
type ManifestGenerator struct {
	Icons []ImageDerivative
}

func (g ManifestGenerator) Generate(conf *SiteConf, _ []Page) (Artifact, error) {
	m := conf.Manifest
	manifest := webManifest{
		Name:            m.Name,
		ShortName:       m.ShortName,
		Description:     conf.Metadata.Description,
		StartURL:        m.StartURL,
		BackgroundColor: m.BackgroundColor,
		ThemeColor:      m.ThemeColor,
		Display:         m.Display,
	}
	if manifest.Name == "" {
		manifest.Name = conf.Metadata.Title
	}
	if manifest.ShortName == "" {
		manifest.ShortName = manifest.Name
	}
	if manifest.StartURL == "" {
		manifest.StartURL = RootRoute
	}

	for _, icon := range g.Icons {
		manifest.Icons = append(manifest.Icons, manifestIcon{
			Src:   icon.OutputPath,
			Sizes: strconv.Itoa(icon.Width) + "x" + strconv.Itoa(icon.Height),
			Type:  "image/" + icon.Format,
		})
	}

	content, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Artifact{}, errors.Wrap(err, "generating manifest")
	}
	return Artifact{Kind: Manifest, Name: manifestFileName, Content: content}, nil
}
