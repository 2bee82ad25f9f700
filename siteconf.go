package nckweb

import (
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// AccentColor is the colour of the small page header and the manifest theme.
const AccentColor = "#f47c48"

// DefaultImageWidth is the max width images are resized to when none is configured.
const DefaultImageWidth = 590

// SiteMetadata is the read-only description of the site shared by every
// stage of the build.
type SiteMetadata struct {
	Title       string            `mapstructure:"title"`
	Author      string            `mapstructure:"author"`
	Description string            `mapstructure:"description"`
	SiteURL     string            `mapstructure:"siteUrl"`
	Social      map[string]string `mapstructure:"social"`
}

type ImageConf struct {
	// Widths lists the max widths generated for every embedded image.
	Widths []int `mapstructure:"widths"`
}

type IframeConf struct {
	WrapperStyle string `mapstructure:"wrapperStyle"`
}

type AnalyticsConf struct {
	TrackingID string `mapstructure:"trackingId"`
}

type ManifestConf struct {
	Name            string `mapstructure:"name"`
	ShortName       string `mapstructure:"shortName"`
	StartURL        string `mapstructure:"startUrl"`
	BackgroundColor string `mapstructure:"backgroundColor"`
	ThemeColor      string `mapstructure:"themeColor"`
	Display         string `mapstructure:"display"`
	Icon            string `mapstructure:"icon"`
}

// SiteConf is the full build configuration: site metadata plus the
// locations and options of every pipeline stage.
type SiteConf struct {
	Metadata SiteMetadata `mapstructure:"siteMetadata"`

	ContentDir  string `mapstructure:"contentDir"`
	AssetsDir   string `mapstructure:"assetsDir"`
	StaticDir   string `mapstructure:"staticDir"`
	OutDir      string `mapstructure:"outDir"`
	TemplateDir string `mapstructure:"templateDir"`

	Images    ImageConf     `mapstructure:"images"`
	Iframe    IframeConf    `mapstructure:"iframe"`
	Analytics AnalyticsConf `mapstructure:"analytics"`
	Manifest  ManifestConf  `mapstructure:"manifest"`

	// Include posts flagged with "draft: true".
	Drafts bool `mapstructure:"drafts"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("contentDir", "content/blog")
	v.SetDefault("assetsDir", "content/assets")
	v.SetDefault("staticDir", "static")
	v.SetDefault("outDir", "public")
	v.SetDefault("images.widths", []int{DefaultImageWidth})
	v.SetDefault("iframe.wrapperStyle", "margin-bottom: 1.0725rem")
	v.SetDefault("manifest.startUrl", "/")
	v.SetDefault("manifest.backgroundColor", "#ffffff")
	v.SetDefault("manifest.themeColor", AccentColor)
	v.SetDefault("manifest.display", "minimal-ui")
}

// LoadConf reads the site configuration from fileName. An empty fileName
// looks for nckweb.yaml in the working directory. Values can be overridden
// with NCKWEB_* environment variables.
//
// Duplicate keys in the file are an error: the YAML decoder reports them
// instead of letting the last one win.
func LoadConf(fileName string) (*SiteConf, error) {
	v := viper.New()
	setDefaults(v)

	if fileName != "" {
		v.SetConfigFile(fileName)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("nckweb")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("NCKWEB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "reading site configuration")
	}

	conf := SiteConf{}
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Wrap(err, "decoding site configuration")
	}

	// Normalize relative paths because the executable can be called from anywhere
	baseDir := filepath.Dir(v.ConfigFileUsed())
	conf.ContentDir = normalizePath(conf.ContentDir, baseDir)
	conf.AssetsDir = normalizePath(conf.AssetsDir, baseDir)
	conf.StaticDir = normalizePath(conf.StaticDir, baseDir)
	conf.OutDir = normalizePath(conf.OutDir, baseDir)
	conf.TemplateDir = normalizePath(conf.TemplateDir, baseDir)
	conf.Manifest.Icon = normalizePath(conf.Manifest.Icon, baseDir)

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks the fields every build depends on.
func (c *SiteConf) Validate() error {
	if c.Metadata.Title == "" {
		return errors.New("siteMetadata.title is required")
	}
	u, err := url.Parse(c.Metadata.SiteURL)
	if err != nil {
		return errors.Wrapf(err, "invalid siteMetadata.siteUrl %q", c.Metadata.SiteURL)
	}
	if !u.IsAbs() || u.Host == "" {
		return errors.Errorf("siteMetadata.siteUrl %q must be an absolute URL", c.Metadata.SiteURL)
	}
	for _, w := range c.Images.Widths {
		if w <= 0 {
			return errors.Errorf("images.widths: invalid width %d", w)
		}
	}
	return nil
}

// imageWidths returns the configured widths, falling back to DefaultImageWidth.
func (c *SiteConf) imageWidths() []int {
	if len(c.Images.Widths) == 0 {
		return []int{DefaultImageWidth}
	}
	return c.Images.Widths
}

func normalizePath(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	absPath := filepath.Join(baseDir, path)
	slog.Debug("Normalizing path", "path", path, "abs", absPath)
	return absPath
}
