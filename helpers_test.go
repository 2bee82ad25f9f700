package nckweb

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0x48, 0xff})
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// testConf returns a configuration rooted in a fresh temp dir with empty
// content and asset roots.
func testConf(t *testing.T) *SiteConf {
	t.Helper()
	dir := t.TempDir()
	conf := &SiteConf{
		Metadata: SiteMetadata{
			Title:       "Nckweb",
			Author:      "Nicolas Cisco",
			Description: "Just my thoughts about the stuff i do.",
			SiteURL:     "https://nckweb.com.ar/",
			Social:      map[string]string{"twitter": "nickcis", "github": "nickcis", "medium": "nickcis"},
		},
		ContentDir: filepath.Join(dir, "content", "blog"),
		AssetsDir:  filepath.Join(dir, "content", "assets"),
		StaticDir:  filepath.Join(dir, "static"),
		OutDir:     filepath.Join(dir, "public"),
		Images:     ImageConf{Widths: []int{DefaultImageWidth}},
		Iframe:     IframeConf{WrapperStyle: "margin-bottom: 1.0725rem"},
	}
	require.NoError(t, os.MkdirAll(conf.ContentDir, 0o755))
	require.NoError(t, os.MkdirAll(conf.AssetsDir, 0o755))
	return conf
}
