package nckweb

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/otiai10/copy"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// staticURLDir is where derivatives and copied files are published, relative
// to the output directory.
const staticURLDir = "static"

// ImageDerivative is a resized copy of an image asset.
type ImageDerivative struct {
	OriginalPath string
	Width        int
	Height       int
	Format       string
	// OutputPath is the URL path the derivative is served at.
	OutputPath string
}

type derivativeKey struct {
	path string
	// 0 publishes the file unchanged.
	width int
}

type derivativeEntry struct {
	once sync.Once
	d    ImageDerivative
	err  error
}

// AssetProcessor resizes and publishes files found under its asset roots.
// It is safe for concurrent use; every (path, width) pair is computed at most once.
type AssetProcessor struct {
	roots  []string
	outDir string

	mu    sync.Mutex
	cache map[derivativeKey]*derivativeEntry

	computed atomic.Int64
}

// NewAssetProcessor returns a processor resolving references under roots
// and writing its output below outDir.
func NewAssetProcessor(outDir string, roots ...string) (*AssetProcessor, error) {
	ap := &AssetProcessor{
		outDir: outDir,
		cache:  make(map[derivativeKey]*derivativeEntry),
	}
	for _, r := range roots {
		if r == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		ap.roots = append(ap.roots, abs)
	}
	return ap, nil
}

// Computed returns the number of derivatives actually produced, not served from the cache.
func (ap *AssetProcessor) Computed() int64 {
	return ap.computed.Load()
}

// Resolve finds the file ref points to, trying it relative to fromDir first
// and then relative to each root. The result must lie under a root.
func (ap *AssetProcessor) Resolve(ref, fromDir string) (string, error) {
	clean, err := url.PathUnescape(ref)
	if err != nil {
		return "", &AssetNotFoundError{Path: ref}
	}
	clean = filepath.FromSlash(clean)

	var candidates []string
	if filepath.IsAbs(clean) {
		candidates = append(candidates, clean)
	}
	if fromDir != "" && !strings.HasPrefix(clean, string(filepath.Separator)) {
		candidates = append(candidates, filepath.Join(fromDir, clean))
	}
	trimmed := strings.TrimPrefix(filepath.Clean(string(filepath.Separator)+clean), string(filepath.Separator))
	for _, root := range ap.roots {
		candidates = append(candidates, filepath.Join(root, trimmed))
	}

	for _, c := range candidates {
		abs, err := filepath.Abs(c)
		if err != nil || !ap.underRoot(abs) {
			continue
		}
		info, err := os.Stat(abs)
		if err == nil && info.Mode().IsRegular() {
			return abs, nil
		}
	}
	return "", &AssetNotFoundError{Path: ref}
}

func (ap *AssetProcessor) underRoot(abs string) bool {
	for _, root := range ap.roots {
		rel, err := filepath.Rel(root, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Derive returns the derivative of originalPath scaled down to at most
// maxWidth pixels wide. Images are never upscaled: every maxWidth at or above
// the source width yields the same full-width derivative. Repeated calls
// return the cached result.
func (ap *AssetProcessor) Derive(originalPath string, maxWidth int) (ImageDerivative, error) {
	if maxWidth <= 0 {
		return ImageDerivative{}, errors.Errorf("invalid width %d for %v", maxWidth, originalPath)
	}
	abs, err := ap.Resolve(originalPath, "")
	if err != nil {
		return ImageDerivative{}, err
	}
	srcWidth, err := imageWidth(abs)
	if err != nil {
		return ImageDerivative{}, err
	}
	width := min(maxWidth, srcWidth)
	return ap.memo(derivativeKey{abs, width}, func() (ImageDerivative, error) {
		return ap.resize(abs, width)
	})
}

func imageWidth(abs string) (int, error) {
	f, err := os.Open(abs)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, errors.Wrapf(err, "decoding %v", abs)
	}
	if cfg.Width <= 0 {
		return 0, errors.Errorf("empty image %v", abs)
	}
	return cfg.Width, nil
}

// uniqueWidths sorts ds by width and drops derivatives whose width is
// already present.
func uniqueWidths(ds []ImageDerivative) []ImageDerivative {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].Width < ds[j].Width })
	out := make([]ImageDerivative, 0, len(ds))
	for _, d := range ds {
		if len(out) > 0 && out[len(out)-1].Width == d.Width {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Publish copies originalPath unchanged into the output directory.
func (ap *AssetProcessor) Publish(originalPath string) (ImageDerivative, error) {
	abs, err := ap.Resolve(originalPath, "")
	if err != nil {
		return ImageDerivative{}, err
	}
	return ap.memo(derivativeKey{abs, 0}, func() (ImageDerivative, error) {
		return ap.publish(abs)
	})
}

func (ap *AssetProcessor) memo(key derivativeKey, compute func() (ImageDerivative, error)) (ImageDerivative, error) {
	ap.mu.Lock()
	e, ok := ap.cache[key]
	if !ok {
		e = &derivativeEntry{}
		ap.cache[key] = e
	}
	ap.mu.Unlock()

	e.once.Do(func() {
		ap.computed.Add(1)
		e.d, e.err = compute()
	})
	return e.d, e.err
}

func digest(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func (ap *AssetProcessor) resize(abs string, width int) (ImageDerivative, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return ImageDerivative{}, errors.WithStack(err)
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ImageDerivative{}, errors.Wrapf(err, "decoding %v", abs)
	}

	b := src.Bounds()
	width = min(width, b.Dx())
	height := max((b.Dy()*width+b.Dx()/2)/b.Dx(), 1)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var out bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&out, dst, &jpeg.Options{Quality: 90})
	default:
		format = "png"
		err = png.Encode(&out, dst)
	}
	if err != nil {
		return ImageDerivative{}, errors.Wrapf(err, "encoding %v", abs)
	}

	ext := "." + format
	if format == "jpeg" {
		ext = ".jpg"
	}
	stem := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	name := stem + "-" + strconv.Itoa(width) + ext
	urlPath, err := ap.write(digest(data), name, out.Bytes())
	if err != nil {
		return ImageDerivative{}, err
	}

	return ImageDerivative{
		OriginalPath: abs,
		Width:        width,
		Height:       height,
		Format:       format,
		OutputPath:   urlPath,
	}, nil
}

func (ap *AssetProcessor) write(dir, name string, data []byte) (string, error) {
	target := filepath.Join(ap.outDir, staticURLDir, dir, name)
	if err := os.MkdirAll(filepath.Dir(target), os.FileMode(0775)); err != nil {
		return "", errors.WithStack(err)
	}
	if err := os.WriteFile(target, data, os.FileMode(0664)); err != nil {
		return "", errors.WithStack(err)
	}
	return "/" + path.Join(staticURLDir, dir, name), nil
}

func (ap *AssetProcessor) publish(abs string) (ImageDerivative, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return ImageDerivative{}, errors.WithStack(err)
	}
	dir := digest(data)
	name := filepath.Base(abs)
	target := filepath.Join(ap.outDir, staticURLDir, dir, name)
	if err := copy.Copy(abs, target); err != nil {
		return ImageDerivative{}, errors.Wrapf(err, "copying %v", abs)
	}
	return ImageDerivative{
		OriginalPath: abs,
		Format:       strings.TrimPrefix(strings.ToLower(filepath.Ext(abs)), "."),
		OutputPath:   "/" + path.Join(staticURLDir, dir, name),
	}, nil
}

// isRasterImage reports whether ref names an image Derive can resize.
func isRasterImage(ref string) bool {
	switch strings.ToLower(path.Ext(ref)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
