package imlab

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	// Extra decoders for image.Decode beyond jpeg/png/gif.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Loader reads an Image from a path.
type Loader interface {
	Load(path string) (Image, error)
}

// Writer encodes an Image to a path.
type Writer interface {
	Save(img Image, path string) error
}

// FileStore is the file-system Loader and Writer.
type FileStore struct {
	Opts Options
}

// NewFileStore returns a FileStore using opts.
func NewFileStore(opts Options) *FileStore {
	return &FileStore{Opts: opts}
}

// Load implements Loader.
func (s *FileStore) Load(path string) (Image, error) { return Load(path, s.Opts) }

// Save implements Writer.
func (s *FileStore) Save(img Image, path string) error { return Save(img, path, s.Opts) }

// Load decodes the image at path. Missing, unreadable and undecodable files
// all fail with an error wrapping ErrDecode.
func Load(path string, opts Options) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("%w: open %q: %w", ErrDecode, path, err)
	}
	defer f.Close()

	img, err := Decode(f, opts)
	if err != nil {
		return Image{}, fmt.Errorf("load %q: %w", path, err)
	}
	return img, nil
}

// Decode reads an encoded image from r. Failures wrap ErrDecode.
func Decode(r io.Reader, opts Options) (Image, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(opts.AutoOrient))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	img := FromStd(src, opts.Order)
	if opts.Grayscale {
		img = ToGray(img)
	}
	if img.Empty() {
		return Image{}, fmt.Errorf("%w: %w", ErrDecode, ErrEmptyImage)
	}
	return img, nil
}

// Save encodes img to path, choosing the format from the extension
// (.jpg, .jpeg, .png, .gif, .bmp, .tif, .tiff).
func Save(img Image, path string, opts Options) error {
	if img.Empty() {
		return fmt.Errorf("imlab: save %q: %w", path, ErrEmptyImage)
	}
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("%w: save %q: %w", ErrUnsupportedFormat, path, err)
	}
	quality := opts.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = DefaultOptions().JPEGQuality
	}
	if err := imaging.Save(img.ToStd(), path, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("%w: save %q: %w", ErrIO, path, err)
	}
	return nil
}

// Encode writes img to w in the format matching ext (for example ".png").
func Encode(w io.Writer, img Image, ext string, opts Options) error {
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsupportedFormat, ext, err)
	}
	quality := opts.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = DefaultOptions().JPEGQuality
	}
	return imaging.Encode(w, img.ToStd(), format, imaging.JPEGQuality(quality))
}

// NegativePath is the output name of the negative of src: "negative_" plus
// the base name, in the current directory. Sources in a format that can be
// read but not written (webp) get a ".jpg" name instead.
func NegativePath(src string) string {
	base := filepath.Base(src)
	if !writable(base) {
		base = strings.TrimSuffix(base, filepath.Ext(base)) + ".jpg"
	}
	return "negative_" + base
}

// EqualizedPath is the output name of an equalized image. The extension of
// src is kept when it can be written; otherwise the output is ".jpg".
func EqualizedPath(src string) string {
	ext := strings.ToLower(filepath.Ext(src))
	if !writable(ext) {
		ext = ".jpg"
	}
	return "equalized_output" + ext
}

// writable reports whether Save can encode a file named like name.
func writable(name string) bool {
	_, err := imaging.FormatFromFilename(name)
	return err == nil
}

// fileSize returns the on-disk size of path.
func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: stat %q: %w", ErrIO, path, err)
	}
	return info.Size(), nil
}
