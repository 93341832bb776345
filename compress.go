package imlab

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// CompressionReport compares the raw sample size of an image with the size
// of the encoded file it was loaded from.
type CompressionReport struct {
	// UncompressedBytes is height × width × channels × byte width.
	UncompressedBytes int64

	// CompressedBytes is the on-disk size of the file.
	CompressedBytes int64

	// Ratio is UncompressedBytes / CompressedBytes.
	Ratio float64

	// PercentSaved is (1 - CompressedBytes/UncompressedBytes) × 100.
	PercentSaved float64

	// SpaceSaved is UncompressedBytes - CompressedBytes (negative when the
	// file is larger than the raw samples).
	SpaceSaved int64

	// Reference is an optional lossless coding of the raw samples.
	Reference *ReferenceSize
}

// Estimate computes the compression report of img against the file at path.
// The ratio is measured against the theoretical raw size, not against what
// the codec actually stored. A zero-byte file fails with ErrDivision.
func Estimate(img Image, path string) (*CompressionReport, error) {
	compressed, err := fileSize(path)
	if err != nil {
		return nil, err
	}
	return estimate(img, compressed)
}

func estimate(img Image, compressed int64) (*CompressionReport, error) {
	if compressed == 0 {
		return nil, fmt.Errorf("%w: compressed size is 0 bytes", ErrDivision)
	}
	raw := int64(img.Height) * int64(img.Width) * int64(img.Channels) * int64(img.ByteWidth())
	r := &CompressionReport{
		UncompressedBytes: raw,
		CompressedBytes:   compressed,
		Ratio:             float64(raw) / float64(compressed),
		SpaceSaved:        raw - compressed,
	}
	if raw > 0 {
		r.PercentSaved = (1 - float64(compressed)/float64(raw)) * 100
	}
	return r, nil
}

// EstimateWithReference is Estimate plus a lossless reference coding of the
// samples with codec.
func EstimateWithReference(img Image, path string, codec Codec) (*CompressionReport, error) {
	r, err := Estimate(img, path)
	if err != nil {
		return nil, err
	}
	ref, err := ReferenceSizeOf(img, codec)
	if err != nil {
		return nil, err
	}
	r.Reference = ref
	return r, nil
}

// String renders the report as printed by the CLI.
func (r *CompressionReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Uncompressed Size: %d bytes (%s)\n", r.UncompressedBytes, megabytes(r.UncompressedBytes))
	fmt.Fprintf(&b, "Compressed Size: %d bytes (%s)\n", r.CompressedBytes, megabytes(r.CompressedBytes))
	fmt.Fprintf(&b, "Compression Ratio: %.2f:1\n", r.Ratio)
	fmt.Fprintf(&b, "Compression Percentage: %.2f%%\n", r.PercentSaved)
	fmt.Fprintf(&b, "Space Saved: %d bytes\n", r.SpaceSaved)
	if r.Reference != nil {
		fmt.Fprintf(&b, "Lossless %s Size: %d bytes (%s, %.2f:1)\n",
			r.Reference.Codec, r.Reference.Bytes, humanBytes(r.Reference.Bytes), r.Reference.Ratio)
	}
	return b.String()
}

// Codec selects the lossless coder used for reference sizes.
type Codec int

const (
	// Zstd codes with zstd at its best-compression level.
	Zstd Codec = iota
	// Zlib codes with zlib (deflate) at its best-compression level.
	Zlib
)

func (c Codec) String() string {
	switch c {
	case Zlib:
		return "zlib"
	default:
		return "zstd"
	}
}

// ParseCodec maps "zstd" or "zlib" to a Codec.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zstd":
		return Zstd, nil
	case "zlib", "deflate":
		return Zlib, nil
	default:
		return Zstd, fmt.Errorf("imlab: unknown codec %q (use zstd or zlib)", s)
	}
}

// ReferenceSize is the size of the raw samples after lossless coding.
type ReferenceSize struct {
	Codec Codec
	Bytes int64
	// Ratio is raw bytes / coded bytes.
	Ratio float64
}

// ReferenceSizeOf losslessly codes the samples of img and reports the size.
func ReferenceSizeOf(img Image, codec Codec) (*ReferenceSize, error) {
	if img.Empty() {
		return nil, fmt.Errorf("imlab: reference size: %w", ErrEmptyImage)
	}

	var n int64
	switch codec {
	case Zstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return nil, fmt.Errorf("imlab: zstd encoder: %w", err)
		}
		n = int64(len(enc.EncodeAll(img.Pix, nil)))
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("imlab: zstd encoder: %w", err)
		}
	case Zlib:
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return nil, fmt.Errorf("imlab: zlib encoder: %w", err)
		}
		if _, err := zw.Write(img.Pix); err != nil {
			return nil, fmt.Errorf("imlab: zlib encode: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("imlab: zlib encode: %w", err)
		}
		n = int64(buf.Len())
	default:
		return nil, fmt.Errorf("imlab: unknown codec %d", codec)
	}

	if n == 0 {
		return nil, fmt.Errorf("%w: coded size is 0 bytes", ErrDivision)
	}
	return &ReferenceSize{
		Codec: codec,
		Bytes: n,
		Ratio: float64(len(img.Pix)) / float64(n),
	}, nil
}
