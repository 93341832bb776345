package imlab

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MetadataReport describes a loaded image and the file it came from.
type MetadataReport struct {
	Path string

	// Width and Height in pixels.
	Width, Height int

	// Channels is 1 for grayscale, 3 for color.
	Channels int

	// DataType is the sample type name, always "uint8".
	DataType string

	// ByteWidth is the size of one sample in bytes.
	ByteWidth int

	// Elements is width × height × channels.
	Elements int

	// FileSize is the on-disk size in bytes.
	FileSize int64

	ColorSpace string

	// Sample statistics over every channel together.
	Min, Max     uint8
	Mean, StdDev float64

	// Entropy of the sample distribution in bits (0-8).
	Entropy float64
}

// Describe reports the shape, file size and sample statistics of img.
// The file size is read from path at call time; a missing file fails with
// ErrIO even though img is already in memory.
func Describe(img Image, path string) (*MetadataReport, error) {
	size, err := fileSize(path)
	if err != nil {
		return nil, err
	}

	r := &MetadataReport{
		Path:       path,
		Width:      img.Width,
		Height:     img.Height,
		Channels:   img.Channels,
		DataType:   "uint8",
		ByteWidth:  img.ByteWidth(),
		Elements:   img.Len(),
		FileSize:   size,
		ColorSpace: img.ColorSpace(),
	}
	if img.Empty() {
		return r, nil
	}

	hist := HistogramAll(img)
	r.Min, r.Max = sampleRange(hist)
	r.Mean, r.StdDev = sampleMoments(hist)
	r.Entropy = computeEntropy(hist.Floats(), float64(img.Len()))
	return r, nil
}

// sampleRange returns the lowest and highest occupied buckets.
func sampleRange(h Histogram) (lo, hi uint8) {
	for v := 0; v < Levels; v++ {
		if h[v] > 0 {
			lo = uint8(v)
			break
		}
	}
	for v := MaxSample; v >= 0; v-- {
		if h[v] > 0 {
			hi = uint8(v)
			break
		}
	}
	return lo, hi
}

// sampleMoments computes the mean and population standard deviation of the
// samples, using each intensity weighted by its count.
func sampleMoments(h Histogram) (mean, std float64) {
	values := make([]float64, Levels)
	for v := range values {
		values[v] = float64(v)
	}
	return stat.PopMeanStdDev(values, h.Floats())
}

// computeEntropy calculates Shannon entropy in bits from a histogram.
func computeEntropy(histogram []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	p := make([]float64, len(histogram))
	floats.ScaleTo(p, 1/total, histogram)
	return stat.Entropy(p) / math.Ln2
}

// String renders the report as the multi-line text block printed by the CLI.
func (r *MetadataReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Image Path: %s\n", r.Path)
	fmt.Fprintf(&b, "Image Dimensions: %d x %d pixels\n", r.Width, r.Height)
	fmt.Fprintf(&b, "Number of Channels: %d\n", r.Channels)
	fmt.Fprintf(&b, "Data Type: %s\n", r.DataType)
	fmt.Fprintf(&b, "Image Size (elements): %d\n", r.Elements)
	fmt.Fprintf(&b, "File Size: %d bytes (%s)\n", r.FileSize, megabytes(r.FileSize))
	fmt.Fprintf(&b, "Color Space: %s\n", r.ColorSpace)
	fmt.Fprintf(&b, "Min Pixel Value: %d\n", r.Min)
	fmt.Fprintf(&b, "Max Pixel Value: %d\n", r.Max)
	fmt.Fprintf(&b, "Mean Pixel Value: %.2f\n", r.Mean)
	fmt.Fprintf(&b, "Standard Deviation: %.2f\n", r.StdDev)
	fmt.Fprintf(&b, "Entropy: %.2f bits\n", r.Entropy)
	return b.String()
}
