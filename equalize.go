package imlab

import (
	"fmt"
	"math"
)

// Lookup maps an old intensity to a new one.
type Lookup [Levels]uint8

// NewLookup builds the equalization remap round(255 * cdf[v] / total) for a
// histogram. The result is non-decreasing in v. An empty histogram, or one
// whose samples all share a single level, gives the identity mapping so a
// flat image comes back unchanged.
func NewLookup(h Histogram) Lookup {
	var l Lookup
	cdf := h.CDF()
	total := cdf.Total()
	if total == 0 || h.Max() == total {
		for v := range l {
			l[v] = uint8(v)
		}
		return l
	}
	for v, c := range cdf {
		l[v] = clampF(float64(MaxSample) * float64(c) / float64(total))
	}
	return l
}

// Apply remaps every sample of img through the table.
func (l Lookup) Apply(img Image) Image {
	out := img.Clone()
	row := img.Width * img.Channels
	parallelDo(0, img.Height, func(y int) {
		pix := out.Pix[y*row : (y+1)*row]
		for i, v := range pix {
			pix[i] = l[v]
		}
	})
	return out
}

// Monotonic reports whether the table never decreases.
func (l Lookup) Monotonic() bool {
	for v := 1; v < Levels; v++ {
		if l[v] < l[v-1] {
			return false
		}
	}
	return true
}

// DisplayCurve is the CDF drawn over a histogram plot:
// round(cdf[v] * max(hist) / cdf[255]). It targets the tallest bucket rather
// than the intensity range, so it is kept separate from NewLookup.
func DisplayCurve(h Histogram) [Levels]int {
	var curve [Levels]int
	cdf := h.CDF()
	for v, f := range cdf.Scaled(float64(h.Max())) {
		curve[v] = int(math.Round(f))
	}
	return curve
}

// Equalize flattens the intensity distribution of a single-channel image.
// Color images fail with ErrUnsupportedFormat and empty ones with
// ErrEmptyImage.
func Equalize(img Image) (Image, error) {
	eq, err := EqualizeDetail(img)
	if err != nil {
		return Image{}, err
	}
	return eq.Output, nil
}

// Equalization holds every intermediate table of an equalization run.
type Equalization struct {
	Input, Output Image

	Before, After       Histogram
	BeforeCDF, AfterCDF CDF

	Lookup Lookup

	// BeforeCurve and AfterCurve are the DisplayCurve of each histogram.
	BeforeCurve, AfterCurve [Levels]int
}

// EqualizeDetail equalizes img and keeps the histograms, CDFs and curves of
// the input and the output.
func EqualizeDetail(img Image) (*Equalization, error) {
	if img.Channels != 1 {
		return nil, fmt.Errorf("%w: equalization needs 1 channel, got %d", ErrUnsupportedFormat, img.Channels)
	}
	if img.Empty() {
		return nil, fmt.Errorf("imlab: equalize: %w", ErrEmptyImage)
	}

	before, _ := HistogramOf(img, 0)
	lookup := NewLookup(before)
	out := lookup.Apply(img)
	after, _ := HistogramOf(out, 0)

	return &Equalization{
		Input:       img,
		Output:      out,
		Before:      before,
		After:       after,
		BeforeCDF:   before.CDF(),
		AfterCDF:    after.CDF(),
		Lookup:      lookup,
		BeforeCurve: DisplayCurve(before),
		AfterCurve:  DisplayCurve(after),
	}, nil
}
