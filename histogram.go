package imlab

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Histogram counts how many samples take each of the 256 intensity values.
type Histogram [Levels]int

// HistogramOf counts the samples of one channel of img. A channel outside
// [0, img.Channels) fails with ErrRange.
func HistogramOf(img Image, channel int) (Histogram, error) {
	var h Histogram
	if channel < 0 || channel >= img.Channels {
		return h, fmt.Errorf("%w: channel %d of %d", ErrRange, channel, img.Channels)
	}
	for i := channel; i < len(img.Pix); i += img.Channels {
		h[img.Pix[i]]++
	}
	return h, nil
}

// Histograms returns one table per channel, in channel order.
func Histograms(img Image) []Histogram {
	out := make([]Histogram, img.Channels)
	for c := range out {
		out[c], _ = HistogramOf(img, c)
	}
	return out
}

// HistogramAll counts every sample of every channel in a single table.
func HistogramAll(img Image) Histogram {
	var h Histogram
	for _, v := range img.Pix {
		h[v]++
	}
	return h
}

// Sum is the number of samples counted.
func (h Histogram) Sum() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// Max is the largest single-bucket count.
func (h Histogram) Max() int {
	m := 0
	for _, c := range h {
		m = max(m, c)
	}
	return m
}

// Floats returns the counts as float64 values for plotting.
func (h Histogram) Floats() []float64 {
	out := make([]float64, Levels)
	for i, c := range h {
		out[i] = float64(c)
	}
	return out
}

// CDF returns the running total of the histogram.
func (h Histogram) CDF() CDF {
	counts := h.Floats()
	floats.CumSum(counts, counts)
	var cdf CDF
	for i, v := range counts {
		cdf[i] = int(v)
	}
	return cdf
}

// CDF is the cumulative distribution of a Histogram: cdf[v] is the number of
// samples at or below v. It is non-decreasing and cdf[255] is the total.
type CDF [Levels]int

// Total is the number of samples the distribution was built from.
func (c CDF) Total() int { return c[MaxSample] }

// Scaled returns the curve cdf[v] * target / cdf[255], the form used to draw
// a CDF over its histogram. An empty distribution yields all zeros.
func (c CDF) Scaled(target float64) []float64 {
	curve := make([]float64, Levels)
	total := c.Total()
	if total == 0 {
		return curve
	}
	for i, v := range c {
		curve[i] = float64(v)
	}
	floats.Scale(target/float64(total), curve)
	return curve
}
