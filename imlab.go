// Package imlab implements classical digital image processing exercises over
// 8-bit images: loading, metadata and compression-ratio reports, negatives,
// per-channel histograms and grayscale histogram equalization.
//
// The numeric transforms (Negate, HistogramOf, CDF, NewLookup, Equalize,
// Estimate) are pure functions over the Image value type. File access sits
// behind Loader and Writer, and visualization behind Renderer:
//
//   - Load / Save: decode and encode through disintegration/imaging
//   - Describe: dimensions, file size, min/max/mean/std, entropy
//   - Estimate: raw size against on-disk size, with an optional lossless reference
//   - Negate: v → 255 - v
//   - Equalize: remap through round(255 * cdf[v] / total)
//   - PNGRenderer: lab figures with images, histograms and CDF curves
package imlab
