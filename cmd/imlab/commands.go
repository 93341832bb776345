package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/shamspias/imlab"
)

const rule = "=================================================="

func (a *app) newInfoCmd() *cobra.Command {
	var (
		reference string
		workers   int
	)
	cmd := &cobra.Command{
		Use:   "info <image>...",
		Short: "Print image metadata and the compression ratio against raw samples",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var codec *imlab.Codec
			if reference != "" {
				c, err := imlab.ParseCodec(reference)
				if err != nil {
					return err
				}
				codec = &c
			}
			if len(args) == 1 {
				return a.infoOne(args[0], codec)
			}
			return a.infoMany(cmd.Context(), args, codec, workers)
		},
	}
	cmd.Flags().StringVar(&reference, "reference", "", "Also code the raw samples losslessly: zstd|zlib")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent files for several inputs (0 = CPU count)")
	return cmd
}

func (a *app) infoOne(path string, codec *imlab.Codec) error {
	a.logger().Debug("loading image", "path", path)
	img, err := imlab.Load(path, a.options())
	if err != nil {
		return err
	}
	meta, err := imlab.Describe(img, path)
	if err != nil {
		return err
	}
	var comp *imlab.CompressionReport
	if codec != nil {
		comp, err = imlab.EstimateWithReference(img, path, *codec)
	} else {
		comp, err = imlab.Estimate(img, path)
	}
	if err != nil {
		return err
	}
	a.printReports(meta, comp)
	return nil
}

func (a *app) infoMany(ctx context.Context, paths []string, codec *imlab.Codec, workers int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(a.err),
		progressbar.OptionSetDescription("analyzing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	results := imlab.ReportBatch(ctx, paths, imlab.BatchOptions{
		Workers:   workers,
		Options:   a.options(),
		Reference: codec,
		OnItem: func(completed, total int) {
			_ = bar.Add(1)
		},
	})
	_ = bar.Finish()

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(a.err, "Error: %s: %v\n", r.Path, r.Err)
			continue
		}
		a.printReports(r.Metadata, r.Compression)
	}
	summary := imlab.Summarize(results)
	fmt.Fprintln(a.out, summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Total)
	}
	return nil
}

func (a *app) printReports(meta *imlab.MetadataReport, comp *imlab.CompressionReport) {
	fmt.Fprintln(a.out, rule)
	fmt.Fprintln(a.out, "IMAGE INFORMATION")
	fmt.Fprintln(a.out, rule)
	fmt.Fprint(a.out, meta)
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, rule)
	fmt.Fprintln(a.out, "COMPRESSION RATIO ANALYSIS")
	fmt.Fprintln(a.out, rule)
	fmt.Fprint(a.out, comp)
}

func (a *app) newNegativeCmd() *cobra.Command {
	var output, plot string
	cmd := &cobra.Command{
		Use:   "negative <image>",
		Short: "Write the intensity inversion of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := imlab.Load(args[0], a.options())
			if err != nil {
				return err
			}
			_, err = a.negative(img, args[0], output, plot)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default negative_<name>)")
	cmd.Flags().StringVar(&plot, "plot", "", "Also render original and negative side by side to this PNG")
	return cmd
}

// negative writes the negative of img, loaded from src, and optionally a
// comparison figure. It returns the path written.
func (a *app) negative(img imlab.Image, src, output, plot string) (string, error) {
	store := imlab.NewFileStore(a.options())
	neg := imlab.Negate(img)
	a.logger().Debug("negative created", "width", neg.Width, "height", neg.Height, "channels", neg.Channels)

	if output == "" {
		output = imlab.NegativePath(src)
	}
	if err := store.Save(neg, output); err != nil {
		return "", err
	}
	fmt.Fprintf(a.out, "Negative image saved as: %s\n", output)

	if plot != "" {
		if err := a.render(imlab.NegativeFigure(img, neg), plot); err != nil {
			return "", err
		}
	}
	return output, nil
}

func (a *app) newHistogramCmd() *cobra.Command {
	var plot string
	cmd := &cobra.Command{
		Use:   "histogram <image>",
		Short: "Summarize the 256-level histogram of every channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := imlab.Load(args[0], a.options())
			if err != nil {
				return err
			}
			names := imlab.ChannelNames(img)
			for c, h := range imlab.Histograms(img) {
				peak := 0
				for v := range h {
					if h[v] > h[peak] {
						peak = v
					}
				}
				fmt.Fprintf(a.out, "%-6s samples=%d peak=%d (count %d)\n", names[c], h.Sum(), peak, h[peak])
			}
			if plot != "" {
				return a.render(imlab.ColorHistogramFigure(img), plot)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&plot, "plot", "", "Render the image and its channel histograms to this PNG")
	return cmd
}

func (a *app) newEqualizeCmd() *cobra.Command {
	var output, plot string
	cmd := &cobra.Command{
		Use:   "equalize <image>",
		Short: "Histogram-equalize an image as grayscale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.options()
			opts.Grayscale = true
			store := imlab.NewFileStore(opts)

			img, err := store.Load(args[0])
			if err != nil {
				return err
			}
			eq, err := imlab.EqualizeDetail(img)
			if err != nil {
				return err
			}
			if output == "" {
				output = imlab.EqualizedPath(args[0])
			}
			if err := store.Save(eq.Output, output); err != nil {
				return err
			}

			inLo, inHi := occupied(eq.Before)
			outLo, outHi := occupied(eq.After)
			fmt.Fprintf(a.out, "Intensity range: %d-%d -> %d-%d\n", inLo, inHi, outLo, outHi)
			fmt.Fprintf(a.out, "Equalized image saved as: %s\n", output)

			if plot != "" {
				return a.render(imlab.EqualizationFigure(eq), plot)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default equalized_output.<ext>)")
	cmd.Flags().StringVar(&plot, "plot", "", "Render images, histograms and CDFs before and after to this PNG")
	return cmd
}

// occupied returns the lowest and highest intensities with a nonzero count.
func occupied(h imlab.Histogram) (lo, hi int) {
	lo, hi = -1, -1
	for v, c := range h {
		if c == 0 {
			continue
		}
		if lo < 0 {
			lo = v
		}
		hi = v
	}
	return lo, hi
}

func (a *app) newLabCmd() *cobra.Command {
	var (
		plot string
		seed uint64
	)
	cmd := &cobra.Command{
		Use:   "lab",
		Short: "Interactive run: read an image, report it, estimate compression, write its negative",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.lab(plot, seed)
		},
	}
	cmd.Flags().StringVar(&plot, "plot", "", "Render original and negative side by side to this PNG")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the generated sample image (0 = time based)")
	return cmd
}

// samplePath is where the lab writes its generated image.
const samplePath = "sample_image.jpg"

func (a *app) lab(plot string, seed uint64) error {
	fmt.Fprintln(a.out, "DIGITAL IMAGE PROCESSING LAB")
	fmt.Fprintln(a.out, "Tasks: Read image, Get info, Calculate compression ratio, Display negative")
	fmt.Fprintln(a.out, strings.Repeat("=", 70))

	fmt.Fprint(a.out, "Enter the path to your image file (or press Enter for default): ")
	path, err := readLine(a.in)
	if err != nil {
		return err
	}

	if path == "" {
		fmt.Fprintln(a.out, "No image path provided. Creating a sample image...")
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		sample := imlab.RandomImage(400, 300, 3, seed)
		if err := imlab.Save(sample, samplePath, a.options()); err != nil {
			return err
		}
		path = samplePath
		fmt.Fprintf(a.out, "Sample image created: %s\n", path)
	}

	fmt.Fprintf(a.out, "\nTask A: Reading image from %s\n", path)
	img, err := imlab.Load(path, a.options())
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Image successfully loaded!")

	fmt.Fprintln(a.out, "\nTask B and C: Getting image information and compression ratio")
	meta, err := imlab.Describe(img, path)
	if err != nil {
		return err
	}
	comp, err := imlab.Estimate(img, path)
	if err != nil {
		return err
	}
	a.printReports(meta, comp)

	fmt.Fprintln(a.out, "\nTask D: Creating negative image")
	if _, err := a.negative(img, path, "", plot); err != nil {
		return err
	}

	fmt.Fprintln(a.out, strings.Repeat("=", 70))
	fmt.Fprintln(a.out, "All tasks completed successfully!")
	return nil
}

// readLine returns the first line of r without surrounding space. An empty
// stream reads as an empty line.
func readLine(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if sc.Scan() {
		return strings.TrimSpace(sc.Text()), nil
	}
	return "", sc.Err()
}

func (a *app) render(fig *imlab.Figure, path string) error {
	var r imlab.Renderer = imlab.PNGRenderer{}
	if err := r.Render(fig, path); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Figure saved as: %s\n", path)
	return nil
}
