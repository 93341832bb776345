package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shamspias/imlab"
)

// app carries the streams and global flags shared by every subcommand.
type app struct {
	in       io.Reader
	out, err io.Writer

	verbose bool
	quality int
	bgr     bool

	log *slog.Logger
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, err: errOut}

	root := &cobra.Command{
		Use:           "imlab",
		Short:         "Classical image processing lab: metadata, compression ratio, negative, histograms, equalization",
		Version:       imlab.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.log = newLogger(a.err, a.verbose)
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log each processing step to stderr")
	flags.IntVar(&a.quality, "quality", imlab.DefaultOptions().JPEGQuality, "JPEG quality for written images (1-100)")
	flags.BoolVar(&a.bgr, "bgr", false, "Keep color samples in blue-green-red order")

	root.AddCommand(
		a.newInfoCmd(),
		a.newNegativeCmd(),
		a.newHistogramCmd(),
		a.newEqualizeCmd(),
		a.newLabCmd(),
	)
	return root
}

// options maps the global flags onto library options.
func (a *app) options() imlab.Options {
	opts := imlab.DefaultOptions()
	opts.JPEGQuality = a.quality
	if a.bgr {
		opts.Order = imlab.BGR
	}
	return opts
}

// newLogger returns a text logger on w that is silent unless verbose is set.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// logger is safe to call before PersistentPreRun has run.
func (a *app) logger() *slog.Logger {
	if a.log == nil {
		a.log = newLogger(a.err, a.verbose)
	}
	return a.log
}
