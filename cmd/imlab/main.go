// Command imlab runs the image processing lab exercises from the shell.
//
// Usage:
//
//	imlab info <image>...
//	imlab negative [-o out] [--plot fig.png] <image>
//	imlab histogram [--plot fig.png] <image>
//	imlab equalize [-o out] [--plot fig.png] <image>
//	imlab lab
//
// Examples:
//
//	imlab info photo.jpg
//	imlab info --reference zstd shots/*.jpg
//	imlab negative --plot compare.png photo.jpg
//	imlab equalize --plot equalization.png input.jpg
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
