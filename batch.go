package imlab

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// BatchResult holds the reports for a single file in a batch.
type BatchResult struct {
	// Path is the input file path.
	Path string
	// Metadata and Compression are nil if Err is non-nil.
	Metadata    *MetadataReport
	Compression *CompressionReport
	// Err is any error that occurred.
	Err error
	// Index is the position in the original input slice.
	Index int
}

// BatchOptions configures batch reporting.
type BatchOptions struct {
	// Workers is the number of concurrent workers. 0 = runtime.NumCPU().
	Workers int
	// Options is used to load every file.
	Options Options
	// Reference, when set, adds a lossless reference size to each report.
	Reference *Codec
	// OnItem is called after each item completes or is skipped by
	// cancellation (for progress reporting).
	OnItem func(completed, total int)
}

// ReportBatch loads, describes and estimates several files concurrently.
// Results are returned in the same order as paths. Cancelling ctx stops new
// files from starting; their results carry ctx.Err().
func ReportBatch(ctx context.Context, paths []string, batchOpts BatchOptions) []BatchResult {
	if len(paths) == 0 {
		return nil
	}

	workers := batchOpts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	results := make([]BatchResult, len(paths))
	workCh := make(chan int, len(paths))
	var wg sync.WaitGroup
	var completed int
	var completedMu sync.Mutex

	for i := range paths {
		workCh <- i
	}
	close(workCh)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				if err := ctx.Err(); err != nil {
					results[idx] = BatchResult{Path: paths[idx], Err: err, Index: idx}
				} else {
					results[idx] = reportFile(paths[idx], batchOpts)
					results[idx].Index = idx
				}

				if batchOpts.OnItem != nil {
					completedMu.Lock()
					completed++
					c := completed
					completedMu.Unlock()
					batchOpts.OnItem(c, len(paths))
				}
			}
		}()
	}

	wg.Wait()
	return results
}

func reportFile(path string, batchOpts BatchOptions) BatchResult {
	res := BatchResult{Path: path}
	img, err := Load(path, batchOpts.Options)
	if err != nil {
		res.Err = err
		return res
	}
	if res.Metadata, err = Describe(img, path); err != nil {
		res.Err = err
		res.Metadata = nil
		return res
	}
	if batchOpts.Reference != nil {
		res.Compression, err = EstimateWithReference(img, path, *batchOpts.Reference)
	} else {
		res.Compression, err = Estimate(img, path)
	}
	if err != nil {
		res.Err = err
		res.Metadata = nil
		res.Compression = nil
	}
	return res
}

// BatchSummary provides aggregate statistics for a batch.
type BatchSummary struct {
	Total             int
	Succeeded         int
	Failed            int
	UncompressedBytes int64
	CompressedBytes   int64
	// Ratio is the overall raw-to-file ratio of the successful items.
	Ratio float64
}

// Summarize computes aggregate statistics from batch results.
func Summarize(results []BatchResult) BatchSummary {
	s := BatchSummary{Total: len(results)}
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		if r.Compression != nil {
			s.UncompressedBytes += r.Compression.UncompressedBytes
			s.CompressedBytes += r.Compression.CompressedBytes
		}
	}
	if s.CompressedBytes > 0 {
		s.Ratio = float64(s.UncompressedBytes) / float64(s.CompressedBytes)
	}
	return s
}

// String returns a human-readable batch summary.
func (s BatchSummary) String() string {
	return fmt.Sprintf(
		"Batch: %d/%d succeeded | %s raw → %s on disk | Ratio: %.2f:1",
		s.Succeeded, s.Total, humanBytes(s.UncompressedBytes), humanBytes(s.CompressedBytes), s.Ratio,
	)
}
