package partgethttp

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/partget/internal/output"
	"github.com/tanq16/partget/internal/utils"
	"golang.org/x/sync/errgroup"
)

// Download fetches every planned part concurrently while one reporter renders progress.
// The first failing part cancels the others; their partial files stay on disk for Cleanup.
func (d *HTTPDownloader) Download(ctx context.Context, job *utils.PartgetJob) error {
	client := d.httpClient(job)
	if err := os.MkdirAll(job.TempDir, 0755); err != nil {
		return fmt.Errorf("error creating temp directory: %w", err)
	}

	progressCh := make(chan utils.ProgressEvent, utils.ProgressChannelSize)
	reporter := output.NewReporter(progressCh, output.ReporterOptions{
		TotalSize:  job.FileSize,
		TotalParts: job.Plan.TotalParts(),
		Interval:   job.ProgressInterval,
		Output:     d.Progress,
	})

	group, groupCtx := errgroup.WithContext(ctx)
	wholeFile := job.Plan.TotalParts() == 1
	for _, chunk := range job.Plan.Ranges {
		part := PartRequest{
			URL:        job.URL,
			TempDir:    job.TempDir,
			FileName:   job.FileName,
			Chunk:      chunk,
			BufferSize: job.BufferSize,
			WholeFile:  wholeFile,
		}
		group.Go(func() error {
			return FetchPart(groupCtx, client, part, progressCh)
		})
	}
	group.Go(func() error {
		return reporter.Run(groupCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error().Str("op", "http/download").Str("session", job.ID).Err(err).Msg("Download failed")
		return err
	}
	log.Info().Str("op", "http/download").Str("session", job.ID).Msgf("Fetched %d parts", job.Plan.TotalParts())
	return nil
}

// Assemble merges the fetched parts into the output file. An output of the wrong
// size is removed.
func (d *HTTPDownloader) Assemble(job *utils.PartgetJob) error {
	written, err := MergeParts(job.OutputPath, job.TempDir, job.FileName, job.Plan.TotalParts(), job.BufferSize)
	if err != nil {
		return err
	}
	if written != job.FileSize {
		if removeErr := os.Remove(job.OutputPath); removeErr != nil {
			log.Warn().Str("op", "http/download").Err(removeErr).Msg("Could not remove incomplete output")
		}
		return fmt.Errorf("%w: size mismatch: expected %d, got %d", utils.ErrMergeFailed, job.FileSize, written)
	}
	removeTempDirs(job.TempDir)
	log.Info().Str("op", "http/download").Str("session", job.ID).Msgf("Saved %s", job.OutputPath)
	return nil
}

func (d *HTTPDownloader) Cleanup(job *utils.PartgetJob) {
	RemoveParts(job.TempDir, job.FileName, job.Plan.TotalParts())
	removeTempDirs(job.TempDir)
}
