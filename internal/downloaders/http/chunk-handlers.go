package partgethttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/partget/internal/utils"
)

type PartRequest struct {
	URL        string
	TempDir    string
	FileName   string
	Chunk      utils.ChunkRange
	BufferSize int
	// WholeFile marks a chunk spanning the entire resource; only then is a 200 reply acceptable.
	WholeFile bool
}

// FetchPart downloads one byte range into "{FileName}.part{Index}" inside TempDir.
// A BytesReceived event follows every buffer written and PartComplete is sent only
// after the whole range is on disk. Failures are returned as *utils.TransferError
// and no PartComplete is sent. Nothing is retried here.
func FetchPart(ctx context.Context, client utils.HTTPDoer, part PartRequest, progressCh chan<- utils.ProgressEvent) error {
	if err := fetchPart(ctx, client, part, progressCh); err != nil {
		log.Debug().Str("op", "http/chunk-handlers").Int("part", part.Chunk.Index).Err(err).Msg("Part failed")
		return &utils.TransferError{Part: part.Chunk.Index, Err: err}
	}
	log.Debug().Str("op", "http/chunk-handlers").Int("part", part.Chunk.Index).Msg("Part complete")
	return sendEvent(ctx, progressCh, utils.ProgressEvent{Kind: utils.PartComplete, Part: part.Chunk.Index})
}

func fetchPart(ctx context.Context, client utils.HTTPDoer, part PartRequest, progressCh chan<- utils.ProgressEvent) error {
	chunk := part.Chunk
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, part.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Range", chunk.Header())
	req.Header.Set("Connection", "keep-alive")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusPartialContent:
	case resp.StatusCode == http.StatusOK && part.WholeFile:
	case resp.StatusCode == http.StatusOK:
		return utils.ErrRangeRequestsNotSupported
	default:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	bufferSize := part.BufferSize
	if bufferSize <= 0 {
		bufferSize = utils.DefaultBufferSize
	}
	pool := poolFor(bufferSize)
	bufPtr := pool.Get()
	defer pool.Put(bufPtr)
	buffer := *bufPtr

	partPath := utils.PartFilePath(part.TempDir, part.FileName, chunk.Index)
	var partFile *os.File
	defer func() {
		if partFile != nil {
			partFile.Close()
		}
	}()

	var written int64
	for {
		bytesRead, readErr := io.ReadFull(resp.Body, buffer)
		if bytesRead > 0 {
			if partFile == nil {
				partFile, err = os.OpenFile(partPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
				if err != nil {
					return fmt.Errorf("error creating part file: %w", err)
				}
			}
			if _, err := partFile.Write(buffer[:bytesRead]); err != nil {
				return fmt.Errorf("error writing part file: %w", err)
			}
			written += int64(bytesRead)
			event := utils.ProgressEvent{Kind: utils.BytesReceived, Part: chunk.Index, Bytes: int64(bytesRead)}
			if err := sendEvent(ctx, progressCh, event); err != nil {
				return err
			}
		}
		if readErr == io.EOF || errors.Is(readErr, io.ErrUnexpectedEOF) {
			break
		}
		if readErr != nil {
			return fmt.Errorf("error reading response body: %w", readErr)
		}
	}
	if written != chunk.Length() {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", chunk.Length(), written)
	}
	err = partFile.Close()
	partFile = nil
	if err != nil {
		return fmt.Errorf("error closing part file: %w", err)
	}
	return nil
}

// sendEvent blocks while the channel is full, giving up once ctx is cancelled.
func sendEvent(ctx context.Context, progressCh chan<- utils.ProgressEvent, event utils.ProgressEvent) error {
	select {
	case progressCh <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
