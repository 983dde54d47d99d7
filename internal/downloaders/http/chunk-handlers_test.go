package partgethttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/partget/internal/utils"
)

func collectEvents(ch chan utils.ProgressEvent) []utils.ProgressEvent {
	close(ch)
	var events []utils.ProgressEvent
	for event := range ch {
		events = append(events, event)
	}
	return events
}

func TestFetchPart(t *testing.T) {
	content := testContent(5000)
	srv := newRangeServer(t, content, nil)
	tempDir := t.TempDir()
	progressCh := make(chan utils.ProgressEvent, 1000)

	chunk := utils.ChunkRange{Index: 2, Start: 1000, End: 3999}
	err := FetchPart(context.Background(), testClient(), PartRequest{
		URL:        srv.URL,
		TempDir:    tempDir,
		FileName:   "file.bin",
		Chunk:      chunk,
		BufferSize: 512,
	}, progressCh)
	require.NoError(t, err)

	data, err := os.ReadFile(utils.PartFilePath(tempDir, "file.bin", 2))
	require.NoError(t, err)
	assert.Equal(t, content[1000:4000], data)

	events := collectEvents(progressCh)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, utils.ProgressEvent{Kind: utils.PartComplete, Part: 2}, last)
	var received int64
	for _, event := range events[:len(events)-1] {
		assert.Equal(t, utils.BytesReceived, event.Kind)
		assert.Equal(t, 2, event.Part)
		assert.LessOrEqual(t, event.Bytes, int64(512))
		received += event.Bytes
	}
	assert.Equal(t, chunk.Length(), received)
}

func TestFetchPartServerError(t *testing.T) {
	srv := newRangeServer(t, testContent(100), func(r *http.Request) bool { return true })
	tempDir := t.TempDir()
	progressCh := make(chan utils.ProgressEvent, 10)

	err := FetchPart(context.Background(), testClient(), PartRequest{
		URL:      srv.URL,
		TempDir:  tempDir,
		FileName: "file.bin",
		Chunk:    utils.ChunkRange{Index: 1, Start: 0, End: 49},
	}, progressCh)

	var transferErr *utils.TransferError
	require.True(t, errors.As(err, &transferErr))
	assert.Equal(t, 1, transferErr.Part)
	assert.ErrorContains(t, err, "500")
	assert.Empty(t, collectEvents(progressCh))
	assert.Empty(t, listDir(t, tempDir))
}

func TestFetchPartRangeIgnored(t *testing.T) {
	content := testContent(300)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		w.Write(content)
	}))
	defer srv.Close()
	tempDir := t.TempDir()

	part := PartRequest{URL: srv.URL, TempDir: tempDir, FileName: "f", Chunk: utils.ChunkRange{Index: 1, Start: 0, End: 99}}
	err := FetchPart(context.Background(), testClient(), part, make(chan utils.ProgressEvent, 10))
	assert.ErrorIs(t, err, utils.ErrRangeRequestsNotSupported)

	part.Chunk.End = 299
	part.WholeFile = true
	progressCh := make(chan utils.ProgressEvent, 10)
	require.NoError(t, FetchPart(context.Background(), testClient(), part, progressCh))
	data, err := os.ReadFile(utils.PartFilePath(tempDir, "f", 1))
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestFetchPartShortBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Range", "bytes 0-99/100")
		w.WriteHeader(http.StatusPartialContent)
		w.Write(make([]byte, 40))
	}))
	defer srv.Close()
	progressCh := make(chan utils.ProgressEvent, 10)

	err := FetchPart(context.Background(), testClient(), PartRequest{
		URL:      srv.URL,
		TempDir:  t.TempDir(),
		FileName: "f",
		Chunk:    utils.ChunkRange{Index: 3, Start: 0, End: 99},
	}, progressCh)
	assert.ErrorContains(t, err, "size mismatch")
	for _, event := range collectEvents(progressCh) {
		assert.NotEqual(t, utils.PartComplete, event.Kind)
	}
}

func TestFetchPartCancelledWhileBlocked(t *testing.T) {
	srv := newRangeServer(t, testContent(4096), nil)
	ctx, cancel := context.WithCancel(context.Background())
	progressCh := make(chan utils.ProgressEvent)
	done := make(chan error, 1)
	go func() {
		done <- FetchPart(ctx, testClient(), PartRequest{
			URL:        srv.URL,
			TempDir:    t.TempDir(),
			FileName:   "f",
			Chunk:      utils.ChunkRange{Index: 1, Start: 0, End: 4095},
			BufferSize: 1024,
		}, progressCh)
	}()
	<-progressCh
	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}
