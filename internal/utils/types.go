package utils

import (
	"context"
	"net/http"
	"time"
)

// Downloader runs one job through the probe, plan, fetch and merge-or-cleanup stages.
// The scheduler decides which stage runs next.
type Downloader interface {
	ValidateJob(ctx context.Context, job *PartgetJob) error
	BuildJob(job *PartgetJob) error
	Download(ctx context.Context, job *PartgetJob) error
	Assemble(job *PartgetJob) error
	Cleanup(job *PartgetJob)
}

type PartgetJob struct {
	ID               string
	URL              string
	OutputPath       string
	FileName         string
	TempRoot         string
	TempDir          string
	FileSize         int64
	RangeSupported   bool
	Headers          http.Header
	Plan             DownloadPlan
	MinChunkSize     int64
	MaxChunkSize     int64
	BufferSize       int
	ProgressInterval time.Duration
	HTTPClientConfig HTTPClientConfig
}

// ChunkRange is one inclusive byte span of the remote file. Index starts at 1.
type ChunkRange struct {
	Index int
	Start int64
	End   int64
}

func (c ChunkRange) Length() int64 {
	return c.End - c.Start + 1
}

func (c ChunkRange) Header() string {
	return RangeHeader(c.Start, c.End)
}

type DownloadPlan struct {
	FileSize  int64
	ChunkSize int64
	Ranges    []ChunkRange
}

func (p DownloadPlan) TotalParts() int {
	return len(p.Ranges)
}

// Covered sums the inclusive lengths of every range in the plan.
func (p DownloadPlan) Covered() int64 {
	var total int64
	for _, r := range p.Ranges {
		total += r.Length()
	}
	return total
}

type EventKind int

const (
	BytesReceived EventKind = iota
	PartComplete
)

func (k EventKind) String() string {
	switch k {
	case BytesReceived:
		return "bytes-received"
	case PartComplete:
		return "part-complete"
	default:
		return "unknown"
	}
}

type ProgressEvent struct {
	Kind  EventKind
	Part  int
	Bytes int64
}

type DownloadResult struct {
	Saved      bool
	OutputPath string
}
