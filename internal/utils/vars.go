package utils

import (
	"errors"
	"time"
)

const (
	DefaultMinChunkSize     = 10 * 1024 * 1024  // 10MiB
	DefaultMaxChunkSize     = 100 * 1024 * 1024 // 100MiB
	DefaultBufferSize       = 10 * 1024 * 1024  // 10MiB read buffer
	DefaultConnectTimeout   = 8 * time.Minute
	DefaultKATimeout        = 90 * time.Second
	SocketBufferSize        = 1024 * 1024
	DefaultProgressInterval = time.Second
	InitialParts            = 3
	MaxParts                = 6
	ProgressChannelSize     = 100
	ProgressBarWidth        = 50
)

const TempDirName = ".partget-temp"
const ToolUserAgent = "partget"
const DefaultFileName = "download"

var (
	ErrMissingLength             = errors.New("url file has no Content-Length header")
	ErrInvalidLength             = errors.New("invalid file size reported by server")
	ErrUserCancelled             = errors.New("downloading cancelled")
	ErrRangeRequestsNotSupported = errors.New("range requests are not supported")
	ErrMergeFailed               = errors.New("merging parts failed")
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:136.0) Gecko/20100101 Firefox/136.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.3 Safari/605.1.15",
	"curl/8.5.0",
	"Wget/1.21.4",
}
