package partgethttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/partget/internal/utils"
)

type HTTPDownloader struct {
	// Client is built from the job's HTTPClientConfig when nil.
	Client utils.HTTPDoer
	// Progress receives the live progress line; os.Stdout when nil.
	Progress io.Writer
}

func (d *HTTPDownloader) httpClient(job *utils.PartgetJob) utils.HTTPDoer {
	if d.Client == nil {
		d.Client = utils.NewPartgetHTTPClient(job.HTTPClientConfig)
	}
	return d.Client
}

func (d *HTTPDownloader) ValidateJob(ctx context.Context, job *utils.PartgetJob) error {
	parsedURL, err := url.Parse(job.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %q", parsedURL.Scheme)
	}
	headers, err := ProbeSize(ctx, d.httpClient(job), job.URL)
	if err != nil {
		return err
	}
	size, err := ContentLength(headers)
	if err != nil {
		return err
	}
	job.Headers = headers
	job.FileSize = size
	job.RangeSupported = headers.Get("Accept-Ranges") != "none"
	if !job.RangeSupported {
		log.Warn().Str("op", "http/initial").Msg("Server refuses range requests, downloading as a single part")
	}
	log.Debug().Str("op", "http/initial").Int64("size", size).Msgf("Probed %s", job.URL)
	return nil
}

// ProbeSize sends one HEAD request (redirects are followed) and returns the final
// response headers. A response without Content-Length fails with ErrMissingLength.
func ProbeSize(ctx context.Context, client utils.HTTPDoer, link string) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error checking URL: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("URL not found (404)")
	} else if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("server returned error: %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Length") == "" {
		return nil, utils.ErrMissingLength
	}
	return resp.Header, nil
}

func ContentLength(headers http.Header) (int64, error) {
	contentLength := headers.Get("Content-Length")
	if contentLength == "" {
		return 0, utils.ErrMissingLength
	}
	size, err := strconv.ParseInt(contentLength, 10, 64)
	if err != nil || size <= 0 {
		return 0, fmt.Errorf("%w: %q", utils.ErrInvalidLength, contentLength)
	}
	return size, nil
}

// BuildJob names the output and temporary files and computes the chunk plan.
func (d *HTTPDownloader) BuildJob(job *utils.PartgetJob) error {
	fileName := utils.FileNameFromURL(job.URL)
	if fileName == "" {
		fileName = utils.FileNameFromHeaders(job.Headers)
	}
	if fileName == "" {
		fileName = utils.DefaultFileName
	}
	job.FileName = fileName
	job.OutputPath = utils.ResolveOutputPath(job.OutputPath, fileName)
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.TempDir = utils.SessionTempDir(job.TempRoot, job.OutputPath, job.ID)
	if job.RangeSupported {
		job.Plan = PlanChunks(job.FileSize, job.MinChunkSize, job.MaxChunkSize)
	} else {
		job.Plan = SinglePart(job.FileSize)
	}
	log.Debug().Str("op", "http/initial").Str("session", job.ID).
		Msgf("Planned %d parts of %d bytes into %s", job.Plan.TotalParts(), job.Plan.ChunkSize, job.TempDir)
	return nil
}
