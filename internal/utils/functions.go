package utils

import (
	"fmt"
	"math"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var filenameRegex = regexp.MustCompile(`[^a-zA-Z0-9_\-\. ]+`)

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

func RenewOutputPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	index := 1
	for {
		outputPath = filepath.Join(dir, fmt.Sprintf("%s-(%d)%s", name, index, ext))
		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			return outputPath
		}
		index++
	}
}

// FileNameFromURL returns the last path segment of link, ignoring any query string.
// Unsafe segments such as ".." yield an empty name.
func FileNameFromURL(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	base := path.Base(parsed.Path)
	if base == "/" {
		return ""
	}
	return sanitizeFileName(base)
}

// sanitizeFileName replaces characters outside the allowed set and rejects
// names that would resolve to the current or parent directory.
func sanitizeFileName(name string) string {
	name = filenameRegex.ReplaceAllString(name, "_")
	if strings.Trim(name, ".") == "" {
		return ""
	}
	return name
}

func FileNameFromHeaders(headers http.Header) string {
	contentDisposition := headers.Get("Content-Disposition")
	if contentDisposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentDisposition)
	if err != nil {
		return ""
	}
	if fn, ok := params["filename"]; ok && fn != "" {
		return sanitizeFileName(fn)
	}
	if fn, ok := params["filename*"]; ok && strings.HasPrefix(fn, "UTF-8''") {
		unescaped, _ := url.PathUnescape(strings.TrimPrefix(fn, "UTF-8''"))
		return sanitizeFileName(unescaped)
	}
	return ""
}

// ResolveOutputPath maps the -o argument onto a destination file path.
// An existing directory (or a path ending in a separator) receives fileName inside it.
// Existing files are never overwritten; a fresh "name-(N).ext" is chosen instead.
func ResolveOutputPath(requested, fileName string) string {
	if fileName = sanitizeFileName(fileName); fileName == "" {
		fileName = DefaultFileName
	}
	outputPath := requested
	switch {
	case requested == "":
		outputPath = fileName
	case strings.HasSuffix(requested, string(os.PathSeparator)) || strings.HasSuffix(requested, "/"):
		outputPath = filepath.Join(requested, fileName)
	default:
		if info, err := os.Stat(requested); err == nil && info.IsDir() {
			outputPath = filepath.Join(requested, fileName)
		}
	}
	if _, err := os.Stat(outputPath); err == nil {
		outputPath = RenewOutputPath(outputPath)
	}
	return outputPath
}

// SessionTempDir returns the directory holding the part files of one download.
func SessionTempDir(baseTempDir, outputPath, sessionID string) string {
	if baseTempDir == "" {
		baseTempDir = filepath.Join(filepath.Dir(outputPath), TempDirName)
	}
	return filepath.Join(baseTempDir, sessionID)
}

func PartFileName(fileName string, index int) string {
	return fmt.Sprintf("%s.part%d", fileName, index)
}

func PartFilePath(tempDir, fileName string, index int) string {
	return filepath.Join(tempDir, PartFileName(fileName, index))
}

func RangeHeader(start, end int64) string {
	return fmt.Sprintf("bytes=%d-%d", start, end)
}

func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

func FormatSpeed(bytesPerSecond int64) string {
	return FormatBytes(bytesPerSecond) + "/s"
}

// ParseSize accepts plain byte counts as well as "10MiB" or "64 MB".
func ParseSize(value string) (int64, error) {
	size, err := humanize.ParseBytes(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", value, err)
	}
	if size > math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", value)
	}
	return int64(size), nil
}

// Clean removes the temporary part directory left beside dir by an interrupted run.
func Clean(dir string) error {
	tempDir := filepath.Join(dir, TempDirName)
	_, err := os.Stat(tempDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return os.RemoveAll(tempDir)
}
