package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileNameFromURL(t *testing.T) {
	tests := map[string]string{
		"https://example.com/files/archive.tar.gz":       "archive.tar.gz",
		"https://example.com/files/archive.zip?token=abc": "archive.zip",
		"https://example.com/a%20b.txt":                  "a b.txt",
		"https://example.com/":                           "",
		"https://example.com":                            "",
		"://bad":                                         "",
		"http://example.com/%2e%2e":                      "",
		"http://example.com/files/..":                    "",
		"http://example.com/a/%2e%2e%2f%2e%2e%2fetc":     "etc",
		"http://example.com/..%2fsecret.txt":             "secret.txt",
	}
	for link, want := range tests {
		assert.Equal(t, want, FileNameFromURL(link), link)
	}
}

func TestFileNameFromHeaders(t *testing.T) {
	headers := http.Header{}
	assert.Empty(t, FileNameFromHeaders(headers))

	headers.Set("Content-Disposition", `attachment; filename="report 2024.pdf"`)
	assert.Equal(t, "report 2024.pdf", FileNameFromHeaders(headers))

	headers.Set("Content-Disposition", `attachment; filename="../../etc/passwd"`)
	assert.NotContains(t, FileNameFromHeaders(headers), "/")

	headers.Set("Content-Disposition", "attachment; filename*=UTF-8''data%20set.csv")
	assert.Equal(t, "data set.csv", FileNameFromHeaders(headers))

	headers.Set("Content-Disposition", `attachment; filename=".."`)
	assert.Empty(t, FileNameFromHeaders(headers))

	headers.Set("Content-Disposition", "inline")
	assert.Empty(t, FileNameFromHeaders(headers))
}

func TestRenewOutputPath(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "video.mp4")
	require.NoError(t, os.WriteFile(original, nil, 0644))

	first := RenewOutputPath(original)
	assert.Equal(t, filepath.Join(dir, "video-(1).mp4"), first)

	require.NoError(t, os.WriteFile(first, nil, 0644))
	assert.Equal(t, filepath.Join(dir, "video-(2).mp4"), RenewOutputPath(original))
}

func TestResolveOutputPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	assert.Equal(t, "file.bin", ResolveOutputPath("", "file.bin"))
	assert.Equal(t, filepath.Join(dir, "file.bin"), ResolveOutputPath(dir, "file.bin"))
	assert.Equal(t, filepath.Join("sub", "file.bin"), ResolveOutputPath("sub/", "file.bin"))
	assert.Equal(t, filepath.Join(dir, "named.iso"), ResolveOutputPath(filepath.Join(dir, "named.iso"), "file.bin"))

	downloads := filepath.Join(dir, "downloads")
	require.NoError(t, os.Mkdir(downloads, 0755))
	for _, name := range []string{"..", ".", "", FileNameFromURL("http://example.com/%2e%2e")} {
		resolved := ResolveOutputPath(downloads, name)
		assert.Equal(t, filepath.Join(downloads, DefaultFileName), resolved, "name %q", name)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.bin"), []byte("old"), 0644))
	assert.Equal(t, "file-(1).bin", ResolveOutputPath("", "file.bin"))
	assert.Equal(t, filepath.Join(dir, "file-(1).bin"), ResolveOutputPath(dir, "file.bin"))
}

func TestSessionTempDir(t *testing.T) {
	assert.Equal(t, filepath.Join("out", TempDirName, "abc"), SessionTempDir("", filepath.Join("out", "f.bin"), "abc"))
	assert.Equal(t, filepath.Join("/scratch", "abc"), SessionTempDir("/scratch", "f.bin", "abc"))
}

func TestPartNamesAndRanges(t *testing.T) {
	assert.Equal(t, "movie.mkv.part3", PartFileName("movie.mkv", 3))
	assert.Equal(t, filepath.Join("tmp", "movie.mkv.part1"), PartFilePath("tmp", "movie.mkv", 1))
	assert.Equal(t, "bytes=0-99", RangeHeader(0, 99))
	assert.Equal(t, "bytes=100-199", ChunkRange{Index: 2, Start: 100, End: 199}.Header())
	assert.Equal(t, int64(100), ChunkRange{Start: 100, End: 199}.Length())
}

func TestDownloadPlanCovered(t *testing.T) {
	plan := DownloadPlan{
		FileSize:  250,
		ChunkSize: 100,
		Ranges: []ChunkRange{
			{Index: 1, Start: 0, End: 99},
			{Index: 2, Start: 100, End: 199},
			{Index: 3, Start: 200, End: 249},
		},
	}
	assert.Equal(t, 3, plan.TotalParts())
	assert.Equal(t, int64(250), plan.Covered())
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"1048576": 1 << 20,
		"10MiB":   10 << 20,
		"64 KiB":  64 << 10,
		"1MB":     1_000_000,
	}
	for value, want := range tests {
		got, err := ParseSize(value)
		require.NoError(t, err, value)
		assert.Equal(t, want, got, value)
	}
	_, err := ParseSize("ten megs")
	assert.Error(t, err)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "10 MiB", FormatBytes(10<<20))
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KiB/s", FormatSpeed(1024))
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Clean(dir))

	session := filepath.Join(dir, TempDirName, "session")
	require.NoError(t, os.MkdirAll(session, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(session, "a.part1"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0644))

	require.NoError(t, Clean(dir))
	assert.NoDirExists(t, filepath.Join(dir, TempDirName))
	assert.FileExists(t, filepath.Join(dir, "keep.txt"))
}

func TestTransferError(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&TransferError{Part: 4, Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "4")

	var transferErr *TransferError
	require.ErrorAs(t, err, &transferErr)
	assert.Equal(t, 4, transferErr.Part)
}

func TestHTTPClientUserAgent(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.UserAgent())
	}))
	defer srv.Close()

	for _, agent := range []string{"", "custom/1.0"} {
		client := NewPartgetHTTPClient(HTTPClientConfig{UserAgent: agent})
		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, []string{ToolUserAgent, "custom/1.0"}, seen)
}

func TestGetRandomUserAgent(t *testing.T) {
	assert.Contains(t, userAgents, GetRandomUserAgent())
}
