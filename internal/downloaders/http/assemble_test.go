package partgethttp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/partget/internal/utils"
)

// splitToParts writes content as part files following the plan.
func splitToParts(t *testing.T, tempDir, fileName string, content []byte, plan utils.DownloadPlan) {
	t.Helper()
	for _, r := range plan.Ranges {
		path := utils.PartFilePath(tempDir, fileName, r.Index)
		require.NoError(t, os.WriteFile(path, content[r.Start:r.End+1], 0644))
	}
}

func TestMergePartsRoundTrip(t *testing.T) {
	for _, size := range []int{1, 7, 1000, 4097, 65536} {
		content := testContent(size)
		tempDir := t.TempDir()
		outputPath := filepath.Join(t.TempDir(), "merged.bin")
		plan := PlanChunks(int64(size), 100, 1000)
		splitToParts(t, tempDir, "file.bin", content, plan)

		written, err := MergeParts(outputPath, tempDir, "file.bin", plan.TotalParts(), 333)
		require.NoError(t, err)
		assert.Equal(t, int64(size), written)

		merged, err := os.ReadFile(outputPath)
		require.NoError(t, err)
		assert.Equal(t, content, merged, "size %d", size)
		assert.Empty(t, listDir(t, tempDir), "parts must be removed after merge")
	}
}

func TestMergePartsOrder(t *testing.T) {
	tempDir := t.TempDir()
	for index, text := range []string{"alpha-", "beta-", "gamma"} {
		require.NoError(t, os.WriteFile(utils.PartFilePath(tempDir, "f", index+1), []byte(text), 0644))
	}
	outputPath := filepath.Join(t.TempDir(), "out")
	_, err := MergeParts(outputPath, tempDir, "f", 3, 4)
	require.NoError(t, err)
	merged, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "alpha-beta-gamma", string(merged))
}

func TestMergePartsMissingPart(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(utils.PartFilePath(tempDir, "f", 1), []byte("one"), 0644))
	require.NoError(t, os.WriteFile(utils.PartFilePath(tempDir, "f", 3), []byte("three"), 0644))

	outputPath := filepath.Join(t.TempDir(), "out")
	_, err := MergeParts(outputPath, tempDir, "f", 3, 0)
	assert.ErrorIs(t, err, utils.ErrMergeFailed)
	assert.ErrorContains(t, err, "part 2")
	assert.NoFileExists(t, outputPath)
}

func TestMergePartsRefusesExistingOutput(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(utils.PartFilePath(tempDir, "f", 1), []byte("one"), 0644))
	outputPath := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(outputPath, []byte("keep"), 0644))

	_, err := MergeParts(outputPath, tempDir, "f", 1, 0)
	assert.ErrorIs(t, err, utils.ErrMergeFailed)
	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestRemoveParts(t *testing.T) {
	tempDir := t.TempDir()
	for _, index := range []int{1, 3, 4} {
		require.NoError(t, os.WriteFile(utils.PartFilePath(tempDir, "f", index), []byte("x"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "other"), []byte("x"), 0644))

	RemoveParts(tempDir, "f", 6)
	assert.Equal(t, []string{"other"}, listDir(t, tempDir))
}

func TestRemoveTempDirs(t *testing.T) {
	root := filepath.Join(t.TempDir(), utils.TempDirName)
	first := filepath.Join(root, "session-a")
	second := filepath.Join(root, "session-b")
	require.NoError(t, os.MkdirAll(first, 0755))
	require.NoError(t, os.MkdirAll(second, 0755))

	removeTempDirs(first)
	assert.NoDirExists(t, first)
	assert.DirExists(t, root)

	removeTempDirs(second)
	assert.NoDirExists(t, root)
}
