package partgethttp

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/partget/internal/utils"
)

// MergeParts concatenates parts 1..totalParts from tempDir into outputPath, deleting
// each part once it has been copied. The output file must not exist yet; on failure
// the partially written output is removed. It returns the number of bytes written.
func MergeParts(outputPath, tempDir, fileName string, totalParts, bufferSize int) (totalWritten int64, err error) {
	destFile, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, fmt.Errorf("%w: error creating output file: %v", utils.ErrMergeFailed, err)
	}
	defer func() {
		destFile.Close()
		if err != nil {
			os.Remove(outputPath)
		}
	}()

	if bufferSize <= 0 {
		bufferSize = utils.DefaultBufferSize
	}
	pool := poolFor(bufferSize)
	bufPtr := pool.Get()
	defer pool.Put(bufPtr)

	for index := 1; index <= totalParts; index++ {
		partPath := utils.PartFilePath(tempDir, fileName, index)
		written, err := appendPart(destFile, partPath, *bufPtr)
		totalWritten += written
		if err != nil {
			return totalWritten, fmt.Errorf("%w: part %d: %v", utils.ErrMergeFailed, index, err)
		}
		if err := os.Remove(partPath); err != nil {
			return totalWritten, fmt.Errorf("%w: error removing part %d: %v", utils.ErrMergeFailed, index, err)
		}
		log.Debug().Str("op", "http/assemble").Int("part", index).Int64("bytes", written).Msg("Merged part")
	}
	if err := destFile.Sync(); err != nil {
		return totalWritten, fmt.Errorf("%w: %v", utils.ErrMergeFailed, err)
	}
	return totalWritten, nil
}

func appendPart(dest io.Writer, partPath string, buffer []byte) (int64, error) {
	partFile, err := os.Open(partPath)
	if err != nil {
		return 0, err
	}
	defer partFile.Close()
	// plain struct keeps io.CopyBuffer from bypassing the buffer via ReadFrom
	return io.CopyBuffer(struct{ io.Writer }{dest}, partFile, buffer)
}
