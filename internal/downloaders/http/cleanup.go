package partgethttp

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/partget/internal/utils"
)

// RemoveParts deletes the part files of every planned index concurrently.
// Missing parts are expected (a fetch may fail before its first byte); other
// deletion errors are logged and otherwise ignored.
func RemoveParts(tempDir, fileName string, totalParts int) {
	var wg sync.WaitGroup
	for index := 1; index <= totalParts; index++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			partPath := utils.PartFilePath(tempDir, fileName, index)
			if err := os.Remove(partPath); err != nil && !os.IsNotExist(err) {
				log.Warn().Str("op", "http/cleanup").Int("part", index).Err(err).Msg("Could not remove part file")
			}
		}()
	}
	wg.Wait()
}

// removeTempDirs drops the session directory, then the shared .partget-temp
// parent once no other session is using it.
func removeTempDirs(tempDir string) {
	if err := os.Remove(tempDir); err != nil && !os.IsNotExist(err) {
		log.Debug().Str("op", "http/cleanup").Err(err).Msgf("Leaving %s in place", tempDir)
		return
	}
	if parent := filepath.Dir(tempDir); filepath.Base(parent) == utils.TempDirName {
		os.Remove(parent)
	}
}
