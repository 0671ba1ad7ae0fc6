package downloader

import (
	"fmt"
	"io"
	"os"
	"sync"
)

const tmpSuffix = ".tmp"

var (
	lockedFilesMutex sync.Mutex
	lockedFiles      = make(map[string]struct{})
)

// acquireFile prevents concurrent writes into the same temporary file.
// Two posts downloaded at the same time may share a media file,
// and a second writer would corrupt the first one's content.
func acquireFile(path string) bool {
	lockedFilesMutex.Lock()
	defer lockedFilesMutex.Unlock()

	if _, ok := lockedFiles[path]; ok {
		return false
	}

	lockedFiles[path] = struct{}{}
	return true
}

func releaseFile(path string) {
	lockedFilesMutex.Lock()
	defer lockedFilesMutex.Unlock()

	delete(lockedFiles, path)
}

// writeFileAtomic writes path by way of path+tmpSuffix.
// The content is synced to disk before the temporary file is renamed,
// so path either doesn't exist or holds the complete content.
// On failure the temporary file is removed.
func writeFileAtomic(path string, write func(w io.Writer) error) (err error) {
	tempPath := path + tmpSuffix
	if !acquireFile(tempPath) {
		return fmt.Errorf("%s is already being written", tempPath)
	}
	defer releaseFile(tempPath)

	tempFile, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if tempFile != nil {
			tempFile.Close()
		}
		if err != nil {
			os.Remove(tempPath)
		}
	}()

	err = write(tempFile)
	if err != nil {
		return err
	}

	err = tempFile.Sync()
	if err != nil {
		return err
	}

	err = tempFile.Close()
	tempFile = nil
	if err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}
