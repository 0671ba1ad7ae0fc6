package downloader

import (
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/lhecker/tumblr-dl/tumblr"
)

// WriteMetadata atomically writes the post as pretty-printed JSON to <dir>/metadata.json.
func WriteMetadata(dir string, post *tumblr.Post) error {
	data, err := json.MarshalIndent(post, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	return writeFileAtomic(filepath.Join(dir, MetadataFileName), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
