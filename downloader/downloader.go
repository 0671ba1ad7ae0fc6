package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lhecker/tumblr-dl/semaphore"
	"github.com/lhecker/tumblr-dl/tumblr"
)

const MetadataFileName = "metadata.json"

var (
	ErrMissingFileName   = errors.New("missing file name")
	ErrDuplicateFileName = errors.New("duplicate file name")
)

type Downloader struct {
	client    *http.Client
	userAgent string
	sema      *semaphore.PrioritySemaphore
	progress  io.Writer
}

type Option func(d *Downloader)

// WithConcurrency sets the number of files downloaded at the same time.
func WithConcurrency(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.sema = semaphore.NewPrioritySemaphore(n)
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(d *Downloader) {
		if len(userAgent) != 0 {
			d.userAgent = userAgent
		}
	}
}

// WithProgress renders a progress bar to w while a post is downloaded.
func WithProgress(w io.Writer) Option {
	return func(d *Downloader) {
		d.progress = w
	}
}

func New(client *http.Client, opts ...Option) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}

	d := &Downloader{
		client:    client,
		userAgent: tumblr.DefaultUserAgent,
		sema:      semaphore.NewPrioritySemaphore(4),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// PostDir returns the directory a post is downloaded into: <root>/<blog>/<id>.
func PostDir(root string, blogIdentifier string, postID uint64) string {
	return filepath.Join(root, blogIdentifier, strconv.FormatUint(postID, 10))
}

// FileName returns the final path segment of a media URL.
func FileName(rawurl string) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", err
	}

	name := path.Base(u.Path)
	if name == "." || name == ".." || name == "/" || u.Path[len(u.Path)-1] == '/' {
		return "", fmt.Errorf("%w in %s", ErrMissingFileName, rawurl)
	}
	return name, nil
}

// DownloadPost downloads every media file of a post and writes its metadata.json.
// The metadata is written only after all media files were committed,
// so a metadata.json never references a missing file.
// The first failure cancels all other downloads of the post.
func (d *Downloader) DownloadPost(ctx context.Context, root string, post *tumblr.Post) (string, error) {
	urls, err := tumblr.MediaURLs(post.Content)
	if err != nil {
		return "", fmt.Errorf("resolve media of post %d: %w", post.ID, err)
	}

	files, err := planFiles(urls)
	if err != nil {
		return "", fmt.Errorf("resolve media of post %d: %w", post.ID, err)
	}

	dir := PostDir(root, post.BlogName, uint64(post.ID))
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return "", err
	}

	bar := newProgressBar(d.progress, fmt.Sprintf("%s/%d ", post.BlogName, post.ID), len(files))

	eg, egctx := errgroup.WithContext(ctx)
	for idx, f := range files {
		// Earlier content blocks are displayed first and are thus downloaded first.
		priority := -idx
		f := f

		eg.Go(func() error {
			return d.sema.Do(egctx, priority, func() error {
				err := d.downloadFile(egctx, f.url, filepath.Join(dir, f.name))
				if err != nil {
					return err
				}
				bar.Increment()
				return nil
			})
		})
	}

	err = eg.Wait()
	bar.Finish()
	if err != nil {
		return "", fmt.Errorf("download post %d: %w", post.ID, err)
	}

	err = WriteMetadata(dir, post)
	if err != nil {
		return "", fmt.Errorf("write metadata of post %d: %w", post.ID, err)
	}

	log.Printf("%s: wrote %s", post.BlogName, dir)
	return dir, nil
}

// DownloadFile downloads rawurl into dir, named after the URL's final path segment.
func (d *Downloader) DownloadFile(ctx context.Context, rawurl string, dir string) (string, error) {
	name, err := FileName(rawurl)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	err = d.downloadFile(ctx, rawurl, path)
	if err != nil {
		return "", err
	}
	return path, nil
}

func (d *Downloader) downloadFile(ctx context.Context, rawurl string, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", d.userAgent)

	res, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &tumblr.StatusError{URL: rawurl, StatusCode: res.StatusCode, Status: res.Status}
	}

	err = writeFileAtomic(path, func(w io.Writer) error {
		n, err := io.Copy(w, res.Body)
		if err != nil {
			return err
		}
		if res.ContentLength >= 0 && n != res.ContentLength {
			return fmt.Errorf("GET %s: received %d of %d bytes", rawurl, n, res.ContentLength)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("wrote %s", path)
	return nil
}

type plannedFile struct {
	url  string
	name string
}

// planFiles maps every URL to its file name before anything is downloaded.
// Repeated URLs are downloaded once, but two URLs sharing a file name are an error.
// So is a name that clashes with metadata.json or with another file's temporary name.
func planFiles(urls []string) ([]plannedFile, error) {
	files := make([]plannedFile, 0, len(urls))
	byName := make(map[string]string, len(urls))

	for _, u := range urls {
		name, err := FileName(u)
		if err != nil {
			return nil, err
		}
		if name == MetadataFileName || strings.HasSuffix(name, tmpSuffix) {
			return nil, fmt.Errorf("%w %s: %s uses a reserved name", ErrDuplicateFileName, name, u)
		}

		if prev, ok := byName[name]; ok {
			if prev == u {
				continue
			}
			return nil, fmt.Errorf("%w %s: %s and %s", ErrDuplicateFileName, name, prev, u)
		}

		byName[name] = u
		files = append(files, plannedFile{url: u, name: name})
	}

	return files, nil
}
