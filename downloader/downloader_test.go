package downloader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhecker/tumblr-dl/tumblr"
)

func ptr[T any](v T) *T {
	return &v
}

var mediaFiles = map[string][]byte{
	"/abc/s640x960/a.jpg":   []byte("cropped jpeg bytes"),
	"/abc/s2048x3072/b.jpg": bytes.Repeat([]byte("original jpeg bytes "), 4096),
	"/tumblr_video.mp4":     []byte("mp4 bytes"),
}

func newMediaServer(t *testing.T, requests *int32) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			atomic.AddInt32(requests, 1)
		}
		if r.Header.Get("User-Agent") != tumblr.DefaultUserAgent {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		switch r.URL.Path {
		case "/truncated.jpg":
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, buf, err := hj.Hijack()
			require.NoError(t, err)
			buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: image/jpeg\r\nContent-Length: 1000\r\n\r\npartial")
			buf.Flush()
			conn.Close()
			return
		}

		data, ok := mediaFiles[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testPost(base string) *tumblr.Post {
	return &tumblr.Post{
		Type:     "blocks",
		ID:       748474744137007104,
		BlogName: "justcatposts",
		Content: tumblr.Content{
			&tumblr.TextBlock{Text: "look at him go"},
			&tumblr.ImageBlock{Media: []tumblr.Media{
				{URL: base + "/abc/s640x960/a.jpg", HasOriginalDimensions: ptr(false)},
				{URL: base + "/abc/s2048x3072/b.jpg", HasOriginalDimensions: ptr(true)},
			}},
			&tumblr.VideoBlock{
				URL:   ptr(base + "/fallback.mp4"),
				Media: &tumblr.Media{URL: base + "/tumblr_video.mp4"},
			},
		},
		Tags: []string{"cats"},
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestDownloadPost(t *testing.T) {
	srv := newMediaServer(t, nil)
	root := t.TempDir()
	post := testPost(srv.URL)

	d := New(srv.Client(), WithConcurrency(2))
	dir, err := d.DownloadPost(context.Background(), root, post)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "justcatposts", "748474744137007104"), dir)

	got, err := os.ReadFile(filepath.Join(dir, "b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, mediaFiles["/abc/s2048x3072/b.jpg"], got)

	got, err = os.ReadFile(filepath.Join(dir, "tumblr_video.mp4"))
	require.NoError(t, err)
	assert.Equal(t, mediaFiles["/tumblr_video.mp4"], got)

	assert.NoFileExists(t, filepath.Join(dir, "a.jpg"))
	assert.NoFileExists(t, filepath.Join(dir, "fallback.mp4"))
	assertNoTempFiles(t, dir)

	data, err := os.ReadFile(filepath.Join(dir, MetadataFileName))
	require.NoError(t, err)

	decoded := &tumblr.Post{}
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, post, decoded)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"type\": \"blocks\""))
}

func TestDownloadPostFailsBeforeNetworkOnBadMedia(t *testing.T) {
	var requests int32
	srv := newMediaServer(t, &requests)
	root := t.TempDir()

	post := testPost(srv.URL)
	post.Content = append(post.Content, &tumblr.ImageBlock{Media: []tumblr.Media{
		{URL: srv.URL + "/x.jpg", HasOriginalDimensions: ptr(true)},
		{URL: srv.URL + "/y.jpg", HasOriginalDimensions: ptr(true)},
	}})

	_, err := New(srv.Client()).DownloadPost(context.Background(), root, post)
	assert.ErrorIs(t, err, tumblr.ErrDataConsistency)
	assert.Equal(t, int32(0), atomic.LoadInt32(&requests))
	assert.NoDirExists(t, filepath.Join(root, "justcatposts"))
}

func TestDownloadPostFailFast(t *testing.T) {
	srv := newMediaServer(t, nil)
	root := t.TempDir()

	post := testPost(srv.URL)
	post.Content = append(post.Content, &tumblr.VideoBlock{URL: ptr(srv.URL + "/gone.mp4")})

	_, err := New(srv.Client()).DownloadPost(context.Background(), root, post)

	var serr *tumblr.StatusError
	require.True(t, errors.As(err, &serr), "got %v", err)
	assert.Equal(t, http.StatusNotFound, serr.StatusCode)

	dir := PostDir(root, post.BlogName, uint64(post.ID))
	assert.NoFileExists(t, filepath.Join(dir, MetadataFileName))
	assert.NoFileExists(t, filepath.Join(dir, "gone.mp4"))
	assertNoTempFiles(t, dir)
}

func TestDownloadFileTruncated(t *testing.T) {
	srv := newMediaServer(t, nil)
	dir := t.TempDir()

	_, err := New(srv.Client()).DownloadFile(context.Background(), srv.URL+"/truncated.jpg", dir)
	require.Error(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "truncated.jpg"))
	assertNoTempFiles(t, dir)
}

func TestDownloadFileReplacesExisting(t *testing.T) {
	srv := newMediaServer(t, nil)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.jpg"), []byte("stale"), 0644))

	path, err := New(srv.Client()).DownloadFile(context.Background(), srv.URL+"/abc/s2048x3072/b.jpg", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b.jpg"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, mediaFiles["/abc/s2048x3072/b.jpg"], got)
}

func TestDownloadPostTextOnly(t *testing.T) {
	root := t.TempDir()
	post := &tumblr.Post{ID: 1, BlogName: "words", Content: tumblr.Content{&tumblr.TextBlock{Text: "hi"}}}

	dir, err := New(nil, WithProgress(&bytes.Buffer{})).DownloadPost(context.Background(), root, post)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, MetadataFileName, entries[0].Name())
}

type lockedBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func TestDownloadPostWithProgress(t *testing.T) {
	srv := newMediaServer(t, nil)
	out := &lockedBuffer{}

	_, err := New(srv.Client(), WithProgress(out)).DownloadPost(context.Background(), t.TempDir(), testPost(srv.URL))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "justcatposts/748474744137007104")
}

func TestFileName(t *testing.T) {
	for _, tc := range []struct {
		url  string
		name string
	}{
		{"https://64.media.tumblr.com/abc/s2048x3072/b.jpg", "b.jpg"},
		{"https://va.media.tumblr.com/tumblr_video.mp4?x=1#frag", "tumblr_video.mp4"},
		{"https://example.com/a%20b.png", "a b.png"},
	} {
		name, err := FileName(tc.url)
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.name, name)
	}

	for _, u := range []string{
		"https://example.com",
		"https://example.com/",
		"https://example.com/dir/",
		"https://example.com/..",
	} {
		_, err := FileName(u)
		assert.ErrorIs(t, err, ErrMissingFileName, u)
	}
}

func TestPlanFiles(t *testing.T) {
	files, err := planFiles([]string{"https://a/x.jpg", "https://a/y.jpg", "https://a/x.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []plannedFile{{"https://a/x.jpg", "x.jpg"}, {"https://a/y.jpg", "y.jpg"}}, files)

	_, err = planFiles([]string{"https://a/x.jpg", "https://b/x.jpg"})
	assert.ErrorIs(t, err, ErrDuplicateFileName)

	for _, u := range []string{"https://a/metadata.json", "https://a/x.jpg.tmp"} {
		_, err = planFiles([]string{u})
		assert.ErrorIs(t, err, ErrDuplicateFileName, u)
	}
}

func TestDownloadPostRejectsMediaNamedLikeMetadata(t *testing.T) {
	var requests int32
	srv := newMediaServer(t, &requests)
	root := t.TempDir()

	post := testPost(srv.URL)
	post.Content = append(post.Content, &tumblr.VideoBlock{URL: ptr(srv.URL + "/" + MetadataFileName)})

	_, err := New(srv.Client()).DownloadPost(context.Background(), root, post)
	assert.ErrorIs(t, err, ErrDuplicateFileName)
	assert.Equal(t, int32(0), atomic.LoadInt32(&requests))
	assert.NoDirExists(t, filepath.Join(root, "justcatposts"))
}

func TestWriteFileAtomicFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")

	err := writeFileAtomic(path, func(w io.Writer) error {
		w.Write([]byte("half"))
		return fmt.Errorf("connection reset")
	})
	require.EqualError(t, err, "connection reset")
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, path+".tmp")
}

func TestWriteFileAtomicConcurrentWriter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")

	require.True(t, acquireFile(path+".tmp"))
	defer releaseFile(path + ".tmp")

	err := writeFileAtomic(path, func(w io.Writer) error { return nil })
	assert.Error(t, err)
	assert.NoFileExists(t, path)
}
