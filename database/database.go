package database

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	apiTokenBucket   = []byte("api_token")
	downloadedBucket = []byte("downloaded")

	apiTokenKey = []byte("token")
)

// Database remembers the scraped API token and which posts were downloaded.
type Database bbolt.DB

func NewDatabase(path string) (*Database, error) {
	db, err := bbolt.Open(path, 0644, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{apiTokenBucket, downloadedBucket} {
			_, err := tx.CreateBucketIfNotExists(name)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return (*Database)(db), nil
}

func (s *Database) Close() error {
	return s.get().Close()
}

// GetAPIToken returns the last stored API token or "" if there is none.
func (s *Database) GetAPIToken() (string, error) {
	var token string

	err := s.get().View(func(tx *bbolt.Tx) error {
		token = string(tx.Bucket(apiTokenBucket).Get(apiTokenKey))
		return nil
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

func (s *Database) SetAPIToken(token string) error {
	return s.get().Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(apiTokenBucket).Put(apiTokenKey, []byte(token))
	})
}

// DownloadedAt returns when a post was downloaded completely.
func (s *Database) DownloadedAt(blogName string, postID uint64) (time.Time, bool, error) {
	var (
		t  time.Time
		ok bool
	)

	err := s.get().View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(downloadedBucket).Get(postKey(blogName, postID))
		if b == nil {
			return nil
		}

		ok = true
		return t.UnmarshalText(b)
	})
	if err != nil {
		return time.Time{}, false, err
	}

	return t, ok, nil
}

func (s *Database) MarkDownloaded(blogName string, postID uint64, t time.Time) error {
	v, err := t.UTC().MarshalText()
	if err != nil {
		return err
	}

	return s.get().Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(downloadedBucket).Put(postKey(blogName, postID), v)
	})
}

func (s *Database) get() *bbolt.DB {
	return (*bbolt.DB)(s)
}

func postKey(blogName string, postID uint64) []byte {
	return []byte(fmt.Sprintf("%s/%d", blogName, postID))
}
