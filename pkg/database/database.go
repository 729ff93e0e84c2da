package database

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/podcastr/podcastr/pkg/config"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketHistory  = "history"
	BucketEpisodes = "episodes"
)

// fixed width so keys sort chronologically
const historyKeyFormat = "2006-01-02T15:04:05.000000000Z"

var ErrNotFound = errors.New("not found")

func dbFile(dataDir string) string {
	return filepath.Join(dataDir, config.DbFilename)
}

// Open the db in the given data folder. If the database does not exist it
// will be created and the buckets will be initialized.
func open(dataDir string, options *bolt.Options) (*bolt.DB, error) {
	err := os.MkdirAll(dataDir, 0755)
	if err != nil {
		return nil, err
	}

	db, err := bolt.Open(dbFile(dataDir), 0600, options)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(txn *bolt.Tx) error {
		for _, bucket := range []string{
			BucketHistory,
			BucketEpisodes,
		} {
			_, err := txn.CreateBucketIfNotExists([]byte(bucket))
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

type Database struct {
	bdb *bolt.DB
}

func Open(dataDir string) (*Database, error) {
	db, err := open(dataDir, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	return &Database{bdb: db}, nil
}

func (d *Database) Close() error {
	return d.bdb.Close()
}

type HistoryEntry struct {
	Time      time.Time `json:"time" csv:"time"`
	EpisodeID string    `json:"episodeId" csv:"episode_id"`
	Title     string    `json:"title" csv:"title"`
	URL       string    `json:"url" csv:"url"`
}

func historyKey(entry HistoryEntry) []byte {
	return []byte(entry.Time.UTC().Format(historyKeyFormat) + "-" + uuid.NewString())
}

func (d *Database) AddHistory(entry HistoryEntry) error {
	return d.bdb.Update(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(BucketHistory))

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		return b.Put(historyKey(entry), data)
	})
}

// GetHistory returns up to maxResults entries, newest first. A maxResults
// of 0 or less returns everything.
func (d *Database) GetHistory(maxResults int) ([]HistoryEntry, error) {
	entries := make([]HistoryEntry, 0)

	err := d.bdb.View(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(BucketHistory))

		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if maxResults > 0 && len(entries) >= maxResults {
				break
			}

			var entry HistoryEntry
			err := json.Unmarshal(v, &entry)
			if err != nil {
				return err
			}

			entries = append(entries, entry)
		}

		return nil
	})

	return entries, err
}

type CachedEpisode struct {
	Data    json.RawMessage `json:"data"`
	Fetched time.Time       `json:"fetched"`
}

func (d *Database) PutEpisode(id string, ce CachedEpisode) error {
	return d.bdb.Update(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(BucketEpisodes))

		data, err := json.Marshal(ce)
		if err != nil {
			return err
		}

		return b.Put([]byte(id), data)
	})
}

// GetEpisode returns the cached record for id, or ErrNotFound.
func (d *Database) GetEpisode(id string) (CachedEpisode, error) {
	var ce CachedEpisode

	err := d.bdb.View(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(BucketEpisodes))

		v := b.Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}

		return json.Unmarshal(v, &ce)
	})

	return ce, err
}

func (d *Database) RemoveEpisode(id string) error {
	return d.bdb.Update(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(BucketEpisodes))
		return b.Delete([]byte(id))
	})
}
