package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/mmcdole/moviemate/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketWatchlist = []byte("watchlist")
)

const keyWatchlist = "watchlist"

// Store implements domain.WatchlistStore using BoltDB.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access and on write)
	cache map[string][]byte
}

// New opens (or creates) the database under dir. An empty dir selects
// memory-only mode with no persistence.
func New(dir string) (*Store, error) {
	if dir == "" {
		return &Store{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "moviemate.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketWatchlist)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, cache: make(map[string][]byte)}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

// getRaw returns a copy of the stored bytes, or nil when the key is absent.
func (s *Store) getRaw(bucket []byte, key string) ([]byte, error) {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return data, nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cacheKey, err)
	}
	if data == nil {
		return nil, nil
	}

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return data, nil
}

func (s *Store) setRaw(bucket []byte, key string, data []byte) error {
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucket).Put([]byte(key), data)
		})
		if err != nil {
			return fmt.Errorf("failed to write %s:%s: %w", bucket, key, err)
		}
	}

	// Promote only after a successful write so readers never observe
	// a value the database rejected.
	s.mu.Lock()
	s.cache[string(bucket)+":"+key] = data
	s.mu.Unlock()
	return nil
}

// === Watchlist ===

// GetWatchlist returns the persisted watchlist. A value in the legacy
// object-keyed shape ({"42": {...}}) is converted to a list ordered by id
// and written back once in canonical form.
func (s *Store) GetWatchlist() ([]domain.Movie, error) {
	data, err := s.getRaw(bucketWatchlist, keyWatchlist)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []domain.Movie{}, nil
	}

	movies, legacy, err := decodeWatchlist(data)
	if err != nil {
		return nil, err
	}
	if legacy {
		if err := s.SaveWatchlist(movies); err != nil {
			return nil, fmt.Errorf("failed to normalize legacy watchlist: %w", err)
		}
	}
	return movies, nil
}

func (s *Store) SaveWatchlist(movies []domain.Movie) error {
	if movies == nil {
		movies = []domain.Movie{}
	}
	data, err := json.Marshal(movies)
	if err != nil {
		return err
	}
	return s.setRaw(bucketWatchlist, keyWatchlist, data)
}

// decodeWatchlist accepts both the canonical list and the legacy object shape.
func decodeWatchlist(data []byte) ([]domain.Movie, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []domain.Movie{}, false, nil
	}

	if trimmed[0] != '{' {
		var movies []domain.Movie
		if err := json.Unmarshal(trimmed, &movies); err != nil {
			return nil, false, fmt.Errorf("failed to decode watchlist: %w", err)
		}
		if movies == nil {
			movies = []domain.Movie{}
		}
		return movies, false, nil
	}

	var keyed map[string]domain.Movie
	if err := json.Unmarshal(trimmed, &keyed); err != nil {
		return nil, false, fmt.Errorf("failed to decode legacy watchlist: %w", err)
	}

	movies := make([]domain.Movie, 0, len(keyed))
	seen := make(map[int]bool, len(keyed))
	for key, m := range keyed {
		if m.ID == 0 {
			// Older entries only carried the id in the key
			if id, err := strconv.Atoi(key); err == nil {
				m.ID = id
			}
		}
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		movies = append(movies, m)
	}
	sort.Slice(movies, func(i, j int) bool { return movies[i].ID < movies[j].ID })
	return movies, true, nil
}
