package offline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	appLog "riverside/internal/log"
)

// DiskStorage keeps each cache in its own directory under root:
//
//	root/<hash(cache name)>/name            cache name
//	root/<hash(cache name)>/<hash(key)>/    one entry: meta.json + body
//
// Entries are written to a staging directory and renamed into place. If a
// rename fails, entries already committed are rolled back, so a failed
// PutAll leaves the cache as it was.
type DiskStorage struct {
	root string
	mu   sync.Mutex
}

var _ Storage = (*DiskStorage)(nil)

// diskMeta is the metadata stored next to each body.
type diskMeta struct {
	Key       string      `json:"key"`
	Status    int         `json:"status"`
	Header    http.Header `json:"header,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewDiskStorage creates root (0700) if needed.
func NewDiskStorage(root string) (*DiskStorage, error) {
	if root == "" {
		return nil, errors.New("offline: disk storage root is empty")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, errors.Wrap(err, "offline: create storage root")
	}
	return &DiskStorage{root: root}, nil
}

func (s *DiskStorage) Open(name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.cacheDir(name)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "offline: open cache %q", name)
	}
	nameFile := filepath.Join(dir, "name")
	if _, err := os.Stat(nameFile); os.IsNotExist(err) {
		if err := os.WriteFile(nameFile, []byte(name), 0o600); err != nil {
			return nil, errors.Wrapf(err, "offline: open cache %q", name)
		}
	}
	return &diskCache{dir: dir}, nil
}

func (s *DiskStorage) Has(name string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.cacheDir(name), "name"))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *DiskStorage) Keys() ([]string, error) {
	dirs, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrap(err, "offline: list caches")
	}

	names := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.root, d.Name(), "name"))
		if err != nil {
			continue
		}
		names = append(names, string(data))
	}
	sort.Strings(names)
	return names, nil
}

func (s *DiskStorage) Delete(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.Has(name)
	if err != nil || !ok {
		return false, err
	}
	if err := os.RemoveAll(s.cacheDir(name)); err != nil {
		return false, errors.Wrapf(err, "offline: delete cache %q", name)
	}
	return true, nil
}

func (s *DiskStorage) cacheDir(name string) string {
	return filepath.Join(s.root, hashName(name))
}

type diskCache struct {
	dir string
	mu  sync.RWMutex
}

func (c *diskCache) Match(key string) (*Response, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entryDir := filepath.Join(c.dir, hashName(key))
	data, err := os.ReadFile(filepath.Join(entryDir, "meta.json"))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var meta diskMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, false, errors.Wrapf(err, "offline: corrupt entry for %q", key)
	}
	body, err := os.ReadFile(filepath.Join(entryDir, "body"))
	if err != nil {
		return nil, false, errors.Wrapf(err, "offline: missing body for %q", key)
	}

	header := meta.Header
	if header == nil {
		header = http.Header{}
	}
	return &Response{Status: meta.Status, Header: header, Body: body}, true, nil
}

func (c *diskCache) PutAll(entries []Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	staging, err := os.MkdirTemp(c.dir, ".staging-*")
	if err != nil {
		return errors.Wrap(err, "offline: create staging dir")
	}
	defer os.RemoveAll(staging)

	for _, e := range entries {
		if err := writeEntry(filepath.Join(staging, hashName(e.Key)), e); err != nil {
			return err
		}
	}

	// Entries being replaced are parked here until every rename succeeded.
	previous := filepath.Join(staging, ".previous")
	if err := os.Mkdir(previous, 0o700); err != nil {
		return errors.Wrap(err, "offline: create staging dir")
	}

	committed := make([]string, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		name := hashName(e.Key)
		if seen[name] {
			continue
		}
		seen[name] = true

		final := filepath.Join(c.dir, name)
		parked, err := moveAside(final, filepath.Join(previous, name))
		if err != nil {
			c.rollback(committed, previous)
			return errors.Wrapf(err, "offline: replace entry %q", e.Key)
		}
		if err := commitRename(filepath.Join(staging, name), final); err != nil {
			if parked {
				_ = os.Rename(filepath.Join(previous, name), final)
			}
			c.rollback(committed, previous)
			return errors.Wrapf(err, "offline: commit entry %q", e.Key)
		}
		committed = append(committed, name)
	}
	return nil
}

// commitRename moves a staged entry into the cache. Tests swap it to fail
// part way through a commit.
var commitRename = os.Rename

// rollback removes the committed entries and restores what they replaced.
func (c *diskCache) rollback(committed []string, previous string) {
	for i := len(committed) - 1; i >= 0; i-- {
		name := committed[i]
		final := filepath.Join(c.dir, name)
		if err := os.RemoveAll(final); err != nil {
			appLog.Warn("offline: rollback failed", "entry", name, "err", err)
			continue
		}
		if _, err := moveAside(filepath.Join(previous, name), final); err != nil {
			appLog.Warn("offline: restore failed", "entry", name, "err", err)
		}
	}
}

// moveAside renames src to dst if src exists and reports whether it did.
func moveAside(src, dst string) (bool, error) {
	if _, err := os.Lstat(src); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err := os.Rename(src, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *diskCache) Keys() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dirs, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, d.Name(), "meta.json"))
		if err != nil {
			continue
		}
		var meta diskMeta
		if json.Unmarshal(data, &meta) == nil {
			keys = append(keys, meta.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func writeEntry(dir string, e Entry) error {
	if e.Response == nil {
		return errors.Errorf("offline: nil response for %q", e.Key)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(dir, "body"), e.Response.Body, 0o600); err != nil {
		return errors.Wrapf(err, "offline: write body for %q", e.Key)
	}
	data, err := json.MarshalIndent(diskMeta{
		Key:       e.Key,
		Status:    e.Response.Status,
		Header:    e.Response.Header,
		UpdatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}

func hashName(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
