package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
)

// Current schema version - increment when CachePayload or any finding
// message or severity changes.
const diskCacheSchemaVersion uint16 = 2

// Digest is a SHA-256 cache key.
type Digest [sha256.Size]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// DiskCache хранит находки по главам на диске; ключом служит Digest содержимого.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachePayload is the msgpack document stored per chapter.
type CachePayload struct {
	Schema      uint16
	Path        string
	Diagnostics []diag.Diagnostic
}

// OpenDiskCache initializes a cache under $XDG_CACHE_HOME/app (or ~/.cache/app).
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt initializes a cache rooted at dir.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// CacheKey hashes everything a chapter's findings depend on.
func CacheKey(path string, manifestBytes, chapterBytes []byte, opts check.Options) Digest {
	h := sha256.New()
	var buf [8]byte
	writePart := func(p []byte) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(p)))
		h.Write(buf[:])
		h.Write(p)
	}
	binary.LittleEndian.PutUint16(buf[:2], diskCacheSchemaVersion)
	h.Write(buf[:2])
	writePart([]byte(filepath.ToSlash(path)))
	writePart(manifestBytes)
	writePart(chapterBytes)
	h.Write([]byte{flag(opts.UnusedLabels), flag(opts.DuplicateLabels), flag(opts.LanguageTags)})

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := key.String()
	// Подкаталог по первым двум символам, чтобы не держать тысячи файлов в одной папке.
	return filepath.Join(c.dir, "chapters", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *CachePayload) (err error) {
	if c == nil || payload == nil {
		return nil
	}
	payload.Schema = diskCacheSchemaVersion
	payload.Path = filepath.ToSlash(payload.Path)

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads a payload. A missing entry is (false, nil); an entry written by
// another schema version, or for another path, is treated as missing.
func (c *DiskCache) Get(key Digest, path string) (*CachePayload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload CachePayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != diskCacheSchemaVersion || payload.Path != filepath.ToSlash(path) {
		return nil, false, nil
	}
	return &payload, true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "chapters"))
}
