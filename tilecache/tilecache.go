// Package tilecache implements a capacity-bounded, job-keyed disk cache
// of rendered tile images: spec.md §4.6's "disk tile cache (an LRU keyed
// by job fingerprint that stores compressed bitmaps on a scratch
// directory)".
//
// Grounded on FileSystemTileCache.java (read in full): the ".tile"
// scratch file extension, a directory check at construction (creating
// the directory if missing and rejecting a non-directory; read/write
// permissions are not checked), decode-failure self-eviction on Get, capacity-0
// disabling writes entirely, and monotonically numbered output
// filenames that skip any name already on disk.
package tilecache

import (
	"bytes"
	"container/list"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/ownmap-app/renderer"
)

const fileExtension = ".tile"

// Cache is a thread-safe, disk-backed LRU of rendered tile images keyed
// by renderer.Job. LRUCache.java/FileLRUCache.java (the teacher's
// upstream collaborators for FileSystemTileCache) are not present in
// this retrieval, so the LRU bookkeeping here is a standard
// container/list-based implementation rather than a ported one; no
// example repo in the pack imports a third-party LRU library, so this is
// one of the few places this codebase reaches for the standard library
// over an ecosystem package.
type Cache struct {
	mu       sync.Mutex
	fs       gofs.Fs
	dir      string
	capacity int
	nextID   uint64

	order   *list.List // front = most recently used
	entries map[renderer.Job]*list.Element
}

type cacheEntry struct {
	job  renderer.Job
	path string
}

// NewFileSystemCache builds a Cache storing at most capacity tiles under
// dir, creating dir if it does not already exist. capacity of 0 is valid:
// Get always misses and Put is a no-op, matching FileSystemTileCache's
// "capacity == 0" shortcut in put().
func NewFileSystemCache(fs gofs.Fs, dir string, capacity int) (*Cache, errorsx.Error) {
	if capacity < 0 {
		return nil, errorsx.Errorf("capacity must not be negative, got %d", capacity)
	}

	info, err := fs.Stat(dir)
	if err != nil {
		if mkErr := fs.MkdirAll(dir, 0755); mkErr != nil {
			return nil, errorsx.Errorf("could not create cache directory %q: %s", dir, mkErr)
		}
	} else if !info.IsDir() {
		return nil, errorsx.Errorf("%q is not a directory", dir)
	}

	return &Cache{
		fs:       fs,
		dir:      dir,
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[renderer.Job]*list.Element),
	}, nil
}

// Capacity returns the maximum number of entries this cache will hold.
func (c *Cache) Capacity() int {
	return c.capacity
}

// ContainsKey reports whether job has a cached tile, without affecting
// LRU order.
func (c *Cache) ContainsKey(job renderer.Job) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[job]
	return ok
}

// Get returns the cached image for job, decoding it from disk and
// marking it most-recently-used. A decode failure evicts the entry and
// reports a miss, matching FileSystemTileCache.get()'s self-healing
// behavior on a corrupt or externally-removed cache file.
func (c *Cache) Get(job renderer.Job) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[job]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)

	file, err := c.fs.Open(entry.path)
	if err != nil {
		c.evict(elem)
		return nil, false
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		c.evict(elem)
		return nil, false
	}

	c.order.MoveToFront(elem)
	return img, true
}

// Put stores img under job, PNG-encoded, evicting the least-recently-used
// entry if this push exceeds capacity. Put is a no-op when capacity is 0.
func (c *Cache) Put(job renderer.Job, img image.Image) errorsx.Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return errorsx.Wrap(err)
	}

	path, err := c.outputPath()
	if err != nil {
		return err
	}

	if writeErr := c.fs.WriteFile(path, buf.Bytes(), 0644); writeErr != nil {
		return errorsx.Wrap(writeErr)
	}

	if existing, ok := c.entries[job]; ok {
		c.evict(existing)
	}

	elem := c.order.PushFront(&cacheEntry{job: job, path: path})
	c.entries[job] = elem

	if c.order.Len() > c.capacity {
		c.evictOldest()
	}

	return nil
}

// Destroy removes every cached tile file and clears the in-memory index.
func (c *Cache) Destroy() errorsx.Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*cacheEntry)
		_ = c.fs.Remove(entry.path) // best-effort; file may already be gone
	}

	c.order = list.New()
	c.entries = make(map[renderer.Job]*list.Element)
	return nil
}

func (c *Cache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.evict(oldest)
}

func (c *Cache) evict(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	_ = c.fs.Remove(entry.path)
	delete(c.entries, entry.job)
	c.order.Remove(elem)
}

// outputPath picks the next unused, monotonically numbered scratch
// filename under dir, mirroring getOutputFile()'s loop.
func (c *Cache) outputPath() (string, errorsx.Error) {
	for {
		c.nextID++
		path := fmt.Sprintf("%s/%d%s", c.dir, c.nextID, fileExtension)
		if _, err := c.fs.Stat(path); err != nil {
			return path, nil
		}
	}
}
