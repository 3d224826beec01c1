// Package cache keeps objects parsed from files, such as deal files, so a
// file is only read again once it changes on disk.
package cache

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type entry[T any] struct {
	modTime time.Time
	size    int64
	obj     T
}

type LoadFunc[T any] func(path string) (T, error)

// FileCache is safe for concurrent use.
type FileCache[T any] struct {
	sync.Mutex
	objects map[string]entry[T]
	load    LoadFunc[T]
}

func NewFileCache[T any](load func(path string) (T, error)) *FileCache[T] {
	return &FileCache[T]{objects: map[string]entry[T]{}, load: load}
}

// Get returns the object parsed from path, loading it if the file is new
// or has changed since it was last loaded.
func (c *FileCache[T]) Get(path string) (T, error) {
	var zero T
	fi, err := os.Stat(path)
	if err != nil {
		return zero, err
	}
	c.Lock()
	defer c.Unlock()
	if e, ok := c.objects[path]; ok && e.modTime.Equal(fi.ModTime()) && e.size == fi.Size() {
		log.Debug().Str("path", path).Msg("getting obj from cache")
		return e.obj, nil
	}
	log.Debug().Str("path", path).Msg("loading into cache")
	obj, err := c.load(path)
	if err != nil {
		return zero, err
	}
	c.objects[path] = entry[T]{modTime: fi.ModTime(), size: fi.Size(), obj: obj}
	return obj, nil
}

// Forget drops path so the next Get reads it again.
func (c *FileCache[T]) Forget(path string) {
	c.Lock()
	defer c.Unlock()
	delete(c.objects, path)
}

func (c *FileCache[T]) Len() int {
	c.Lock()
	defer c.Unlock()
	return len(c.objects)
}
