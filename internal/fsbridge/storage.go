// Package fsbridge connects go-billy filesystems to go-git storage.
// It locates repository roots and builds cached object storage for them.
package fsbridge

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// DefaultCacheSize is the object cache budget in KiB used when no positive
// size is requested. It matches go-git's own default of 96 MiB.
const DefaultCacheSize = int(cache.DefaultMaxSize / cache.KiByte)

// NewStorage creates git storage over dotGit with an LRU object cache
// holding up to cacheSizeKiB kibibytes of decoded objects.
func NewStorage(dotGit billy.Filesystem, cacheSizeKiB int) *filesystem.Storage {
	return filesystem.NewStorage(dotGit, objectCache(cacheSizeKiB))
}

func objectCache(cacheSizeKiB int) *cache.ObjectLRU {
	if cacheSizeKiB <= 0 {
		cacheSizeKiB = DefaultCacheSize
	}
	return cache.NewObjectLRU(cache.FileSize(cacheSizeKiB) * cache.KiByte)
}
