// Package cache provides parse caching for the compiler. It implements
// content hashing, a tree cache keyed by path and hash, and the module
// import graph used to resolve include directories.
package cache

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// HashContent returns the xxhash of a schema file's content as 16 lowercase
// hex digits. It is the cache key a parsed tree is stored under.
func HashContent(content []byte) string {
	s := strconv.FormatUint(xxhash.Sum64(content), 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}
