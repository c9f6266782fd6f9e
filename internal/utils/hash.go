// Package utils holds small shared helpers.
package utils

import "hash/fnv"

// HashStringToUint64 is the stable hash used for prompt memo keys and for
// deriving deterministic mock fixtures.
func HashStringToUint64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
