package utils

import (
	"encoding/hex"
	"hash"

	"github.com/cespare/xxhash/v2"
)

func NewChecksum() hash.Hash64 {
	return xxhash.New()
}

func ChecksumString(h hash.Hash64) string {
	return hex.EncodeToString(h.Sum(nil))
}
