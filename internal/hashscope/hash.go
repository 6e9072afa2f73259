// Package hashscope provides the content-hashing, glob-scope, and
// mutation-classification primitives the hook engine builds optimistic
// concurrency and scope enforcement on top of.
package hashscope

import (
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/rs/zerolog/log"
)

// computeContentHash returns the "sha256:"-prefixed lowercase hex digest of
// b. Deterministic, with no line-ending normalization; an empty slice still
// yields a valid hash.
func computeContentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// ComputeContentHash is the exported form of computeContentHash, used by
// the ledger and hook packages to hash in-memory byte ranges.
func ComputeContentHash(b []byte) string {
	return computeContentHash(b)
}

// ComputeFileHash returns the content hash of the file at absPath, or an
// empty string if the path does not exist. Any other I/O error is logged
// and treated the same as "absent" — hashing never propagates an error to
// the gate.
func ComputeFileHash(absPath string) string {
	data, err := os.ReadFile(absPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", absPath).Msg("hashscope: file read failed during hashing")
		}
		return ""
	}
	return computeContentHash(data)
}
