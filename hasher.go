// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

package iamt

import (
	"context"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/multiformats/go-multihash"
	"github.com/spaolacci/murmur3"
)

// HasherFunc hashes a key into exactly HashBytes of output. It may block
// (some backing hash implementations are effectively asynchronous, e.g. an
// HSM-backed hasher); callers thread ctx through for cancellation the same
// way they do for Store calls.
type HasherFunc func(ctx context.Context, key []byte) ([]byte, error)

type hasherEntry struct {
	hashBytes int
	fn        HasherFunc
}

var (
	hasherMu       sync.RWMutex
	hasherRegistry = map[uint64]hasherEntry{}
)

// Well-known hashAlg identifiers. HashIdentity, HashSHA2_256 and
// HashMurmur3 use the multiformats code-table values for identity,
// sha2-256 and murmur3-32. HashXXHash64's 0x1E is this package's own
// choice; in that table 0x1E names a different hash.
const (
	HashIdentity uint64 = multihash.IDENTITY // 0x00 - raw bytes, variable length; useful for deterministic tests that need to pick exact collisions.
	HashSHA2_256 uint64 = multihash.SHA2_256 // 0x12 - 32-byte cryptographic hash.
	HashMurmur3  uint64 = 0x23                // fast non-cryptographic hash.
	HashXXHash64 uint64 = 0x1E                // fast non-cryptographic hash, fixed 8-byte output.
)

func init() {
	mustRegisterHasher(HashIdentity, 0, identityHasher)
	mustRegisterHasher(HashSHA2_256, 32, sha2_256Hasher)
	mustRegisterHasher(HashMurmur3, 4, murmur3Hasher)
	mustRegisterHasher(HashXXHash64, 8, xxhash64Hasher)
}

// RegisterHasher adds (or replaces) a hash algorithm in the process-wide
// registry. hashAlg and hashBytes must be non-negative (trivially true for
// the uint64 type used here, but hashBytes must still be > 0 unless the
// algorithm is variable-length, signalled by hashBytes == 0) and fn must be
// non-nil. Unknown hashAlg values at Create/Load are a fatal ConfigError;
// registration is the only way to make one known.
func RegisterHasher(hashAlg uint64, hashBytes int, fn HasherFunc) error {
	if fn == nil {
		return ConfigError{Field: "hasher", Reason: "hasher function must not be nil"}
	}
	if hashBytes < 0 {
		return ConfigError{Field: "hashBytes", Reason: "must be non-negative"}
	}
	hasherMu.Lock()
	defer hasherMu.Unlock()
	hasherRegistry[hashAlg] = hasherEntry{hashBytes: hashBytes, fn: fn}
	return nil
}

func mustRegisterHasher(hashAlg uint64, hashBytes int, fn HasherFunc) {
	if err := RegisterHasher(hashAlg, hashBytes, fn); err != nil {
		panic(err)
	}
}

// lookupHasher returns a consistent snapshot of the registration for
// hashAlg. Readers never observe a partially-written entry: the registry is
// guarded end-to-end by hasherMu.
func lookupHasher(hashAlg uint64) (hasherEntry, bool) {
	hasherMu.RLock()
	defer hasherMu.RUnlock()
	e, ok := hasherRegistry[hashAlg]
	return e, ok
}

func identityHasher(_ context.Context, key []byte) ([]byte, error) {
	out := make([]byte, len(key))
	copy(out, key)
	return out, nil
}

func sha2_256Hasher(_ context.Context, key []byte) ([]byte, error) {
	mh, err := multihash.Sum(key, multihash.SHA2_256, -1)
	if err != nil {
		return nil, err
	}
	decoded, err := multihash.Decode(mh)
	if err != nil {
		return nil, err
	}
	return decoded.Digest, nil
}

func murmur3Hasher(_ context.Context, key []byte) ([]byte, error) {
	h := murmur3.Sum32(key)
	return []byte{byte(h), byte(h >> 8), byte(h >> 16), byte(h >> 24)}, nil
}

func xxhash64Hasher(_ context.Context, key []byte) ([]byte, error) {
	h := xxhash.Sum64(key)
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = byte(h >> (8 * i))
	}
	return out, nil
}

// hashKeyAt computes the hash of key under hashAlg and validates its
// length against the registration, so a misbehaving HasherFunc is caught
// immediately rather than producing silently-wrong bit slices later.
func hashKeyAt(ctx context.Context, hashAlg uint64, key []byte) ([]byte, error) {
	entry, ok := lookupHasher(hashAlg)
	if !ok {
		return nil, HashAlgUnregisteredError{HashAlg: hashAlg}
	}
	digest, err := entry.fn(ctx, key)
	if err != nil {
		return nil, err
	}
	if entry.hashBytes != 0 && len(digest) != entry.hashBytes {
		return nil, ConsistencyError{Reason: fmt.Sprintf(
			"hasher for %#x returned %d bytes, expected %d", hashAlg, len(digest), entry.hashBytes)}
	}
	return digest, nil
}
