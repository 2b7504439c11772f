// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

// Package testhelper provides deterministic key/value fixtures shared by
// this module's test suites - the root package's, and every store
// adapter's.
package testhelper

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
)

// TestKey returns a deterministic, distinct key for index i. Keys are
// fixed-width so that tests using HashIdentity (where the hash of a key is
// the key itself) get a predictable, reproducible trie depth.
func TestKey(i int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(i))
	return b
}

// TestValue returns a deterministic value for index i, distinct from
// TestKey(i) so a test accidentally comparing a key against a value still
// fails loudly.
func TestValue(i int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(i)+1<<32)
	return b
}

// TestHash hashes i with SHA-256, for tests that need a fixed-length
// digest without going through the package's hasher registry at all.
func TestHash(i uint) []byte {
	h := sha256.New()
	binary.Write(h, binary.BigEndian, uint64(i))
	return h.Sum(nil)
}

// RandomBytes returns n cryptographically random bytes, for property
// tests that need unpredictable keys/values rather than TestKey/TestValue's
// sequential ones.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return b
}

func Strptr(s string) *string {
	return &s
}

func Boolptr(b bool) *bool {
	return &b
}

func Uint64ptr(i uint64) *uint64 {
	return &i
}
