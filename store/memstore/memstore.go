// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

// Package memstore is an in-process iamt.Store backed by a map, addressing
// every node by the CID of its canonical CBOR encoding. Rather than
// wrapping a Go struct directly (which would let go-ipld-cbor pick the
// byte layout), it wraps bytes this module has already canonically
// encoded itself, so go-ipld-cbor contributes only content-addressing,
// never the wire shape.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/ipfs/go-cid"
	ipldcbor "github.com/ipfs/go-ipld-cbor"
	mh "github.com/multiformats/go-multihash"

	iamtcbor "github.com/masslbs/go-iamt/cbor"
)

// NotFoundError is returned by Load when id names a block the store never
// received from Save.
type NotFoundError struct {
	ID cid.Cid
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("memstore: no block for %s", e.ID)
}

// Store is a concurrency-safe, in-memory iamt.Store. The zero value is not
// usable; construct one with New.
type Store struct {
	mu     sync.RWMutex
	blocks map[string][]byte

	mhType uint64
	mhLen  int
}

// New returns a Store that hashes blocks with SHA2-256.
func New() *Store {
	return NewWithHash(mh.SHA2_256, -1)
}

// NewWithHash returns a Store that hashes blocks with the given multihash
// type and length (mhLen == -1 means "default length for mhType").
func NewWithHash(mhType uint64, mhLen int) *Store {
	return &Store{
		blocks: make(map[string][]byte),
		mhType: mhType,
		mhLen:  mhLen,
	}
}

// Save canonically encodes node, content-addresses the result, and stores
// it under the resulting CID.
func (s *Store) Save(_ context.Context, node any) (any, error) {
	raw, err := iamtcbor.Marshal(node)
	if err != nil {
		return nil, err
	}
	block, err := ipldcbor.Decode(raw, s.mhType, s.mhLen)
	if err != nil {
		return nil, err
	}
	id := block.Cid()

	s.mu.Lock()
	s.blocks[id.KeyString()] = block.RawData()
	s.mu.Unlock()

	return id, nil
}

// Load fetches and decodes the block named by id, which may be a cid.Cid
// (as returned by Save) or its binary-marshaled []byte form (as decoded
// out of a parent node's Link element).
func (s *Store) Load(_ context.Context, id any) (any, error) {
	c, err := asCid(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	raw, ok := s.blocks[c.KeyString()]
	s.mu.RUnlock()
	if !ok {
		return nil, NotFoundError{ID: c}
	}

	var decoded any
	if err := iamtcbor.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// IsEqual reports whether a and b name the same CID, after normalizing
// either of the two accepted representations.
func (s *Store) IsEqual(a, b any) bool {
	ca, errA := asCid(a)
	cb, errB := asCid(b)
	return errA == nil && errB == nil && ca.Equals(cb)
}

// IsLink reports whether v is the []byte form a CID decodes to - the only
// shape a Link element ever takes once canonical CBOR round-trips it
// through cid.Cid's encoding.BinaryMarshaler implementation.
func (s *Store) IsLink(v any) bool {
	_, ok := v.([]byte)
	return ok
}

func asCid(id any) (cid.Cid, error) {
	switch v := id.(type) {
	case cid.Cid:
		return v, nil
	case []byte:
		return cid.Cast(v)
	default:
		return cid.Undef, fmt.Errorf("memstore: identifier of unexpected type %T", id)
	}
}
