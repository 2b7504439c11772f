// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

// Package fsstore is an on-disk iamt.Store built on a go-ipld-prime
// storage/fsstore.Store fronted by a linking.LinkSystem, addressing blocks
// by CID. Save hands the LinkSystem bytes this module has already
// canonically encoded, rather than an ipld.Node built through the dag-cbor
// codec - the byte layout is this module's to define, not go-ipld-prime's.
package fsstore

import (
	"context"
	"fmt"
	"io"

	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/linking"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/storage/fsstore"
	"github.com/multiformats/go-multicodec"

	iamtcbor "github.com/masslbs/go-iamt/cbor"
)

// NotFoundError is returned by Load when id names a block the store was
// never asked to Save.
type NotFoundError struct {
	ID  cid.Cid
	Dir string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("fsstore: no block for %s under %s", e.ID, e.Dir)
}

// Store is an iamt.Store backed by a directory of CID-named files.
type Store struct {
	dir    string
	fs     fsstore.Store
	lsys   linking.LinkSystem
	prefix cid.Prefix
}

// New opens (creating if necessary) an fsstore.Store rooted at dir.
func New(dir string) (*Store, error) {
	s := &Store{dir: dir}
	if err := s.fs.InitDefaults(dir); err != nil {
		return nil, fmt.Errorf("fsstore: init %s: %w", dir, err)
	}
	s.lsys = cidlink.DefaultLinkSystem()
	s.lsys.SetReadStorage(&s.fs)
	s.lsys.SetWriteStorage(&s.fs)
	s.prefix = cid.Prefix{
		Version:  1,
		Codec:    uint64(multicodec.DagCbor),
		MhType:   uint64(multicodec.Sha2_256),
		MhLength: -1,
	}
	return s, nil
}

// Save canonically encodes node and writes it to disk under the CID of
// its bytes.
func (s *Store) Save(ctx context.Context, node any) (any, error) {
	raw, err := iamtcbor.Marshal(node)
	if err != nil {
		return nil, err
	}
	id, err := s.prefix.Sum(raw)
	if err != nil {
		return nil, err
	}

	w, commit, err := s.lsys.StorageWriteOpener(ipld.LinkContext{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := commit(cidlink.Link{Cid: id}); err != nil {
		return nil, err
	}
	return id, nil
}

// Load reads and decodes the block named by id, which may be a cid.Cid
// (as returned by Save) or its binary-marshaled []byte form (as decoded
// out of a parent node's Link element).
func (s *Store) Load(ctx context.Context, id any) (any, error) {
	c, err := asCid(id)
	if err != nil {
		return nil, err
	}

	r, err := s.lsys.StorageReadOpener(ipld.LinkContext{Ctx: ctx}, cidlink.Link{Cid: c})
	if err != nil {
		return nil, NotFoundError{ID: c, Dir: s.dir}
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var decoded any
	if err := iamtcbor.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// IsEqual reports whether a and b name the same CID.
func (s *Store) IsEqual(a, b any) bool {
	ca, errA := asCid(a)
	cb, errB := asCid(b)
	return errA == nil && errB == nil && ca.Equals(cb)
}

// IsLink reports whether v is the []byte form a CID decodes to.
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
		return cid.Undef, fmt.Errorf("fsstore: identifier of unexpected type %T", id)
	}
}
