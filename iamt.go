// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

// Package iamt implements an immutable, content-addressed Hash Array
// Mapped Trie: a persistent key/value map whose nodes are serialised and
// handed to a caller-supplied Store, which alone decides how (and as what
// identifier type) they are addressed. Every mutation returns a new root
// identifier; the old one, and every node still reachable from it, remains
// valid and unchanged.
package iamt

import "context"

// Create persists an empty tree under opts and returns its root
// identifier. opts.BitWidth and opts.BucketSize default to DefaultBitWidth
// and DefaultBucketSize when left zero; opts.HashAlg must already be
// registered via RegisterHasher.
func Create(ctx context.Context, store Store, opts Options) (any, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	root := newEmptyNode(opts, 0)
	return saveNode(ctx, store, root)
}

// Load fetches the root node named by rootID and validates its shape,
// inferring BitWidth from its bitmap's length (BitWidth is bounded to
// [3,16], the exact range over which that inference is unambiguous). It
// returns a *Node that the read-side package functions
// (Get, Has, Size, Keys, Values, Entries, IDs, IsInvariant) accept
// directly, so a caller that already has a *Node in hand never pays for a
// redundant round-trip to the store. Set and Delete take a root
// identifier instead and load the root themselves.
func Load(ctx context.Context, store Store, rootID any) (*Node, error) {
	wire, err := store.Load(ctx, rootID)
	if err != nil {
		return nil, err
	}
	cfg, err := rootConfig(wire)
	if err != nil {
		return nil, err
	}
	return nodeFromWire(store, cfg, 0, wire)
}

// FromSerializable builds a root Node directly from an already-decoded
// value (e.g. one produced off-band, not fetched through store.Load),
// validated against opts rather than inferred from the value itself. It
// is the counterpart to IsRootSerializable/IsSerializable: a caller that
// has already confirmed x's shape can turn it into a usable Node.
func FromSerializable(store Store, opts Options, x any) (*Node, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return nodeFromWire(store, opts, 0, x)
}

// Get returns the value bound to key in the tree rooted at root, and
// whether key is present at all.
func Get(ctx context.Context, store Store, root *Node, key []byte) ([]byte, bool, error) {
	digest, err := hashKeyAt(ctx, root.cfg.HashAlg, key)
	if err != nil {
		return nil, false, err
	}
	return root.find(ctx, store, digest, maxDepthFor(root.cfg.BitWidth, len(digest)), key)
}

// Has reports whether key is present in the tree rooted at root.
func Has(ctx context.Context, store Store, root *Node, key []byte) (bool, error) {
	_, ok, err := Get(ctx, store, root, key)
	return ok, err
}

// Set binds key to value in the tree rooted at rootID and returns the
// identifier of the resulting root. The tree named by rootID is left
// untouched: Set never mutates a node in place, it only ever produces new
// ones and links them together.
//
// Setting a key to the value it already holds returns rootID unchanged.
func Set(ctx context.Context, store Store, rootID any, key, value []byte) (any, error) {
	root, err := Load(ctx, store, rootID)
	if err != nil {
		return nil, err
	}
	digest, err := hashKeyAt(ctx, root.cfg.HashAlg, key)
	if err != nil {
		return nil, err
	}
	newRoot, err := root.set(ctx, store, digest, maxDepthFor(root.cfg.BitWidth, len(digest)), key, value)
	if err != nil {
		return nil, err
	}
	if newRoot == root {
		return rootID, nil
	}
	return saveNode(ctx, store, newRoot)
}

// Delete removes key from the tree rooted at rootID and returns the
// identifier of the resulting root, alongside whether key was present.
// A miss returns (rootID, false, nil): the same root, unchanged.
func Delete(ctx context.Context, store Store, rootID any, key []byte) (any, bool, error) {
	root, err := Load(ctx, store, rootID)
	if err != nil {
		return nil, false, err
	}
	digest, err := hashKeyAt(ctx, root.cfg.HashAlg, key)
	if err != nil {
		return nil, false, err
	}
	newRoot, removed, err := root.delete(ctx, store, digest, maxDepthFor(root.cfg.BitWidth, len(digest)), key)
	if err != nil {
		return nil, false, err
	}
	if !removed {
		return rootID, false, nil
	}
	newID, err := saveNode(ctx, store, newRoot)
	if err != nil {
		return nil, false, err
	}
	return newID, true, nil
}
