// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

package iamt

import (
	"bytes"
	"context"
	"sort"
)

// config is the resolved, validated set of parameters shared by every node
// in a tree. It is the same shape as Options; the alias keeps the public
// surface (Options) and the internal plumbing (config) in sync without a
// second struct definition to drift.
type config = Options

// Node is one level of the trie: a compacted bitmap plus the occupied
// elements it indexes, in bitmap order. Node is never mutated in place -
// every operation that would change a Node's contents returns a new one,
// sharing unrelated elements by reference (structural sharing).
type Node struct {
	cfg    config
	depth  int
	bitmap []byte
	data   []element
}

// newEmptyNode builds the node with no occupied slots, the starting point
// for Create and for every freshly-split child.
func newEmptyNode(cfg config, depth int) *Node {
	return &Node{
		cfg:    cfg,
		depth:  depth,
		bitmap: make([]byte, bitmapLen(cfg.BitWidth)),
	}
}

// maxDepthFor is floor((digestLen*8)/bitWidth): the number of trie levels
// a digest of digestLen bytes can address. It is computed from the actual
// digest produced for a given key rather than from a fixed per-algorithm
// constant, so that a variable-length hasher (HashIdentity, whose registry
// entry carries hashBytes == 0) still gets a correct, key-specific bound
// instead of one derived from a length that was never fixed in the first
// place.
func maxDepthFor(bitWidth uint, digestLen int) int {
	return (digestLen * 8) / int(bitWidth)
}

// loadNode fetches and decodes the node stored under id. depth must be the
// caller's own knowledge of how deep id sits (0 for a root id, n.depth+1
// for a child reached through a Link at depth n).
func loadNode(ctx context.Context, store Store, cfg config, depth int, id any) (*Node, error) {
	wire, err := store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return nodeFromWire(store, cfg, depth, wire)
}

// saveNode serialises n and persists it, returning the identifier the
// caller should embed in a Link (or, at the root, return to its own
// caller as the tree's new identity).
func saveNode(ctx context.Context, store Store, n *Node) (any, error) {
	wire, err := n.toSerializable()
	if err != nil {
		return nil, err
	}
	return store.Save(ctx, wire)
}

// withReplacedAt returns a copy of n with data[idx] replaced by el. The
// bitmap is unchanged - the slot was already occupied.
func (n *Node) withReplacedAt(idx int, el element) *Node {
	data := make([]element, len(n.data))
	copy(data, n.data)
	data[idx] = el
	return &Node{cfg: n.cfg, depth: n.depth, bitmap: n.bitmap, data: data}
}

// withInserted returns a copy of n with a new element occupying position
// pos, which must currently be unoccupied.
func (n *Node) withInserted(pos uint64, el element) *Node {
	bitmap := setBit(n.bitmap, pos, true)
	idx := index(bitmap, pos)
	data := make([]element, 0, len(n.data)+1)
	data = append(data, n.data[:idx]...)
	data = append(data, el)
	data = append(data, n.data[idx:]...)
	return &Node{cfg: n.cfg, depth: n.depth, bitmap: bitmap, data: data}
}

// withRemovedAt returns a copy of n with the occupied slot at (idx, pos)
// cleared entirely - used when a bucket's last pair is deleted, or when a
// child link collapses to nothing.
func (n *Node) withRemovedAt(idx int, pos uint64) *Node {
	bitmap := setBit(n.bitmap, pos, false)
	data := make([]element, 0, len(n.data)-1)
	data = append(data, n.data[:idx]...)
	data = append(data, n.data[idx+1:]...)
	return &Node{cfg: n.cfg, depth: n.depth, bitmap: bitmap, data: data}
}

// find looks up key under digest, descending through Links and scanning
// Buckets.
func (n *Node) find(ctx context.Context, store Store, digest []byte, maxDepth int, key []byte) ([]byte, bool, error) {
	if n.depth >= maxDepth {
		return nil, false, DepthOverflowError{Depth: n.depth, MaxDepth: maxDepth}
	}
	pos := mask(digest, n.depth, n.cfg.BitWidth)
	if !bitmapHas(n.bitmap, pos) {
		return nil, false, nil
	}
	idx := index(n.bitmap, pos)
	switch el := n.data[idx].(type) {
	case *bucketElement:
		i, ok := findInBucket(el, key)
		if !ok {
			return nil, false, nil
		}
		return el.pairs[i].Value, true, nil
	case *linkElement:
		child, err := loadNode(ctx, store, n.cfg, n.depth+1, el.id)
		if err != nil {
			return nil, false, err
		}
		return child.find(ctx, store, digest, maxDepth, key)
	default:
		return nil, false, ConsistencyError{Reason: "occupied slot holds neither bucket nor link"}
	}
}

// set returns the Node that results from binding key to value under
// digest. The returned Node is not itself persisted; callers that embed it
// under a Link must saveNode it first, and the top-level Set operation
// must saveNode the final root.
//
// Setting a key to the value it already holds is a no-op: set returns n
// itself unchanged, preserving identity.
func (n *Node) set(ctx context.Context, store Store, digest []byte, maxDepth int, key, value []byte) (*Node, error) {
	if n.depth >= maxDepth {
		return nil, DepthOverflowError{Depth: n.depth, MaxDepth: maxDepth}
	}
	pos := mask(digest, n.depth, n.cfg.BitWidth)
	if !bitmapHas(n.bitmap, pos) {
		return n.withInserted(pos, &bucketElement{pairs: []Pair{{Key: key, Value: value}}}), nil
	}
	idx := index(n.bitmap, pos)
	switch el := n.data[idx].(type) {
	case *bucketElement:
		if i, ok := findInBucket(el, key); ok {
			if bytes.Equal(el.pairs[i].Value, value) {
				return n, nil
			}
			return n.withReplacedAt(idx, &bucketElement{pairs: withReplacedValue(el.pairs, i, value)}), nil
		}
		grown := sortedInsert(el.pairs, key, value)
		if len(grown) <= n.cfg.BucketSize {
			return n.withReplacedAt(idx, &bucketElement{pairs: grown}), nil
		}
		child, err := n.splitBucket(ctx, store, grown, maxDepth)
		if err != nil {
			return nil, err
		}
		childID, err := saveNode(ctx, store, child)
		if err != nil {
			return nil, err
		}
		return n.withReplacedAt(idx, &linkElement{id: childID}), nil
	case *linkElement:
		child, err := loadNode(ctx, store, n.cfg, n.depth+1, el.id)
		if err != nil {
			return nil, err
		}
		newChild, err := child.set(ctx, store, digest, maxDepth, key, value)
		if err != nil {
			return nil, err
		}
		if newChild == child {
			return n, nil
		}
		newID, err := saveNode(ctx, store, newChild)
		if err != nil {
			return nil, err
		}
		if store.IsEqual(newID, el.id) {
			return n, nil
		}
		return n.withReplacedAt(idx, &linkElement{id: newID}), nil
	default:
		return nil, ConsistencyError{Reason: "occupied slot holds neither bucket nor link"}
	}
}

// splitBucket builds the child subtree one level deeper that replaces an
// overflowing bucket, by re-hashing and reinserting every pair the
// overflowing bucket held. Reusing set for the reinsertion, rather than a
// bespoke redistribution routine, means a bucket that collides all the
// way down bitWidth-sized chunks keeps splitting automatically instead of
// needing a second code path.
func (n *Node) splitBucket(ctx context.Context, store Store, pairs []Pair, maxDepth int) (*Node, error) {
	child := newEmptyNode(n.cfg, n.depth+1)
	for _, p := range pairs {
		pDigest, err := hashKeyAt(ctx, n.cfg.HashAlg, p.Key)
		if err != nil {
			return nil, err
		}
		child, err = child.set(ctx, store, pDigest, maxDepth, p.Key, p.Value)
		if err != nil {
			return nil, err
		}
	}
	return child, nil
}

// delete returns the Node that results from removing key, and whether key
// was present at all. A miss returns (n, false, nil): the same node,
// unchanged.
func (n *Node) delete(ctx context.Context, store Store, digest []byte, maxDepth int, key []byte) (*Node, bool, error) {
	if n.depth >= maxDepth {
		return nil, false, DepthOverflowError{Depth: n.depth, MaxDepth: maxDepth}
	}
	pos := mask(digest, n.depth, n.cfg.BitWidth)
	if !bitmapHas(n.bitmap, pos) {
		return n, false, nil
	}
	idx := index(n.bitmap, pos)
	switch el := n.data[idx].(type) {
	case *bucketElement:
		i, ok := findInBucket(el, key)
		if !ok {
			return n, false, nil
		}
		var n2 *Node
		if len(el.pairs) == 1 {
			n2 = n.withRemovedAt(idx, pos)
		} else {
			n2 = n.withReplacedAt(idx, &bucketElement{pairs: withoutIndex(el.pairs, i)})
		}
		return n2.collapsed(), true, nil
	case *linkElement:
		child, err := loadNode(ctx, store, n.cfg, n.depth+1, el.id)
		if err != nil {
			return nil, false, err
		}
		newChild, removed, err := child.delete(ctx, store, digest, maxDepth, key)
		if err != nil {
			return nil, false, err
		}
		if !removed {
			return n, false, nil
		}
		switch {
		case len(newChild.data) == 0:
			return n.withRemovedAt(idx, pos).collapsed(), true, nil
		case len(newChild.data) == 1 && newChild.data[0].isBucket():
			return n.withReplacedAt(idx, newChild.data[0]).collapsed(), true, nil
		default:
			newID, err := saveNode(ctx, store, newChild)
			if err != nil {
				return nil, false, err
			}
			return n.withReplacedAt(idx, &linkElement{id: newID}).collapsed(), true, nil
		}
	default:
		return nil, false, ConsistencyError{Reason: "occupied slot holds neither bucket nor link"}
	}
}

// collapsed returns n itself if n is the root (depth 0), which is never
// collapsed. For any other node it returns n itself, unless every occupied slot holds a Bucket (no
// Links survive) and the combined pair count across all of them is within
// BucketSize - in which case it returns a node with those pairs merged into
// a single Bucket at one occupied slot. A caller holding a Link to this node
// inlines that lone Bucket directly in place of the Link, discarding n
// entirely; the merged Bucket's own bit position is never consulted by that
// caller; it only reads data[0].
//
// This generalises the narrower "collapses to exactly one surviving Bucket"
// shape: splitBucket routinely scatters colliding pairs across several
// small Buckets at distinct slots, and a deletion that drops their combined
// total to BucketSize or below must merge all of them, not just the one
// slot the deletion directly touched.
func (n *Node) collapsed() *Node {
	if n.depth == 0 || len(n.data) < 2 {
		return n
	}
	total := 0
	for _, el := range n.data {
		b, ok := el.(*bucketElement)
		if !ok {
			return n
		}
		total += len(b.pairs)
	}
	if total > n.cfg.BucketSize {
		return n
	}
	merged := make([]Pair, 0, total)
	for _, el := range n.data {
		merged = append(merged, el.(*bucketElement).pairs...)
	}
	sort.Slice(merged, func(i, j int) bool {
		return bytes.Compare(merged[i].Key, merged[j].Key) < 0
	})
	bitmap := make([]byte, len(n.bitmap))
	bitmap[0] = 1
	return &Node{cfg: n.cfg, depth: n.depth, bitmap: bitmap, data: []element{&bucketElement{pairs: merged}}}
}
