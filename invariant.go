// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

package iamt

import (
	"bytes"
	"context"
)

// IsInvariant walks every node reachable from root and checks the
// structural invariants a well-formed tree must hold:
//
//   - the bitmap's popcount matches the element count;
//   - every bucket holds 1..=BucketSize pairs, sorted and unique by key;
//   - a non-root node is never collapsible: it is never the case that every
//     occupied slot holds a Bucket (no Links survive) and the combined pair
//     count across those Buckets is within BucketSize. That covers a
//     node with zero occupied slots (only the root may be empty), a node
//     with exactly one Bucket slot, and the more general case of several
//     small Buckets - left at distinct slots after a split - whose total
//     has since dropped to BucketSize or below; in every one of those
//     shapes the parent should have merged and inlined the result instead
//     of leaving a Link to this node.
//
// It returns (false, nil) for a structural violation and (false, err) if
// the store itself failed - callers that only care "is this tree sound"
// can collapse both into a single boolean, but the distinction matters
// for diagnosing I/O failures versus data corruption.
func IsInvariant(ctx context.Context, store Store, root *Node) (bool, error) {
	return root.checkInvariant(ctx, store, true)
}

func (n *Node) checkInvariant(ctx context.Context, store Store, isRoot bool) (bool, error) {
	if len(n.bitmap) != bitmapLen(n.cfg.BitWidth) {
		return false, nil
	}
	if popcount(n.bitmap) != len(n.data) {
		return false, nil
	}
	if !isRoot {
		if total, allBuckets := bucketEntryTotal(n.data); allBuckets && total <= n.cfg.BucketSize {
			return false, nil
		}
	}
	for _, el := range n.data {
		switch v := el.(type) {
		case *bucketElement:
			if !bucketWellFormed(v, n.cfg.BucketSize) {
				return false, nil
			}
		case *linkElement:
			child, err := loadNode(ctx, store, n.cfg, n.depth+1, v.id)
			if err != nil {
				return false, err
			}
			ok, err := child.checkInvariant(ctx, store, false)
			if err != nil || !ok {
				return false, err
			}
		default:
			return false, nil
		}
	}
	return true, nil
}

// bucketEntryTotal sums pair counts across data and reports whether every
// element is a Bucket (ok is false as soon as any element is a Link, at
// which point the total is meaningless - a Link's subtree can't be folded
// into a flat count without traversing it).
func bucketEntryTotal(data []element) (total int, ok bool) {
	for _, el := range data {
		b, isBucket := el.(*bucketElement)
		if !isBucket {
			return 0, false
		}
		total += len(b.pairs)
	}
	return total, true
}

func bucketWellFormed(b *bucketElement, bucketSize int) bool {
	if len(b.pairs) == 0 || len(b.pairs) > bucketSize {
		return false
	}
	for i := 1; i < len(b.pairs); i++ {
		if bytes.Compare(b.pairs[i-1].Key, b.pairs[i].Key) >= 0 {
			return false
		}
	}
	return true
}
