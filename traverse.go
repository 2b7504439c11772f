// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

package iamt

import "context"

// Entry is one (key, value) pair yielded while enumerating a tree.
type Entry struct {
	Key   []byte
	Value []byte
}

// walk depth-first visits every Bucket reachable from n, in bitmap order at
// every level. This makes enumeration order deterministic for a given
// tree, independent of insertion history, since it follows from the
// canonical bitmap ordering rather than any extra bookkeeping.
func (n *Node) walk(ctx context.Context, store Store, visit func(*bucketElement) error) error {
	for _, el := range n.data {
		switch v := el.(type) {
		case *bucketElement:
			if err := visit(v); err != nil {
				return err
			}
		case *linkElement:
			child, err := loadNode(ctx, store, n.cfg, n.depth+1, v.id)
			if err != nil {
				return err
			}
			if err := child.walk(ctx, store, visit); err != nil {
				return err
			}
		default:
			return ConsistencyError{Reason: "occupied slot holds neither bucket nor link"}
		}
	}
	return nil
}

// Size returns the number of distinct keys reachable from root. It is
// computed by full traversal rather than maintained incrementally: a node
// carries only its bitmap and elements, no counters of its own, so
// counting is always an explicit O(n) walk.
func Size(ctx context.Context, store Store, root *Node) (int, error) {
	count := 0
	err := root.walk(ctx, store, func(b *bucketElement) error {
		count += len(b.pairs)
		return nil
	})
	return count, err
}

// Keys returns every key reachable from root, in enumeration order.
func Keys(ctx context.Context, store Store, root *Node) ([][]byte, error) {
	var keys [][]byte
	err := root.walk(ctx, store, func(b *bucketElement) error {
		for _, p := range b.pairs {
			keys = append(keys, p.Key)
		}
		return nil
	})
	return keys, err
}

// Values returns every value reachable from root, in enumeration order.
func Values(ctx context.Context, store Store, root *Node) ([][]byte, error) {
	var values [][]byte
	err := root.walk(ctx, store, func(b *bucketElement) error {
		for _, p := range b.pairs {
			values = append(values, p.Value)
		}
		return nil
	})
	return values, err
}

// Entries returns every (key, value) pair reachable from root, in
// enumeration order.
func Entries(ctx context.Context, store Store, root *Node) ([]Entry, error) {
	var entries []Entry
	err := root.walk(ctx, store, func(b *bucketElement) error {
		for _, p := range b.pairs {
			entries = append(entries, Entry{Key: p.Key, Value: p.Value})
		}
		return nil
	})
	return entries, err
}

// IDs returns the identifier of every node reachable from root, including
// root's own id, in depth-first bitmap order. Callers use this as the
// enumeration surface for store maintenance (e.g. mark-and-sweep garbage
// collection, or the Diff utility) - pruning what to keep or discard is a
// caller concern, not something this package decides.
func IDs(ctx context.Context, store Store, rootID any, root *Node) ([]any, error) {
	ids := []any{rootID}
	err := root.collectIDs(ctx, store, &ids)
	return ids, err
}

func (n *Node) collectIDs(ctx context.Context, store Store, ids *[]any) error {
	for _, el := range n.data {
		link, ok := el.(*linkElement)
		if !ok {
			continue
		}
		*ids = append(*ids, link.id)
		child, err := loadNode(ctx, store, n.cfg, n.depth+1, link.id)
		if err != nil {
			return err
		}
		if err := child.collectIDs(ctx, store, ids); err != nil {
			return err
		}
	}
	return nil
}
