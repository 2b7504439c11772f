// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

package iamt

import "bytes"

// Pair is one key/value entry inside a Bucket.
type Pair struct {
	Key   []byte
	Value []byte
}

// element is the sum type stored at each occupied slot of a node: either a
// sorted bucket of key/value pairs or a link to a child node one level
// deeper. Exactly one of isBucket()/isLink() is true for any element - the
// interface, rather than a pair of optional fields, is what enforces that
// a slot never holds both a Bucket and a Link.
type element interface {
	isBucket() bool
	isLink() bool
}

// bucketElement holds 1..=bucketSize key/value pairs, sorted by Key bytes.
type bucketElement struct {
	pairs []Pair
}

func (bucketElement) isBucket() bool { return true }
func (bucketElement) isLink() bool   { return false }

// linkElement holds an opaque, store-defined identifier for a child node.
type linkElement struct {
	id any
}

func (linkElement) isBucket() bool { return false }
func (linkElement) isLink() bool   { return true }

// findInBucket does a linear, byte-equal scan for key. It returns the index
// within the bucket and true if found.
func findInBucket(b *bucketElement, key []byte) (int, bool) {
	for i, p := range b.pairs {
		if bytes.Equal(p.Key, key) {
			return i, true
		}
	}
	return -1, false
}

// sortedInsert returns a new, sorted slice of pairs with (key, value)
// inserted. It does not check for an existing key - callers (node.set) must
// have already ruled that out.
func sortedInsert(pairs []Pair, key, value []byte) []Pair {
	out := make([]Pair, 0, len(pairs)+1)
	inserted := false
	for _, p := range pairs {
		if !inserted && bytes.Compare(key, p.Key) < 0 {
			out = append(out, Pair{Key: key, Value: value})
			inserted = true
		}
		out = append(out, p)
	}
	if !inserted {
		out = append(out, Pair{Key: key, Value: value})
	}
	return out
}

// withReplacedValue returns a new slice of pairs with the entry at index i
// carrying value instead of its previous value. Sort order is unaffected
// since the key is unchanged.
func withReplacedValue(pairs []Pair, i int, value []byte) []Pair {
	out := make([]Pair, len(pairs))
	copy(out, pairs)
	out[i] = Pair{Key: out[i].Key, Value: value}
	return out
}

// withoutIndex returns a new slice of pairs with the entry at index i
// removed.
func withoutIndex(pairs []Pair, i int) []Pair {
	out := make([]Pair, 0, len(pairs)-1)
	out = append(out, pairs[:i]...)
	out = append(out, pairs[i+1:]...)
	return out
}
