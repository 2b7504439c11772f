// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

package iamt

import (
	"bytes"
	"context"
)

// KeyChange describes how a single key's binding differs between two
// trees.
type KeyChange struct {
	Key string
	// Old is nil when the key was added; New is nil when the key was
	// removed. Both are set, and differ, when the key's value changed.
	Old []byte
	New []byte
}

// Diff compares the trees rooted at idA and idB and reports every key
// whose binding differs. It is a caller-facing convenience built directly
// on the enumeration surface (Load/Entries) rather than a dedicated
// algorithm: this package makes no attempt at a structural shortcut (e.g.
// skipping subtrees two roots share via identical Link identifiers), since Store
// implementations are free to assign identifiers however they like and
// the two trees being compared need not even share a Store's notion of
// identity for unrelated subtrees. A caller that knows more about its own
// Store (e.g. content-addressed identifiers that are byte-equal across
// trees) can implement that shortcut itself on top of IDs.
func Diff(ctx context.Context, store Store, idA, idB any) ([]KeyChange, error) {
	rootA, err := Load(ctx, store, idA)
	if err != nil {
		return nil, err
	}
	rootB, err := Load(ctx, store, idB)
	if err != nil {
		return nil, err
	}

	entriesA, err := Entries(ctx, store, rootA)
	if err != nil {
		return nil, err
	}
	entriesB, err := Entries(ctx, store, rootB)
	if err != nil {
		return nil, err
	}

	valuesA := make(map[string][]byte, len(entriesA))
	for _, e := range entriesA {
		valuesA[string(e.Key)] = e.Value
	}
	valuesB := make(map[string][]byte, len(entriesB))
	for _, e := range entriesB {
		valuesB[string(e.Key)] = e.Value
	}

	var changes []KeyChange
	for k, v := range valuesA {
		if other, ok := valuesB[k]; !ok {
			changes = append(changes, KeyChange{Key: k, Old: v})
		} else if !bytes.Equal(v, other) {
			changes = append(changes, KeyChange{Key: k, Old: v, New: other})
		}
	}
	for k, v := range valuesB {
		if _, ok := valuesA[k]; !ok {
			changes = append(changes, KeyChange{Key: k, New: v})
		}
	}
	return changes, nil
}
