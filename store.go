// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

package iamt

import "context"

// Store is the backing collaborator every node is persisted to and loaded
// from. Identifiers are opaque to the core - it never inspects them beyond
// passing them to IsEqual/IsLink and threading them back into Load. A Store
// is assumed append-only: "deleting" a key never removes an old node, it
// only produces a new root that no longer references it.
//
// All four operations may block on I/O; ctx is forwarded verbatim so a
// caller's cancellation propagates into the store exactly at the point the
// core is waiting on it.
type Store interface {
	// Save persists a node in its serialisable form and returns the
	// identifier the store assigned it.
	Save(ctx context.Context, node any) (id any, err error)

	// Load fetches the serialisable form previously returned by Save for
	// id. It must return an error if id is not present in the store.
	Load(ctx context.Context, id any) (node any, err error)

	// IsEqual reports whether two identifiers name the same stored node.
	// Implementations backed by content-addressing (e.g. a CID) can do
	// this with a plain equality check; others may need to dereference.
	IsEqual(a, b any) bool

	// IsLink decides whether an arbitrary decoded element of a node is a
	// Link (an opaque identifier) as opposed to a Bucket (a [][2]any
	// shape of key/value pairs). It must never return true for the
	// Bucket shape.
	IsLink(v any) bool
}
