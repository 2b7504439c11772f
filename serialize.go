// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

package iamt

import "fmt"

// wireRoot is the root serialisable form:
//
//	{ hashAlg: integer, bucketSize: integer, hamt: [ bitmap, elements ] }
type wireRoot struct {
	HashAlg    uint64 `cbor:"hashAlg"`
	BucketSize int    `cbor:"bucketSize"`
	Hamt       []any  `cbor:"hamt"`
}

// nonRootForm builds the [bitmap, elements] tuple for a node, in compacted
// bitmap order so that two trees holding the same entries always encode
// identically.
func (n *Node) nonRootForm() ([]any, error) {
	elements := make([]any, len(n.data))
	for i, e := range n.data {
		switch v := e.(type) {
		case *bucketElement:
			rows := make([]any, len(v.pairs))
			for j, p := range v.pairs {
				rows[j] = []any{p.Key, p.Value}
			}
			elements[i] = rows
		case *linkElement:
			elements[i] = v.id
		default:
			return nil, ConsistencyError{Reason: fmt.Sprintf("unknown element type %T", e)}
		}
	}
	return []any{n.bitmap, elements}, nil
}

// toSerializable produces the form Save should persist: the root form at
// depth 0, the bare non-root tuple otherwise.
func (n *Node) toSerializable() (any, error) {
	nonRoot, err := n.nonRootForm()
	if err != nil {
		return nil, err
	}
	if n.depth != 0 {
		return nonRoot, nil
	}
	return wireRoot{
		HashAlg:    n.cfg.HashAlg,
		BucketSize: n.cfg.BucketSize,
		Hamt:       nonRoot,
	}, nil
}

// nodeFromWire reconstructs a Node from an already-decoded wire value (one
// a Store's Load returned, typically produced by unmarshaling CBOR bytes
// into `any`, or handed in directly by FromSerializable). depth
// distinguishes the root shape from non-root.
func nodeFromWire(store Store, cfg config, depth int, wire any) (*Node, error) {
	var tuple []any
	if depth == 0 {
		root, ok := asRootTuple(wire)
		if !ok {
			return nil, SerializationError{Reason: "expected root form {hashAlg, bucketSize, hamt}"}
		}
		tuple = root
	} else {
		t, ok := asSlice(wire)
		if !ok || len(t) != 2 {
			return nil, SerializationError{Reason: "expected non-root form [bitmap, elements]"}
		}
		tuple = t
	}

	bitmapRaw, ok := asBytes(tuple[0])
	if !ok {
		return nil, SerializationError{Reason: "bitmap is not a byte string"}
	}
	wantLen := bitmapLen(cfg.BitWidth)
	if len(bitmapRaw) != wantLen {
		return nil, SerializationError{Reason: fmt.Sprintf(
			"bitmap length %d does not match bitWidth %d (want %d)", len(bitmapRaw), cfg.BitWidth, wantLen)}
	}

	elementsRaw, ok := asSlice(tuple[1])
	if !ok {
		return nil, SerializationError{Reason: "elements is not an array"}
	}
	if len(elementsRaw) != popcount(bitmapRaw) {
		return nil, SerializationError{Reason: "elements length does not match bitmap popcount"}
	}

	data := make([]element, len(elementsRaw))
	for i, raw := range elementsRaw {
		el, err := decodeElement(store, raw)
		if err != nil {
			return nil, err
		}
		data[i] = el
	}

	return &Node{
		cfg:    cfg,
		depth:  depth,
		bitmap: bitmapRaw,
		data:   data,
	}, nil
}

// decodeElement turns one decoded wire element into a bucketElement or a
// linkElement, using the store's IsLink predicate to disambiguate (IsLink
// must never return true for the Bucket shape).
func decodeElement(store Store, raw any) (element, error) {
	if store.IsLink(raw) {
		return &linkElement{id: raw}, nil
	}
	rows, ok := asSlice(raw)
	if !ok {
		return nil, SerializationError{Reason: "bucket element is not an array"}
	}
	if len(rows) == 0 {
		return nil, SerializationError{Reason: "bucket element has zero entries"}
	}
	pairs := make([]Pair, len(rows))
	for i, row := range rows {
		rowSlice, ok := asSlice(row)
		if !ok || len(rowSlice) != 2 {
			return nil, SerializationError{Reason: "bucket entry is not a [key, value] pair"}
		}
		key, ok := asBytes(rowSlice[0])
		if !ok {
			return nil, SerializationError{Reason: "bucket entry key is not a byte string"}
		}
		value, ok := asBytes(rowSlice[1])
		if !ok {
			return nil, SerializationError{Reason: "bucket entry value is not a byte string"}
		}
		pairs[i] = Pair{Key: key, Value: value}
	}
	return &bucketElement{pairs: pairs}, nil
}

// The helpers below normalize the handful of shapes cbor.Unmarshal(..., *any)
// can hand back ([]byte, []any, map[any]any, or already-typed Go values
// when callers build wire values by hand instead of round-tripping through
// CBOR bytes, e.g. FromSerializable called directly in tests).

func asBytes(v any) ([]byte, bool) {
	b, ok := v.([]byte)
	return b, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

// bitWidthFromBitmapLen inverts bitmapLen: for w in [3,16], bitmapLen(w) ==
// 2^(w-3), a strictly increasing power-of-two sequence, so a root's bitmap
// byte length alone determines its bitWidth without the tree needing to
// carry a redundant field for it.
func bitWidthFromBitmapLen(length int) (uint, bool) {
	for w := uint(3); w <= 16; w++ {
		if bitmapLen(w) == length {
			return w, true
		}
	}
	return 0, false
}

// rootConfig reads the {hashAlg, bucketSize, hamt} fields off an
// already-decoded root wire value and derives the tree's full Options,
// without the caller (Load) having to already know them.
func rootConfig(wire any) (config, error) {
	hashAlg, bucketSize, hamt, ok := rootFields(wire)
	if !ok {
		return config{}, SerializationError{Reason: "expected root form {hashAlg, bucketSize, hamt}"}
	}
	if len(hamt) != 2 {
		return config{}, SerializationError{Reason: "expected non-root form [bitmap, elements]"}
	}
	bitmapRaw, ok := asBytes(hamt[0])
	if !ok {
		return config{}, SerializationError{Reason: "bitmap is not a byte string"}
	}
	bitWidth, ok := bitWidthFromBitmapLen(len(bitmapRaw))
	if !ok {
		return config{}, SerializationError{Reason: "bitmap length does not correspond to any supported bitWidth"}
	}
	cfg := Options{HashAlg: hashAlg, BitWidth: bitWidth, BucketSize: bucketSize}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func rootFields(wire any) (hashAlg uint64, bucketSize int, hamt []any, ok bool) {
	switch r := wire.(type) {
	case wireRoot:
		return r.HashAlg, r.BucketSize, r.Hamt, true
	case *wireRoot:
		return r.HashAlg, r.BucketSize, r.Hamt, true
	case map[any]any:
		return fieldsFromMap(r["hashAlg"], r["bucketSize"], r["hamt"])
	case map[string]any:
		return fieldsFromMap(r["hashAlg"], r["bucketSize"], r["hamt"])
	}
	return 0, 0, nil, false
}

func fieldsFromMap(hashAlgV, bucketSizeV, hamtV any) (uint64, int, []any, bool) {
	hashAlg, ok := asUint64(hashAlgV)
	if !ok {
		return 0, 0, nil, false
	}
	bucketSize, ok := asInt(bucketSizeV)
	if !ok {
		return 0, 0, nil, false
	}
	hamt, ok := asSlice(hamtV)
	if !ok {
		return 0, 0, nil, false
	}
	return hashAlg, bucketSize, hamt, true
}

func asUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case int64:
		return uint64(n), true
	case uint:
		return uint64(n), true
	case int:
		return uint64(n), true
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case uint:
		return int(n), true
	}
	return 0, false
}

func asRootTuple(v any) ([]any, bool) {
	switch r := v.(type) {
	case wireRoot:
		return r.Hamt, true
	case *wireRoot:
		return r.Hamt, true
	case map[any]any:
		hamt, ok := asSlice(r["hamt"])
		return hamt, ok
	case map[string]any:
		hamt, ok := asSlice(r["hamt"])
		return hamt, ok
	}
	return nil, false
}

// IsRootSerializable reports whether x has the root shape: an object with
// an integer hashAlg, an integer bucketSize, and a hamt field passing the
// node-shape test.
func IsRootSerializable(x any) bool {
	switch r := x.(type) {
	case wireRoot:
		return isNodeShape(r.Hamt)
	case *wireRoot:
		return isNodeShape(r.Hamt)
	case map[any]any:
		return hasIntField(r["hashAlg"]) && hasIntField(r["bucketSize"]) && isNodeShape(r["hamt"])
	case map[string]any:
		return hasIntField(r["hashAlg"]) && hasIntField(r["bucketSize"]) && isNodeShape(r["hamt"])
	}
	return false
}

// IsSerializable reports whether x is either root-shaped, or the bare
// [bitmap, elements] non-root tuple with a byte-string bitmap and an
// array of elements.
func IsSerializable(x any) bool {
	if IsRootSerializable(x) {
		return true
	}
	return isNodeShape(x)
}

func isNodeShape(x any) bool {
	s, ok := asSlice(x)
	if !ok || len(s) != 2 {
		return false
	}
	if _, ok := asBytes(s[0]); !ok {
		return false
	}
	_, ok = asSlice(s[1])
	return ok
}

func hasIntField(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}
