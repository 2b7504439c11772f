// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

package iamt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitWidthFromBitmapLenRoundTrips(t *testing.T) {
	r := require.New(t)
	for w := uint(3); w <= 16; w++ {
		got, ok := bitWidthFromBitmapLen(bitmapLen(w))
		r.True(ok)
		r.Equal(w, got)
	}
}

func TestBitWidthFromBitmapLenRejectsUnsupportedLength(t *testing.T) {
	_, ok := bitWidthFromBitmapLen(3)
	require.False(t, ok)
}

func TestIsSerializableNonRootTuple(t *testing.T) {
	r := require.New(t)
	r.True(IsSerializable([]any{[]byte{0x00}, []any{}}))
	r.False(IsSerializable([]any{"not-bytes", []any{}}))
	r.False(IsSerializable([]any{[]byte{0x00}}))
	r.False(IsSerializable("garbage"))
}

func TestIsRootSerializableMapForm(t *testing.T) {
	r := require.New(t)
	good := map[string]any{
		"hashAlg":    uint64(HashSHA2_256),
		"bucketSize": 5,
		"hamt":       []any{[]byte{0x00}, []any{}},
	}
	r.True(IsRootSerializable(good))
	r.True(IsSerializable(good))

	missingField := map[string]any{
		"hashAlg": uint64(HashSHA2_256),
		"hamt":    []any{[]byte{0x00}, []any{}},
	}
	r.False(IsRootSerializable(missingField))
}

func TestIsRootSerializableTypedForm(t *testing.T) {
	r := require.New(t)
	root := wireRoot{HashAlg: HashSHA2_256, BucketSize: 5, Hamt: []any{[]byte{0x00}, []any{}}}
	r.True(IsRootSerializable(root))
	r.True(IsRootSerializable(&root))
}
