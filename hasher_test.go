// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

package iamt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultHashersAreRegistered(t *testing.T) {
	r := require.New(t)
	for _, alg := range []uint64{HashIdentity, HashSHA2_256, HashMurmur3, HashXXHash64} {
		_, ok := lookupHasher(alg)
		r.True(ok, "hashAlg %#x should be pre-registered", alg)
	}
}

func TestHashKeyAtFixedLengthAlgorithms(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	digest, err := hashKeyAt(ctx, HashSHA2_256, []byte("hello"))
	r.NoError(err)
	r.Len(digest, 32)

	digest, err = hashKeyAt(ctx, HashXXHash64, []byte("hello"))
	r.NoError(err)
	r.Len(digest, 8)

	digest, err = hashKeyAt(ctx, HashMurmur3, []byte("hello"))
	r.NoError(err)
	r.Len(digest, 4)
}

func TestHashKeyAtIdentityIsVariableLength(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	short, err := hashKeyAt(ctx, HashIdentity, []byte("ab"))
	r.NoError(err)
	r.Equal([]byte("ab"), short)

	long, err := hashKeyAt(ctx, HashIdentity, []byte("a much longer key than before"))
	r.NoError(err)
	r.Len(long, len("a much longer key than before"))
}

func TestMaxDepthForTracksActualDigestLength(t *testing.T) {
	r := require.New(t)
	// identity hash of a 2-byte key under bitWidth 8 can only address 2 levels
	r.Equal(2, maxDepthFor(8, 2))
	// the same bitWidth with a 32-byte SHA-256 digest addresses 32 levels
	r.Equal(32, maxDepthFor(8, 32))
}

func TestHashKeyAtUnregisteredAlgFails(t *testing.T) {
	ctx := context.Background()
	_, err := hashKeyAt(ctx, 0xdeadbeef, []byte("x"))
	require.Error(t, err)
	require.IsType(t, HashAlgUnregisteredError{}, err)
}

func TestRegisterHasherRejectsNilFunc(t *testing.T) {
	err := RegisterHasher(0x9999, 4, nil)
	require.Error(t, err)
	require.IsType(t, ConfigError{}, err)
}

func TestRegisterHasherAllowsCustomAlgorithm(t *testing.T) {
	r := require.New(t)
	const customAlg = 0x300001
	err := RegisterHasher(customAlg, 2, func(_ context.Context, key []byte) ([]byte, error) {
		return []byte{key[0], 0}, nil
	})
	r.NoError(err)

	digest, err := hashKeyAt(context.Background(), customAlg, []byte("zz"))
	r.NoError(err)
	r.Equal([]byte{'z', 0}, digest)
}

func TestHashKeyAtMismatchedLengthIsConsistencyError(t *testing.T) {
	r := require.New(t)
	const badAlg = 0x300002
	require.NoError(t, RegisterHasher(badAlg, 4, func(_ context.Context, key []byte) ([]byte, error) {
		return []byte{0x01}, nil // always 1 byte, registered as 4
	}))

	_, err := hashKeyAt(context.Background(), badAlg, []byte("x"))
	r.Error(err)
	r.IsType(ConsistencyError{}, err)
}
