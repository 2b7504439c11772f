// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

package fsstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	iamt "github.com/masslbs/go-iamt"
	"github.com/masslbs/go-iamt/internal/testhelper"
	"github.com/masslbs/go-iamt/store/fsstore"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := fsstore.New(t.TempDir())
	require.NoError(t, err)

	block := []any{[]byte{0x00, 0x00}, []any{}}
	id, err := store.Save(ctx, block)
	require.NoError(t, err)

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, block, loaded)
}

func TestLoadUnknownIDFails(t *testing.T) {
	ctx := context.Background()
	storeA, err := fsstore.New(t.TempDir())
	require.NoError(t, err)
	storeB, err := fsstore.New(t.TempDir())
	require.NoError(t, err)

	id, err := storeA.Save(ctx, []any{[]byte{0x00}, []any{}})
	require.NoError(t, err)

	_, err = storeB.Load(ctx, id)
	require.Error(t, err)
}

func TestTreeLifecycleThroughFsstore(t *testing.T) {
	ctx := context.Background()
	store, err := fsstore.New(t.TempDir())
	require.NoError(t, err)

	rootID, err := iamt.Create(ctx, store, iamt.Options{HashAlg: iamt.HashSHA2_256, BucketSize: 3})
	require.NoError(t, err)

	const n = 50
	for i := 0; i < n; i++ {
		rootID, err = iamt.Set(ctx, store, rootID, testhelper.TestKey(i), testhelper.TestValue(i))
		require.NoError(t, err)
	}

	root, err := iamt.Load(ctx, store, rootID)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		value, ok, err := iamt.Get(ctx, store, root, testhelper.TestKey(i))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, testhelper.TestValue(i), value)
	}

	ok, err := iamt.IsInvariant(ctx, store, root)
	require.NoError(t, err)
	require.True(t, ok)
}
