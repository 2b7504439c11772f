// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

// iamtdemo is a small CLI driver over a tree stored on disk, useful for
// poking at a tree by hand without writing a Go program against the
// package directly.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ipfs/go-cid"

	iamt "github.com/masslbs/go-iamt"
	"github.com/masslbs/go-iamt/store/fsstore"
)

const rootFile = "iamtdemo-root.cid"

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	dir := os.Getenv("IAMT_DEMO_DIR")
	if dir == "" {
		dir = "/tmp/iamtdemo"
	}
	store, err := fsstore.New(dir)
	check(err)

	ctx := context.Background()

	switch os.Args[1] {
	case "init":
		initTree(ctx, store)
	case "set":
		requireArgs(4)
		setKey(ctx, store, os.Args[2], os.Args[3])
	case "get":
		requireArgs(3)
		getKey(ctx, store, os.Args[2])
	case "delete":
		requireArgs(3)
		deleteKey(ctx, store, os.Args[2])
	case "stat":
		stat(ctx, store)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("usage: iamtdemo init|set <key> <value>|get <key>|delete <key>|stat")
	os.Exit(1)
}

func requireArgs(n int) {
	if len(os.Args) < n {
		usage()
	}
}

func initTree(ctx context.Context, store *fsstore.Store) {
	rootID, err := iamt.Create(ctx, store, iamt.Options{HashAlg: iamt.HashSHA2_256})
	check(err)
	check(writeRoot(rootID))
	fmt.Printf("root: %s\n", rootID)
}

func setKey(ctx context.Context, store *fsstore.Store, key, value string) {
	rootID := readRoot()
	newRoot, err := iamt.Set(ctx, store, rootID, []byte(key), []byte(value))
	check(err)
	check(writeRoot(newRoot))
	fmt.Printf("root: %s\n", newRoot)
}

func getKey(ctx context.Context, store *fsstore.Store, key string) {
	root, err := iamt.Load(ctx, store, readRoot())
	check(err)
	value, ok, err := iamt.Get(ctx, store, root, []byte(key))
	check(err)
	if !ok {
		fmt.Println("(not found)")
		return
	}
	fmt.Println(string(value))
}

func deleteKey(ctx context.Context, store *fsstore.Store, key string) {
	rootID := readRoot()
	newRoot, removed, err := iamt.Delete(ctx, store, rootID, []byte(key))
	check(err)
	check(writeRoot(newRoot))
	fmt.Printf("removed: %v, root: %s\n", removed, newRoot)
}

func stat(ctx context.Context, store *fsstore.Store) {
	root, err := iamt.Load(ctx, store, readRoot())
	check(err)
	size, err := iamt.Size(ctx, store, root)
	check(err)
	ok, err := iamt.IsInvariant(ctx, store, root)
	check(err)
	fmt.Printf("size: %d, invariant: %v\n", size, ok)
}

func readRoot() cid.Cid {
	raw, err := os.ReadFile(rootFile)
	check(err)
	c, err := cid.Decode(string(raw))
	check(err)
	return c
}

func writeRoot(id any) error {
	c, ok := id.(cid.Cid)
	if !ok {
		return fmt.Errorf("iamtdemo: unexpected root identifier type %T", id)
	}
	return os.WriteFile(rootFile, []byte(c.String()), 0o644)
}

func check(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "iamtdemo:", err)
		os.Exit(1)
	}
}
