// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

// tester reads a CBOR-encoded node (root or non-root form) from stdin and
// checks that re-encoding what it decoded produces byte-identical output,
// the same canonicalisation property a tree's serialisation must hold.
package main

import (
	"bytes"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	iamtcbor "github.com/masslbs/go-iamt/cbor"
)

func main() {
	var useHex bool
	flag.BoolVar(&useHex, "hex", false, "decode hex")
	flag.Parse()

	data, err := io.ReadAll(os.Stdin)
	check(err)

	if useHex {
		data, err = hex.DecodeString(string(data))
		check(err)
	}

	var obj interface{}
	err = iamtcbor.Unmarshal(data, &obj)
	check(err)

	out, err := iamtcbor.Marshal(obj)
	check(err)

	if bytes.Equal(data, out) {
		fmt.Println("round trip ok")
		return
	}

	fmt.Println("round trip failed")
	fmt.Println("original:", hex.EncodeToString(data))
	fmt.Println("encoded: ", hex.EncodeToString(out))

	minLen := min(len(out), len(data))
	for i := 0; i < minLen; i++ {
		if data[i] != out[i] {
			fmt.Printf("first difference at position %d: original=0x%02x, encoded=0x%02x\n",
				i, data[i], out[i])
			break
		}
	}
	if len(data) != len(out) {
		fmt.Printf("length mismatch: original=%d, encoded=%d\n", len(data), len(out))
	}
	os.Exit(1)
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
