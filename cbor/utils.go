// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

// Package cbor provides the canonical CBOR encoding/decoding used for every
// node persisted by this module. Canonical encoding is what lets two
// structurally-identical trees serialise to byte-identical output:
//
//   - canonical encoding rules (deterministic map key and bitmap ordering)
//   - big.Int values converted to integers when they fit
//   - byte-string unmarshaling for types implementing
//     encoding.BinaryMarshaler/Unmarshaler, so an opaque Link identifier
//     (e.g. a cid.Cid) round-trips without a bespoke CBOR tag
//
// Unlike a general-purpose codec, this package has no opinion on time
// values: nothing in a tree's wire form carries a timestamp, so there is
// no RFC3339/tag configuration to get wrong.
package cbor

import (
	"bytes"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// DefaultDecoder returns a new decoder for the given reader.
func DefaultDecoder(rd io.Reader) cbor.Decoder {
	opts := cbor.DecOptions{
		BinaryUnmarshaler: cbor.BinaryUnmarshalerByteString,
	}
	mode, err := opts.DecMode()
	check(err)
	return *mode.NewDecoder(rd)
}

// Unmarshal unmarshals the given data into the given value.
func Unmarshal(data []byte, v interface{}) error {
	dec := DefaultDecoder(bytes.NewReader(data))
	return dec.Decode(v)
}

// DefaultEncoder returns a new encoder for the given writer.
func DefaultEncoder(w io.Writer) *cbor.Encoder {
	opts := cbor.CanonicalEncOptions()
	opts.BigIntConvert = cbor.BigIntConvertShortest
	mode, err := opts.EncMode()
	check(err)
	return mode.NewEncoder(w)
}

// Marshal marshals the given value into a byte slice.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := DefaultEncoder(&buf)
	err := enc.Encode(v)
	return buf.Bytes(), err
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
