// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

// Package remote is an iamt.Store backed by a plain HTTP block server,
// addressed via a multiaddr (IPFS_API_PATH-style, parsed with
// multiaddr.NewMultiaddr). Rather than talking to a daemon through kubo's
// full RPC client, this adapter speaks a minimal content-addressed block
// protocol directly over net/http - GET/PUT /blocks/{cid} - since nothing
// in this module needs kubo's much larger surface (pinning, DAG walking,
// pubsub) just to fetch and store single blocks (see DESIGN.md's
// dropped-dependency entry for kubo).
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multiaddr"

	iamtcbor "github.com/masslbs/go-iamt/cbor"
)

// NotFoundError is returned by Load when the server responds 404 for id.
type NotFoundError struct {
	ID cid.Cid
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("remote: no block for %s", e.ID)
}

// ServerError is returned when the server responds with an unexpected
// status code.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e ServerError) Error() string {
	return fmt.Sprintf("remote: server returned %d: %s", e.StatusCode, e.Body)
}

// Store is an iamt.Store that PUTs and GETs CBOR-encoded blocks against an
// HTTP server, keyed by the CID of their canonical bytes.
type Store struct {
	baseURL string
	client  *http.Client
	prefix  cid.Prefix
}

// New parses addr (e.g. "/dns4/blocks.example.com/tcp/443" or
// "/ip4/127.0.0.1/tcp/8080") into the base URL of a block server.
func New(addr string) (*Store, error) {
	ma, err := multiaddr.NewMultiaddr(addr)
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	base, err := httpBaseURL(ma)
	if err != nil {
		return nil, err
	}
	return &Store{
		baseURL: base,
		client:  http.DefaultClient,
		prefix: cid.Prefix{
			Version:  1,
			Codec:    cid.DagCBOR,
			MhType:   multihashSHA2_256,
			MhLength: -1,
		},
	}, nil
}

// multihashSHA2_256 mirrors multihash.SHA2_256 (0x12) without importing the
// whole multihash package just for one constant this package never looks
// up by name elsewhere.
const multihashSHA2_256 = 0x12

// Save canonically encodes node and PUTs it to the server under the CID
// of its bytes.
func (s *Store) Save(ctx context.Context, node any) (any, error) {
	raw, err := iamtcbor.Marshal(node)
	if err != nil {
		return nil, err
	}
	id, err := s.prefix.Sum(raw)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.blockURL(id), bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return nil, ServerError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return id, nil
}

// Load GETs the block named by id, which may be a cid.Cid (as returned by
// Save) or its binary-marshaled []byte form (as decoded out of a parent
// node's Link element).
func (s *Store) Load(ctx context.Context, id any) (any, error) {
	c, err := asCid(id)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.blockURL(c), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, NotFoundError{ID: c}
	}
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return nil, ServerError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var decoded any
	if err := iamtcbor.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// IsEqual reports whether a and b name the same CID.
func (s *Store) IsEqual(a, b any) bool {
	ca, errA := asCid(a)
	cb, errB := asCid(b)
	return errA == nil && errB == nil && ca.Equals(cb)
}

// IsLink reports whether v is the []byte form a CID decodes to.
func (s *Store) IsLink(v any) bool {
	_, ok := v.([]byte)
	return ok
}

func (s *Store) blockURL(id cid.Cid) string {
	return fmt.Sprintf("%s/blocks/%s", s.baseURL, id.String())
}

func asCid(id any) (cid.Cid, error) {
	switch v := id.(type) {
	case cid.Cid:
		return v, nil
	case []byte:
		return cid.Cast(v)
	default:
		return cid.Undef, fmt.Errorf("remote: identifier of unexpected type %T", id)
	}
}

// httpBaseURL extracts an "http://host:port" base URL from a multiaddr
// built from dns4/ip4/ip6 and tcp components.
func httpBaseURL(ma multiaddr.Multiaddr) (string, error) {
	var host string
	var err error
	for _, proto := range []int{multiaddr.P_DNS4, multiaddr.P_DNS6, multiaddr.P_IP4, multiaddr.P_IP6} {
		host, err = ma.ValueForProtocol(proto)
		if err == nil {
			break
		}
	}
	if host == "" {
		return "", fmt.Errorf("remote: no dns4/dns6/ip4/ip6 component in %s", ma)
	}
	port, err := ma.ValueForProtocol(multiaddr.P_TCP)
	if err != nil {
		return "", fmt.Errorf("remote: no tcp component in %s: %w", ma, err)
	}
	return fmt.Sprintf("http://%s:%s", host, port), nil
}
