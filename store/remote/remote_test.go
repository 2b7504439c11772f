// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

package remote_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/masslbs/go-iamt/store/remote"
)

// newBlockServer is a minimal GET/PUT /blocks/{cid} server, enough to
// exercise remote.Store without a real IPFS-compatible daemon.
func newBlockServer(t *testing.T) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	blocks := make(map[string][]byte)

	mux := http.NewServeMux()
	mux.HandleFunc("/blocks/", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/blocks/")
		switch r.Method {
		case http.MethodPut:
			data, err := io.ReadAll(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			mu.Lock()
			blocks[key] = data
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			mu.Lock()
			data, ok := blocks[key]
			mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write(data)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	return httptest.NewServer(mux)
}

func multiaddrFor(t *testing.T, server *httptest.Server) string {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	host := u.Hostname()
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return "/ip4/" + host + "/tcp/" + strconv.Itoa(port)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	server := newBlockServer(t)
	defer server.Close()

	store, err := remote.New(multiaddrFor(t, server))
	require.NoError(t, err)

	ctx := context.Background()
	block := []any{[]byte{0x00, 0x00}, []any{}}
	id, err := store.Save(ctx, block)
	require.NoError(t, err)

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, block, loaded)
}

func TestLoadMissingReturnsNotFound(t *testing.T) {
	serverA := newBlockServer(t)
	defer serverA.Close()
	serverB := newBlockServer(t)
	defer serverB.Close()

	storeA, err := remote.New(multiaddrFor(t, serverA))
	require.NoError(t, err)
	storeB, err := remote.New(multiaddrFor(t, serverB))
	require.NoError(t, err)
	ctx := context.Background()

	id, err := storeA.Save(ctx, []any{[]byte{0x00}, []any{}})
	require.NoError(t, err)

	_, err = storeB.Load(ctx, id)
	require.Error(t, err)
	require.IsType(t, remote.NotFoundError{}, err)
}
