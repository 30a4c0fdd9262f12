package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comigor/jack-go/internal/chat"
	"github.com/comigor/jack-go/internal/config"
	"github.com/comigor/jack-go/internal/history"
	"github.com/comigor/jack-go/pkg/gateway"
)

func TestRepl(t *testing.T) {
	var asked atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		asked.Add(1)
		w.Write([]byte(`{"answer":"X is...","sources":[{"id":"r1","title":"Doc1","url":"https://x/doc1.pdf"}]}`))
	}))
	defer srv.Close()
	client = gateway.NewClient(config.APIConfig{BaseURL: srv.URL, Timeout: time.Second})
	t.Cleanup(func() { client = nil })

	session := chat.NewSession(client, history.New(), gateway.EndpointAsk)
	in := strings.NewReader("What is X?\n\n/new\n/quit\nignored\n")
	var out bytes.Buffer

	require.NoError(t, repl(context.Background(), session, in, &out))
	require.EqualValues(t, 1, asked.Load())
	require.True(t, session.Landing())

	got := out.String()
	require.Contains(t, got, "X is...")
	require.Contains(t, got, "[1] Doc1 (pdf)")
	require.Contains(t, got, srv.URL+"/resources/r1/file")
	require.Contains(t, got, "Started a new chat.")
}

func TestRepl_FailurePrintsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"index unavailable"}`))
	}))
	defer srv.Close()
	client = gateway.NewClient(config.APIConfig{BaseURL: srv.URL, Timeout: time.Second})
	t.Cleanup(func() { client = nil })

	session := chat.NewSession(client, history.New(), "")
	var out bytes.Buffer
	require.NoError(t, repl(context.Background(), session, strings.NewReader("q\n"), &out))
	require.Contains(t, out.String(), chat.FailurePreamble)
	require.Contains(t, out.String(), "index unavailable")
}
