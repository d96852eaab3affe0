package wsgossip_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"securechat/internal/transport/wsgossip"
)

func TestDirectSendDelivers(t *testing.T) {
	serverHub := wsgossip.New(nil)
	defer serverHub.Shutdown()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, serverHub.ServeHTTP("client-peer", w, r))
	}))
	defer server.Close()

	clientHub := wsgossip.New(nil)
	defer clientHub.Shutdown()

	address := strings.TrimPrefix(server.URL, "http://")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clientHub.Connect(ctx, "server-peer", address))

	require.NoError(t, clientHub.SendDirect(ctx, "server-peer", []byte("hello")))

	select {
	case msg := <-serverHub.Inbound():
		require.Equal(t, []byte("hello"), msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound message")
	}
}
