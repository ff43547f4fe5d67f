package smsclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	received := sendRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		if received.To == "bad" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	ctx := context.Background()
	client := New(srv.URL, "key", "ORG")
	require.NoError(t, client.Send(ctx, "+966500000000", "تذكير"))
	require.Equal(t, sendRequest{Sender: "ORG", To: "+966500000000", Message: "تذكير"}, received)

	require.Error(t, client.Send(ctx, "bad", "تذكير"))
	require.ErrorIs(t, New("", "", "").Send(ctx, "1", "x"), ErrNotConfigured)
}
