package advisory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

func TestFetchTip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tips", r.URL.Path)

		var req TipRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 42, req.RecentTaps)

		json.NewEncoder(w).Encode(tipResponse{Tip: "buy the multitap"})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	tip, err := client.FetchTip(context.Background(), TipRequest{RecentTaps: 42})
	assert.NoError(t, err)
	assert.Equal(t, "buy the multitap", tip)
}

func TestFetchTip_Unconfigured(t *testing.T) {
	client := NewClient("", time.Second)

	_, err := client.FetchTip(context.Background(), TipRequest{})
	assert.Error(t, err)
}

func TestFetchTip_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	_, err := client.FetchTip(context.Background(), TipRequest{})
	assert.Error(t, err)
}
