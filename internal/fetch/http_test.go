package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html><body><h1>ok</h1></body></html>"))
	}))
	defer srv.Close()

	f := &HTTPFetcher{}
	html, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Contains(t, html, "<h1>ok</h1>")
	require.Equal(t, browserHeaders["User-Agent"], gotUA)
}

func TestHTTPFetcherNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := (&HTTPFetcher{}).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
}
