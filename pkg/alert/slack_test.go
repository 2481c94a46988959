package alert

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlackSinkPostsMessage(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1234.5678"}`))
	}))
	defer srv.Close()

	sink := NewSlackSinkWithAPIURL("xoxb-test", "C123", srv.URL+"/")
	err := sink.Dispatch(sampleAlert())
	require.NoError(t, err)
	assert.Contains(t, gotPath, "chat.postMessage")
}

func TestSlackSinkReturnsErrorOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	sink := NewSlackSinkWithAPIURL("xoxb-test", "C123", srv.URL+"/")
	err := sink.Dispatch(sampleAlert())
	assert.Error(t, err) // caller logs and swallows
}
