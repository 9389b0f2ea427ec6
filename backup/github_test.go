package backup

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putBody struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch"`
}

func newTestPusher(t *testing.T, handler http.Handler) *Pusher {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewPusher("token", "acme/records", "main")
	require.NoError(t, err)
	p, err = p.WithBaseURL(server.URL)
	require.NoError(t, err)
	return p
}

func TestPushCreatesMissingFile(t *testing.T) {
	var got putBody
	p := newTestPusher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/records/contents/User_Data.xlsx", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "main", r.URL.Query().Get("ref"))
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Not Found"}`)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"content":{"html_url":"https://github.com/acme/records/blob/main/User_Data.xlsx"}}`)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))

	url, err := p.Push(context.Background(), "User_Data.xlsx", []byte("a,b\n"), "Update User Data")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/records/blob/main/User_Data.xlsx", url)

	assert.Equal(t, "Update User Data", got.Message)
	assert.Empty(t, got.SHA)
	assert.Equal(t, "main", got.Branch)
	decoded, err := base64.StdEncoding.DecodeString(got.Content)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(decoded))
}

func TestPushUpdatesExistingFile(t *testing.T) {
	var got putBody
	p := newTestPusher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"type":"file","name":"User_Data.xlsx","path":"User_Data.xlsx","sha":"abc123"}`)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = io.WriteString(w, `{"content":{"html_url":"https://example/blob"}}`)
		}
	}))

	url, err := p.Push(context.Background(), "User_Data.xlsx", []byte("x"), "msg")
	require.NoError(t, err)
	assert.Equal(t, "https://example/blob", url)
	assert.Equal(t, "abc123", got.SHA)
}

func TestPushReadFailure(t *testing.T) {
	p := newTestPusher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Bad credentials"}`)
	}))

	_, err := p.Push(context.Background(), "User_Data.xlsx", []byte("x"), "msg")
	assert.ErrorContains(t, err, "reading User_Data.xlsx")
}

func TestNewPusherValidation(t *testing.T) {
	_, err := NewPusher("", "a/b", "")
	assert.ErrorIs(t, err, ErrNoToken)

	for _, repo := range []string{"", "nameonly", "/x", "a/b/c"} {
		_, err := NewPusher("t", repo, "")
		assert.Error(t, err, repo)
	}
}
