package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeParamStore returns the queued errors first, one per call, then
// succeeds with key.
type fakeParamStore struct {
	calls int
	errs  []error
	key   string
}

func (f *fakeParamStore) GetParameter(_ context.Context, _ string) (string, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return f.key, nil
}

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":"` + content + `"}}]}`))
	}))
}

func TestChat_ReturnsFirstChoice(t *testing.T) {
	server := completionServer(t, "hello")
	defer server.Close()

	ps := &fakeParamStore{key: "sk-test"}
	client, err := NewClient(ps, "/algoitny/test", WithBaseURL(server.URL))
	require.NoError(t, err)

	content, err := client.Chat(context.Background(), "gpt-4o", []ChatMessage{
		{Role: RoleUser, Content: "hi"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

func TestChat_RetriesKeyFetchAfterTransientFailure(t *testing.T) {
	server := completionServer(t, "ok")
	defer server.Close()

	ps := &fakeParamStore{
		key:  "sk-test",
		errs: []error{errors.New("ssm: throttled")},
	}
	client, err := NewClient(ps, "/algoitny/test", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), "gpt-4o", nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")

	// The failed fetch must not be cached; the next call goes back to the
	// parameter store and succeeds.
	content, err := client.Chat(context.Background(), "gpt-4o", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "ok", content)
	assert.Equal(t, 2, ps.calls)

	// A successful fetch is cached.
	_, err = client.Chat(context.Background(), "gpt-4o", nil, false)
	require.NoError(t, err)
	assert.Equal(t, 2, ps.calls)
}

func TestChat_EmptyKeyRejected(t *testing.T) {
	ps := &fakeParamStore{key: "   "}
	client, err := NewClient(ps, "/algoitny/test")
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), "gpt-4o", nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key parameter is empty")
}

func TestChat_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ps := &fakeParamStore{key: "sk-test"}
	client, err := NewClient(ps, "/algoitny/test", WithBaseURL(server.URL))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := client.Chat(context.Background(), "gpt-4o", nil, false)
		require.Error(t, err)
		var statusErr *HTTPStatusError
		assert.ErrorAs(t, err, &statusErr)
	}
	assert.Equal(t, 5, hits)

	// Breaker is open now; the upstream is not called again.
	_, err = client.Chat(context.Background(), "gpt-4o", nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, hits)
}
