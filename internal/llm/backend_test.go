package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOp_AlwaysErrors(t *testing.T) {
	var b NoOp
	_, err := b.Complete(context.Background(), "anything")
	assert.Error(t, err)
}

func TestHTTPBackend_ReturnsCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionResponse{Completion: "reduce WOB by 3klbs"})
	}))
	defer server.Close()

	b := NewHTTPBackend(server.URL, time.Second)
	out, err := b.Complete(context.Background(), "what should I do")
	require.NoError(t, err)
	assert.Equal(t, "reduce WOB by 3klbs", out)
}

func TestHTTPBackend_TripsBreakerAfterRepeatedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	b := NewHTTPBackend(server.URL, time.Second)
	for i := 0; i < 3; i++ {
		_, err := b.Complete(context.Background(), "prompt")
		assert.Error(t, err)
	}

	_, err := b.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackendTimeout)
}
