package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/owner"
	"testing"

	"github.com/r3labs/sse/v2"
	"github.com/stretchr/testify/assert"
)

func newSseServer() *sse.Server {
	server := sse.New()
	server.AutoStream = true
	server.AutoReplay = false
	return server
}

func TestEventsHandlerRejectsRequests(t *testing.T) {
	validToken := string(owner.FakeStreamTokens{}.GenerateStreamToken("a@x.com"))

	cases := []struct {
		name           string
		url            string
		expectedStatus int
	}{
		{name: "missing owner", url: "/events?token=" + validToken, expectedStatus: http.StatusBadRequest},
		{name: "missing token", url: "/events?owner=a@x.com", expectedStatus: http.StatusUnauthorized},
		{name: "foreign token", url: "/events?owner=b@x.com&token=" + validToken, expectedStatus: http.StatusUnauthorized},
	}

	for _, testcase := range cases {
		t.Run(testcase.name, func(t *testing.T) {
			// Setup ---
			handler := New(logging.NewFakeLogger(), newSseServer(), owner.FakeStreamTokens{})
			rr := httptest.NewRecorder()

			// Exercise ---
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, testcase.url, nil))

			// Verify ---
			assert.Equal(t, testcase.expectedStatus, rr.Code)
		})
	}
}

func TestEventsHandlerSubscribes(t *testing.T) {
	// Setup ---
	server := newSseServer()
	defer server.Close()
	log := logging.NewFakeLogger()
	handler := New(log, server, owner.FakeStreamTokens{})
	token := string(owner.FakeStreamTokens{}.GenerateStreamToken("a@x.com"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?owner=A@x.com&token="+token, nil).WithContext(ctx)
	rr := httptest.NewRecorder()

	// Exercise ---
	handler.ServeHTTP(rr, req)

	// Verify ---
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "owner:a@x.com", req.URL.Query().Get("stream"))
}
