package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/apierr"
)

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{"rooms": []interface{}{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-token")
	if _, err := c.ListRooms(context.Background()); err != nil {
		t.Fatalf("listRooms: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("got Authorization %q", gotAuth)
	}
}

func TestClientStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
		name   string
	}{
		{http.StatusUnauthorized, apierr.IsAuth, "AuthError"},
		{http.StatusForbidden, func(err error) bool {
			var pe *apierr.PermissionError
			return errors.As(err, &pe)
		}, "PermissionError"},
		{http.StatusConflict, apierr.IsConflict, "ConflictError"},
		{http.StatusInternalServerError, func(err error) bool {
			var ne *apierr.NetworkError
			return errors.As(err, &ne)
		}, "NetworkError"},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(map[string]string{"error": "nope"})
		}))

		c := NewClient(srv.URL, "t")
		_, err := c.ListMessages(context.Background(), 1)
		if err == nil || !tt.check(err) {
			t.Errorf("status %d: got %v, want %s", tt.status, err, tt.name)
		}
		srv.Close()
	}
}

func TestClientMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t")
	_, err := c.ListMessages(context.Background(), 1)
	var pe *apierr.ParseError
	if !errors.As(err, &pe) {
		t.Errorf("got %v, want ParseError", err)
	}
}

func TestClientConnectionRefused(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "t")
	_, err := c.ListRooms(context.Background())
	var ne *apierr.NetworkError
	if !errors.As(err, &ne) {
		t.Errorf("got %v, want NetworkError", err)
	}
}

func TestMarkReadNoContent(t *testing.T) {
	var gotPath string
	var gotBody struct {
		MessageIDs []int64 `json:"message_ids"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t")
	if err := c.MarkRead(context.Background(), 7, []int64{1, 2, 3}); err != nil {
		t.Fatalf("markRead: %v", err)
	}
	if gotPath != "/api/chat/rooms/7/read" {
		t.Errorf("got path %q", gotPath)
	}
	if len(gotBody.MessageIDs) != 3 {
		t.Errorf("got %d ids, want 3", len(gotBody.MessageIDs))
	}
}
