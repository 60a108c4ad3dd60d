package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/workboardhq/workboard/internal/api"
	"github.com/workboardhq/workboard/internal/session"
)

func TestExpiredSessionRemovesPersistedToken(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	t.Setenv("WORKBOARD_BASE_URL", srv.URL)

	tokens := &session.TokenFile{Path: session.DefaultTokenPath()}
	if err := tokens.Write("T1"); err != nil {
		t.Fatalf("seed token file: %v", err)
	}

	a, err := newApp()
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	if err := a.requireAuth(); err != nil {
		t.Fatalf("persisted token should authenticate the app: %v", err)
	}

	if _, err := a.client.ChatUsers(context.Background()); !api.IsAuthExpired(err) {
		t.Fatalf("ChatUsers error = %v, want auth expired", err)
	}

	// The 401 must discard the credential everywhere: in memory and on disk,
	// so the next invocation starts unauthenticated.
	if _, err := os.Stat(session.DefaultTokenPath()); !os.IsNotExist(err) {
		t.Fatalf("token file should be gone after a 401, stat err = %v", err)
	}

	fresh, err := newApp()
	if err != nil {
		t.Fatalf("newApp after expiry: %v", err)
	}
	if err := fresh.requireAuth(); err == nil {
		t.Fatal("next invocation should not reload the expired token")
	}
}
