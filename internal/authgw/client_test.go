package authgw

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(srvURL string) *Client {
	return &Client{
		http:       &http.Client{Timeout: 5 * time.Second},
		issuerURL:  srvURL,
		serviceKey: "svc-key",
		verifier:   NewInsecureVerifier(),
	}
}

func TestCurrentSession_Established(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/session" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "svc-key" {
			t.Errorf("missing service key header")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-1",
			"expires_at":   time.Now().Add(time.Hour).Unix(),
			"user": map[string]interface{}{
				"id":            "u1",
				"email":         "a@b.com",
				"user_metadata": map[string]interface{}{"full_name": "Ann"},
			},
		})
	}))
	defer srv.Close()

	sess, err := testClient(srv.URL).CurrentSession(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess == nil || sess.AccessToken != "tok-1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.Identity == nil || sess.Identity.ID != "u1" || sess.Identity.Email != "a@b.com" {
		t.Fatalf("unexpected identity: %+v", sess.Identity)
	}
	if sess.Identity.Metadata["full_name"] != "Ann" {
		t.Fatalf("metadata not carried: %+v", sess.Identity.Metadata)
	}
}

func TestCurrentSession_NoneEstablished(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sess, err := testClient(srv.URL).CurrentSession(context.Background())
	if err != nil || sess != nil {
		t.Fatalf("expected (nil, nil), got (%+v, %v)", sess, err)
	}
}

func TestCurrentSession_PlatformError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).CurrentSession(context.Background())
	var opErr *AuthOperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected AuthOperationError, got %v", err)
	}
	if opErr.Message != "boom" || opErr.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected error detail: %+v", opErr)
	}
}

func TestSignOut(t *testing.T) {
	var gotAuth string
	status := http.StatusNoContent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/logout" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if err := c.SignOut(context.Background(), "tok-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("unexpected Authorization header: %q", gotAuth)
	}

	status = http.StatusUnauthorized
	err := c.SignOut(context.Background(), "tok-1")
	var opErr *AuthOperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected AuthOperationError, got %v", err)
	}
}

func rawJWT(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatal(err)
	}
	enc := base64.RawURLEncoding.EncodeToString
	return enc([]byte(`{"alg":"none"}`)) + "." + enc(payload) + "."
}

func TestIdentityMetadata(t *testing.T) {
	c := testClient("http://unused")
	claims, err := c.IdentityMetadata(context.Background(), rawJWT(t, map[string]interface{}{
		"sub":  "u1",
		"name": "Ann",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims["sub"] != "u1" || claims["name"] != "Ann" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestInsecureVerifier_RejectsGarbage(t *testing.T) {
	v := NewInsecureVerifier()
	if _, err := v.Verify(context.Background(), "not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
