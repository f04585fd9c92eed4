package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCredentialRoundTrip(t *testing.T) {
	cred := Credential("app-key", "app-secret", "sock-1", "room-123456")
	if !strings.HasPrefix(cred, "app-key:") {
		t.Fatalf("credential %q does not carry the app key", cred)
	}
	if !VerifyCredential("app-key", "app-secret", "sock-1", "room-123456", cred) {
		t.Fatal("minted credential failed verification")
	}
}

func TestVerifyCredentialRejectsTampering(t *testing.T) {
	cred := Credential("app-key", "app-secret", "sock-1", "room-123456")

	cases := []struct {
		name            string
		socket, channel string
		credential      string
	}{
		{"wrong socket", "sock-2", "room-123456", cred},
		{"wrong channel", "sock-1", "room-999999", cred},
		{"wrong key", "sock-1", "room-123456", "other-key:" + strings.SplitN(cred, ":", 2)[1]},
		{"no separator", "sock-1", "room-123456", "garbage"},
		{"empty", "sock-1", "room-123456", ""},
	}
	for _, tc := range cases {
		if VerifyCredential("app-key", "app-secret", tc.socket, tc.channel, tc.credential) {
			t.Errorf("%s: credential unexpectedly verified", tc.name)
		}
	}
}

func TestAuthHandlerMintsCredential(t *testing.T) {
	h := AuthHandler("app-key", "app-secret")

	body := strings.NewReader(`{"socket_id":"sock-1","channel_name":"room-123456"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth", body)
	w := httptest.NewRecorder()
	h(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Auth string `json:"auth"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !VerifyCredential("app-key", "app-secret", "sock-1", "room-123456", resp.Auth) {
		t.Fatalf("handler minted unverifiable credential %q", resp.Auth)
	}
}

func TestAuthHandlerRejectsBadRequests(t *testing.T) {
	h := AuthHandler("app-key", "app-secret")

	for _, body := range []string{"not json", `{"socket_id":"sock-1"}`, `{"channel_name":"room-1"}`} {
		req := httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(body))
		w := httptest.NewRecorder()
		h(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}
