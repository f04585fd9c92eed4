package relay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
)

// Signature signs a (socket, channel) pair with the app secret.
func Signature(secret, socketID, channel string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(socketID + ":" + channel))
	return hex.EncodeToString(mac.Sum(nil))
}

// Credential is the value a client presents on subscribe:
// "<appKey>:<signature>".
func Credential(key, secret, socketID, channel string) string {
	return key + ":" + Signature(secret, socketID, channel)
}

// VerifyCredential checks a presented credential for the socket and
// channel it claims to authorize.
func VerifyCredential(key, secret, socketID, channel, credential string) bool {
	presentedKey, presentedSig, ok := strings.Cut(credential, ":")
	if !ok || presentedKey != key {
		return false
	}
	want := Signature(secret, socketID, channel)
	return hmac.Equal([]byte(presentedSig), []byte(want))
}

type authRequest struct {
	SocketID    string `json:"socket_id"`
	ChannelName string `json:"channel_name"`
}

type authResponse struct {
	Auth string `json:"auth"`
}

// AuthHandler issues subscription credentials for a (socket, channel)
// pair. It only mints credentials; the hub validates them on
// subscribe.
func AuthHandler(key, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAuthError(w, http.StatusBadRequest, "bad_request")
			return
		}
		if req.SocketID == "" || req.ChannelName == "" {
			writeAuthError(w, http.StatusBadRequest, "missing_field")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(authResponse{
			Auth: Credential(key, secret, req.SocketID, req.ChannelName),
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": code})
}
