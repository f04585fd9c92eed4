package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPAuthorizer fetches subscription credentials from the
// channel-auth endpoint. A nil client gets a sane timeout.
func HTTPAuthorizer(endpoint string, client *http.Client) Authorize {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return func(socketID, channel string) (string, error) {
		body, err := json.Marshal(map[string]string{
			"socket_id":    socketID,
			"channel_name": channel,
		})
		if err != nil {
			return "", err
		}
		resp, err := client.Post(endpoint, "application/json", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("auth endpoint: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("auth endpoint status %d", resp.StatusCode)
		}
		var out struct {
			Auth string `json:"auth"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("auth endpoint: %w", err)
		}
		if out.Auth == "" {
			return "", fmt.Errorf("auth endpoint returned empty credential")
		}
		return out.Auth, nil
	}
}
