// messenger.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Sender actions supported by the Send API.
const (
	ActionTypingOn  = "typing_on"
	ActionTypingOff = "typing_off"
)

// MessengerConfig holds the credentials and endpoint for the Send API.
type MessengerConfig struct {
	AccessToken string
	GraphURL    string
}

// MessengerRelay pushes text replies and sender actions to a Messenger
// correspondent through the platform's Send API. It owns no state beyond the
// shared HTTP client; every call is one outbound POST.
type MessengerRelay struct {
	config MessengerConfig
	client *http.Client
}

func NewMessengerRelay(config MessengerConfig, client *http.Client) *MessengerRelay {
	return &MessengerRelay{
		config: config,
		client: client,
	}
}

// SendText delivers a text reply to the given PSID.
func (m *MessengerRelay) SendText(ctx context.Context, recipientID string, text string) error {
	payload := map[string]interface{}{
		"recipient": map[string]string{
			"id": recipientID,
		},
		"messaging_type": "RESPONSE",
		"message": map[string]string{
			"text": text,
		},
	}
	return m.post(ctx, payload)
}

// SendAction delivers a typing indicator (typing_on or typing_off) to the
// given PSID.
func (m *MessengerRelay) SendAction(ctx context.Context, recipientID string, action string) error {
	payload := map[string]interface{}{
		"recipient": map[string]string{
			"id": recipientID,
		},
		"sender_action": action,
	}
	return m.post(ctx, payload)
}

func (m *MessengerRelay) post(ctx context.Context, payload map[string]interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error creating Send API payload: %v", err)
	}

	// The Graph API takes the page token as a query parameter.
	sendURL := fmt.Sprintf("%s?access_token=%s", m.config.GraphURL, m.config.AccessToken)

	LogDebug("📤 Send API payload: %s", string(jsonData))

	req, err := http.NewRequestWithContext(ctx, "POST", sendURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating Send API request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending to Messenger: %v", err)
	}
	defer resp.Body.Close()

	fbResp, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("send api error (status %d): %s", resp.StatusCode, string(fbResp))
	}

	LogDebug("✅ Send API response (%d): %s", resp.StatusCode, string(fbResp))
	return nil
}
