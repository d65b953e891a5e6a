package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AvatarEngineClient talks to the hosted avatar reply engine over HTTP. The
// engine owns persona, moderation and model inference; the client only
// ships text back and forth.
type AvatarEngineClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewAvatarEngineClient(baseURL string) *AvatarEngineClient {
	return &AvatarEngineClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type replyRequest struct {
	AvatarID string `json:"avatarId"`
	Text     string `json:"text"`
}

type replyResponse struct {
	Text string `json:"text"`
}

// Reply implements ReplyGenerator.
func (c *AvatarEngineClient) Reply(ctx context.Context, avatarID, userText string) (string, error) {
	body, err := json.Marshal(replyRequest{AvatarID: avatarID, Text: userText})
	if err != nil {
		return "", fmt.Errorf("failed to encode reply request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/reply", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("reply request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reply engine returned status %d", resp.StatusCode)
	}

	var parsed replyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode reply: %w", err)
	}
	return parsed.Text, nil
}

var _ ReplyGenerator = (*AvatarEngineClient)(nil)
