package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	DefaultExpoBaseURL = "https://exp.host"
	expoSendPath       = "/--/api/v2/push/send"

	// MaxChunkSize is the relay's limit of messages per request.
	MaxChunkSize = 100
)

var (
	expoTokenRe   = regexp.MustCompile(`^Expo(nent)?PushToken\[.+\]$`)
	deviceTokenRe = regexp.MustCompile(`(?i)^[a-z\d]{8}-[a-z\d]{4}-[a-z\d]{4}-[a-z\d]{4}-[a-z\d]{12}$`)
)

// IsExpoPushToken reports whether token has the shape the Expo relay accepts.
func IsExpoPushToken(token string) bool {
	return expoTokenRe.MatchString(token) || deviceTokenRe.MatchString(token)
}

type PushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Sound string            `json:"sound,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// PushTicket is the relay's per-message acknowledgement.
type PushTicket struct {
	Status  string         `json:"status"` // "ok" or "error"
	ID      string         `json:"id,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func (t PushTicket) OK() bool {
	return t.Status == "ok"
}

// PushRelay submits one chunk of messages.
type PushRelay interface {
	Send(ctx context.Context, messages []PushMessage) ([]PushTicket, error)
}

type ExpoClient struct {
	baseURL     string
	accessToken string
	http        *http.Client
}

func NewExpoClient(baseURL, accessToken string, httpClient *http.Client) *ExpoClient {
	if baseURL == "" {
		baseURL = DefaultExpoBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ExpoClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		http:        httpClient,
	}
}

type expoError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type expoResponse struct {
	Data   []PushTicket `json:"data"`
	Errors []expoError  `json:"errors"`
}

func (c *ExpoClient) Send(ctx context.Context, messages []PushMessage) ([]PushTicket, error) {
	if len(messages) > MaxChunkSize {
		return nil, fmt.Errorf("chunk of %d messages exceeds relay limit %d", len(messages), MaxChunkSize)
	}

	body, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal push messages: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+expoSendPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send push request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read push response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("push relay returned %d: %s", resp.StatusCode, snippet(respBody))
	}

	var parsed expoResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse push response: %w", err)
	}
	if len(parsed.Errors) > 0 && len(parsed.Data) == 0 {
		return nil, fmt.Errorf("push relay error %s: %s", parsed.Errors[0].Code, parsed.Errors[0].Message)
	}
	return parsed.Data, nil
}

func snippet(b []byte) string {
	const max = 256
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
