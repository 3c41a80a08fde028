package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hray3182/BillMe/internal/format"
	"github.com/hray3182/BillMe/internal/models"
)

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type string    `json:"type"`
	Text slackText `json:"text"`
}

type SlackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

// NewSlackPayload renders the webhook body for one reminder.
func NewSlackPayload(r models.BillReminder) SlackPayload {
	return SlackPayload{
		Text: format.SlackText(r),
		Blocks: []slackBlock{{
			Type: "section",
			Text: slackText{Type: "mrkdwn", Text: format.SlackBlock(r)},
		}},
	}
}

// SlackWebhook posts reminders to a Slack incoming webhook.
type SlackWebhook struct {
	url  string
	http *http.Client
}

func NewSlackWebhook(url string, httpClient *http.Client) *SlackWebhook {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &SlackWebhook{url: url, http: httpClient}
}

func (s *SlackWebhook) Name() string {
	return "slack"
}

func (s *SlackWebhook) Post(ctx context.Context, r models.BillReminder) error {
	body, err := json.Marshal(NewSlackPayload(r))
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("slack webhook returned %d: %s", resp.StatusCode, snippet(b))
	}
	return nil
}
