// Package ai reads bill details out of a photographed bill with an
// OpenAI-compatible vision model.
package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"github.com/hray3182/BillMe/internal/models"
)

var ErrExtractionFailed = errors.New("bill extraction failed")

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type Extraction struct {
	Balance     decimal.Decimal
	MinimumDue  decimal.Decimal
	DueDate     time.Time
	Description string
	Confidence  Confidence
}

// Bill turns the extraction into a new unpaid bill owned by userID.
func (e *Extraction) Bill(userID string) *models.Bill {
	desc := e.Description
	return &models.Bill{
		UserID:      userID,
		Balance:     e.Balance,
		MinimumDue:  e.MinimumDue,
		DueDate:     e.DueDate,
		Description: &desc,
		Status:      models.BillStatusUnpaid,
	}
}

// Extractor reads a bill image. Every failure wraps ErrExtractionFailed.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (*Extraction, error)
}

type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (c *Client) SetModel(model string) {
	c.model = model
}

const extractionPrompt = `Analyze this bill or invoice image and extract:
1. balance: the total amount owed, as a number without currency symbols
2. minimum_due: the minimum payment due, or null if the bill does not show one
3. due_date: the payment due date in YYYY-MM-DD format
4. description: a short label for what the bill is for, e.g. "Electric Bill", "Water Bill", "Credit Card"
5. confidence: "high", "medium" or "low"

Use "low" confidence when the information is unclear. If the date is ambiguous, make your best estimate.`

var extractionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"balance": {
			"type": ["number", "null"],
			"description": "Total amount owed"
		},
		"minimum_due": {
			"type": ["number", "null"],
			"description": "Minimum payment due, null when not shown"
		},
		"due_date": {
			"type": ["string", "null"],
			"description": "Due date in YYYY-MM-DD format"
		},
		"description": {
			"type": ["string", "null"],
			"description": "Short description of the bill"
		},
		"confidence": {
			"type": "string",
			"enum": ["high", "medium", "low"]
		}
	},
	"required": ["balance", "minimum_due", "due_date", "description", "confidence"],
	"additionalProperties": false
}`)

type rawExtraction struct {
	Balance     *decimal.Decimal `json:"balance"`
	MinimumDue  *decimal.Decimal `json:"minimum_due"`
	DueDate     *string          `json:"due_date"`
	Description *string          `json:"description"`
	Confidence  string           `json:"confidence"`
}

func (c *Client) Extract(ctx context.Context, image []byte, mimeType string) (*Extraction, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrExtractionFailed)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%w: unsupported content type %s", ErrExtractionFailed, mimeType)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: extractionPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL(image, mimeType),
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "bill_extraction",
				Schema: extractionSchema,
				Strict: true,
			},
		},
		MaxTokens:   1024,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to call AI API: %w", ErrExtractionFailed, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response from AI", ErrExtractionFailed)
	}

	var raw rawExtraction
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to parse AI response: %w", ErrExtractionFailed, err)
	}

	return raw.normalize()
}

// normalize applies the defaults: minimum due falls back to the balance,
// description to "Bill" and confidence to medium. Balance and due date are
// required.
func (r rawExtraction) normalize() (*Extraction, error) {
	if r.Balance == nil || !r.Balance.IsPositive() {
		return nil, fmt.Errorf("%w: missing balance", ErrExtractionFailed)
	}
	if r.DueDate == nil || strings.TrimSpace(*r.DueDate) == "" {
		return nil, fmt.Errorf("%w: missing due date", ErrExtractionFailed)
	}
	due, err := time.Parse(models.DateLayout, strings.TrimSpace(*r.DueDate))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid due date %q", ErrExtractionFailed, *r.DueDate)
	}

	e := &Extraction{
		Balance:     r.Balance.Round(2),
		MinimumDue:  r.Balance.Round(2),
		DueDate:     due,
		Description: "Bill",
		Confidence:  ConfidenceMedium,
	}
	if r.MinimumDue != nil && r.MinimumDue.IsPositive() {
		e.MinimumDue = r.MinimumDue.Round(2)
	}
	if r.Description != nil && strings.TrimSpace(*r.Description) != "" {
		e.Description = strings.TrimSpace(*r.Description)
	}
	switch c := Confidence(r.Confidence); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		e.Confidence = c
	}
	return e, nil
}

func dataURL(image []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
}
