package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

// SourceSMS tags transactions created from messages.
const SourceSMS = "sms"

// TransactionRequest is the body of POST /transactions.
type TransactionRequest struct {
	UserID     string      `json:"user_id"`
	AccountID  string      `json:"account_id"`
	Title      string      `json:"title"`
	Amount     json.Number `json:"amount"`
	CategoryID string      `json:"category_id,omitempty"`
	Source     string      `json:"source"`
	SMSID      string      `json:"sms_id"`
	Confidence float64     `json:"confidence"`
}

// TransactionResponse is the created record. Only the ID is interpreted.
type TransactionResponse struct {
	ID json.RawMessage `json:"id"`
}

// RemoteID renders the backend's ID whether it was a string or a number.
func (r TransactionResponse) RemoteID() string {
	var s string
	if err := json.Unmarshal(r.ID, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(r.ID))
}

// FeedbackRequest is the body of POST /feedback/incorrect-extraction.
type FeedbackRequest struct {
	UserID     string                `json:"user_id"`
	RawMessage string                `json:"raw_message"`
	ParsedData model.TransactionView `json:"parsed_data"`
}

// Backend is the remote transaction service.
type Backend interface {
	CreateTransaction(ctx context.Context, req TransactionRequest, idempotencyKey string) (TransactionResponse, error)
	ReportExtraction(ctx context.Context, req FeedbackRequest) error
}

// StatusError is a non-2xx backend response.
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// HTTPBackend talks JSON to the backend over an authenticated client.
type HTTPBackend struct {
	client  *http.Client
	baseURL string
}

// NewHTTPBackend creates a backend client. A non-empty token is sent as a
// bearer token on every request.
func NewHTTPBackend(ctx context.Context, baseURL, token string, timeout time.Duration) (*HTTPBackend, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%w: backend url", common.ErrMissingConfig)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := &http.Client{}
	if token != "" {
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	client.Timeout = timeout

	return &HTTPBackend{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// CreateTransaction posts one transaction.
func (b *HTTPBackend) CreateTransaction(ctx context.Context, req TransactionRequest, idempotencyKey string) (TransactionResponse, error) {
	var resp TransactionResponse
	headers := map[string]string{"Idempotency-Key": idempotencyKey}
	if err := b.post(ctx, "/transactions", req, headers, &resp); err != nil {
		return TransactionResponse{}, err
	}
	return resp, nil
}

// ReportExtraction posts an incorrect-extraction report.
func (b *HTTPBackend) ReportExtraction(ctx context.Context, req FeedbackRequest) error {
	return b.post(ctx, "/feedback/incorrect-extraction", req, nil, nil)
}

// post sends body as JSON. Transport failures and 5xx responses come back
// transient, 4xx responses permanent.
func (b *HTTPBackend) post(ctx context.Context, path string, body any, headers map[string]string, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return common.Permanent(fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return common.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return common.Transient(fmt.Errorf("request to %s failed: %w", path, err))
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return common.Transient(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return common.Permanent(statusErr)
		}
		return common.Transient(statusErr)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return common.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
