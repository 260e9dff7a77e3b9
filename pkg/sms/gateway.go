package sms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"rentals/pkg/client"
	"rentals/pkg/logger"
)

// Verdict is the outcome of checking a verification code.
type Verdict string

const (
	Approved Verdict = "approved"
	Pending  Verdict = "pending"
	Denied   Verdict = "denied"
)

var ErrNotConfigured = errors.New("sms gateway is not configured")

// APIError is a non-2xx answer from the gateway. 4xx answers are permanent,
// everything else may succeed on retry.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sms gateway returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// IsPermanent reports whether err is a gateway rejection that will not
// change on retry.
func IsPermanent(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && !apiErr.Temporary()
}

type Config struct {
	BaseURL   string
	AccountID string
	Token     string
	Sender    string
	Timeout   time.Duration
}

type Gateway struct {
	http      *client.HttpClient
	accountID string
	sender    string
	log       *logger.Logger
}

func NewGateway(cfg Config, log *logger.Logger) (*Gateway, error) {
	if cfg.BaseURL == "" || cfg.AccountID == "" || cfg.Token == "" {
		return nil, ErrNotConfigured
	}

	httpClient := client.NewHttpClient(cfg.BaseURL, cfg.Timeout)
	httpClient.Headers["Authorization"] = "Bearer " + cfg.Token

	return &Gateway{
		http:      httpClient,
		accountID: cfg.AccountID,
		sender:    cfg.Sender,
		log:       log,
	}, nil
}

type messageRequest struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Body string `json:"body"`
}

type verificationRequest struct {
	To      string `json:"to"`
	Channel string `json:"channel"`
}

type verificationCheckRequest struct {
	To   string `json:"to"`
	Code string `json:"code"`
}

type verificationCheckResponse struct {
	Status string `json:"status"`
}

func (g *Gateway) SendMessage(ctx context.Context, to, body string) error {
	_, err := g.post(ctx, "messages", messageRequest{To: to, From: g.sender, Body: body})
	if err != nil {
		return err
	}
	g.log.Debug("SMS sent", "to", to)
	return nil
}

func (g *Gateway) StartVerification(ctx context.Context, to string) error {
	_, err := g.post(ctx, "verifications", verificationRequest{To: to, Channel: "sms"})
	return err
}

// CheckVerification asks the gateway whether code is valid for to. A wrong
// code is a Denied verdict, not an error.
func (g *Gateway) CheckVerification(ctx context.Context, to, code string) (Verdict, error) {
	resp, err := g.post(ctx, "verification-checks", verificationCheckRequest{To: to, Code: code})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return Denied, nil
		}
		return "", err
	}

	var out verificationCheckResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return "", fmt.Errorf("failed to decode verification check: %w", err)
	}

	switch out.Status {
	case "approved":
		return Approved, nil
	case "pending":
		return Pending, nil
	default:
		return Denied, nil
	}
}

func (g *Gateway) post(ctx context.Context, resource string, body any) (*client.Response, error) {
	path := fmt.Sprintf("/v1/accounts/%s/%s", url.PathEscape(g.accountID), resource)
	resp, err := g.http.POST(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("sms gateway %s: %w", resource, err)
	}
	if !resp.IsSuccess() {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: client.GetErrorMessage(resp)}
	}
	return resp, nil
}
