// internal/domain/payment/razorpay.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/your-org/storefront-backend/internal/config"
)

const razorpayBaseURL = "https://api.razorpay.com"

// RazorpayGateway charges tokens through the Razorpay capture API. A
// Razorpay token is an authorized payment ID; charging captures it.
type RazorpayGateway struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

// NewRazorpayGateway creates a Razorpay gateway from config
func NewRazorpayGateway(cfg *config.Config) *RazorpayGateway {
	return &RazorpayGateway{
		keyID:     cfg.External.Razorpay.KeyID,
		keySecret: cfg.External.Razorpay.KeySecret,
		baseURL:   razorpayBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Payment.ChargeTimeout,
		},
	}
}

type razorpayPayment struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type razorpayErrorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Charge captures an authorized payment for the requested amount
func (g *RazorpayGateway) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if g.keyID == "" || g.keySecret == "" {
		return nil, &ConfigurationError{Reason: "razorpay credentials not set"}
	}
	if req.AmountMinor <= 0 {
		return nil, &ConfigurationError{Reason: "charge amount must be positive"}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode capture request: %w", err)
	}

	captureURL := fmt.Sprintf("%s/v1/payments/%s/capture", g.baseURL, req.Token)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		captureURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build capture request: %w", err)
	}
	httpReq.SetBasicAuth(g.keyID, g.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &TransientError{Reason: "razorpay unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &TransientError{Reason: "failed to read razorpay response", Err: err}
	}

	if resp.StatusCode == http.StatusOK {
		var payment razorpayPayment
		if err := json.Unmarshal(body, &payment); err != nil {
			return nil, &TransientError{Reason: "malformed razorpay response", Err: err}
		}
		if payment.Status != "captured" {
			return nil, &DeclinedError{UserMessage: "payment could not be captured"}
		}
		return &Charge{ProcessorRef: payment.ID}, nil
	}

	var rzpErr razorpayErrorBody
	_ = json.Unmarshal(body, &rzpErr)

	switch {
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return nil, &ConfigurationError{
			Reason: fmt.Sprintf("razorpay rejected credentials (%d)", resp.StatusCode),
		}
	case resp.StatusCode == http.StatusBadRequest:
		msg := rzpErr.Error.Description
		if msg == "" {
			msg = "your payment could not be processed"
		}
		return nil, &DeclinedError{UserMessage: msg}
	default:
		return nil, &TransientError{
			Reason: fmt.Sprintf("razorpay returned %d", resp.StatusCode),
		}
	}
}
