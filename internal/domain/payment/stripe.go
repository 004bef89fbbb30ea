// internal/domain/payment/stripe.go
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/your-org/storefront-backend/internal/config"
)

const stripeBaseURL = "https://api.stripe.com"

// StripeGateway charges tokens through the Stripe charges API
type StripeGateway struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

// NewStripeGateway creates a Stripe gateway from config
func NewStripeGateway(cfg *config.Config) *StripeGateway {
	return &StripeGateway{
		secretKey: cfg.External.Stripe.SecretKey,
		baseURL:   stripeBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Payment.ChargeTimeout,
		},
	}
}

type stripeCharge struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type stripeErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Charge posts a form-encoded charge to /v1/charges and classifies the
// outcome. Card errors decline, auth and request errors are configuration,
// everything else (timeouts, 429, 5xx) is transient.
func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if g.secretKey == "" {
		return nil, &ConfigurationError{Reason: "stripe secret key not set"}
	}
	if req.AmountMinor <= 0 {
		return nil, &ConfigurationError{Reason: "charge amount must be positive"}
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountMinor, 10))
	form.Set("currency", req.Currency)
	form.Set("source", req.Token)
	form.Set("description", req.Description)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/charges", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build charge request: %w", err)
	}
	httpReq.SetBasicAuth(g.secretKey, "")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &TransientError{Reason: "stripe unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &TransientError{Reason: "failed to read stripe response", Err: err}
	}

	if resp.StatusCode == http.StatusOK {
		var charge stripeCharge
		if err := json.Unmarshal(body, &charge); err != nil {
			return nil, &TransientError{Reason: "malformed stripe response", Err: err}
		}
		if charge.ID == "" {
			return nil, &TransientError{Reason: "stripe response missing charge id"}
		}
		return &Charge{ProcessorRef: charge.ID}, nil
	}

	var stripeErr stripeErrorBody
	_ = json.Unmarshal(body, &stripeErr)

	switch {
	case resp.StatusCode == http.StatusPaymentRequired,
		stripeErr.Error.Type == "card_error":
		msg := stripeErr.Error.Message
		if msg == "" {
			msg = "your card was declined"
		}
		return nil, &DeclinedError{UserMessage: msg}
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusBadRequest:
		return nil, &ConfigurationError{
			Reason: fmt.Sprintf("stripe rejected the request (%d): %s",
				resp.StatusCode, stripeErr.Error.Message),
		}
	default:
		return nil, &TransientError{
			Reason: fmt.Sprintf("stripe returned %d", resp.StatusCode),
		}
	}
}
