// internal/domain/payment/stripe_test.go
package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStripe(serverURL string) *StripeGateway {
	return &StripeGateway{
		secretKey: "sk_test_123",
		baseURL:   serverURL,
		httpClient: &http.Client{
			Timeout: 500 * time.Millisecond,
		},
	}
}

func testChargeRequest() ChargeRequest {
	return ChargeRequest{
		AmountMinor: 2599,
		Currency:    "usd",
		Token:       "tok_visa",
		Description: "Order #42",
	}
}

func TestStripeChargeSuccess(t *testing.T) {
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/charges", r.URL.Path)

		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "sk_test_123", user)

		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"amount":      r.PostForm.Get("amount"),
			"currency":    r.PostForm.Get("currency"),
			"source":      r.PostForm.Get("source"),
			"description": r.PostForm.Get("description"),
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"ch_1ABC","status":"succeeded"}`))
	}))
	defer server.Close()

	gateway := newTestStripe(server.URL)
	charge, err := gateway.Charge(context.Background(), testChargeRequest())

	require.NoError(t, err)
	assert.Equal(t, "ch_1ABC", charge.ProcessorRef)
	assert.Equal(t, "2599", gotForm["amount"])
	assert.Equal(t, "usd", gotForm["currency"])
	assert.Equal(t, "tok_visa", gotForm["source"])
	assert.Equal(t, "Order #42", gotForm["description"])
}

func TestStripeChargeDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer server.Close()

	gateway := newTestStripe(server.URL)
	_, err := gateway.Charge(context.Background(), testChargeRequest())

	var declined *DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, "Your card was declined.", declined.UserMessage)
}

func TestStripeChargeBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Invalid API Key provided"}}`))
	}))
	defer server.Close()

	gateway := newTestStripe(server.URL)
	_, err := gateway.Charge(context.Background(), testChargeRequest())

	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestStripeChargeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gateway := newTestStripe(server.URL)
	_, err := gateway.Charge(context.Background(), testChargeRequest())

	var transient *TransientError
	assert.ErrorAs(t, err, &transient)
}

func TestStripeChargeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	gateway := newTestStripe(server.URL)
	_, err := gateway.Charge(context.Background(), testChargeRequest())

	var transient *TransientError
	assert.ErrorAs(t, err, &transient)
}

func TestStripeChargeMissingKey(t *testing.T) {
	gateway := &StripeGateway{httpClient: http.DefaultClient}
	_, err := gateway.Charge(context.Background(), testChargeRequest())

	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
