// internal/domain/payment/razorpay_test.go
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

func newTestRazorpay(serverURL string) *RazorpayGateway {
	return &RazorpayGateway{
		keyID:     "rzp_test_key",
		keySecret: "rzp_test_secret",
		baseURL:   serverURL,
		httpClient: &http.Client{
			Timeout: 500 * time.Millisecond,
		},
	}
}

func TestRazorpayCaptureSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments/pay_ABC/capture", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "rzp_test_key", user)
		require.Equal(t, "rzp_test_secret", pass)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pay_ABC","status":"captured"}`))
	}))
	defer server.Close()

	gateway := newTestRazorpay(server.URL)
	charge, err := gateway.Charge(context.Background(), ChargeRequest{
		AmountMinor: 2599,
		Currency:    "INR",
		Token:       "pay_ABC",
		Description: "Order #42",
	})

	require.NoError(t, err)
	assert.Equal(t, "pay_ABC", charge.ProcessorRef)
}

func TestRazorpayCaptureDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"This payment has already been captured"}}`))
	}))
	defer server.Close()

	gateway := newTestRazorpay(server.URL)
	_, err := gateway.Charge(context.Background(), ChargeRequest{
		AmountMinor: 2599,
		Currency:    "INR",
		Token:       "pay_ABC",
	})

	var declined *DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, "This payment has already been captured", declined.UserMessage)
}
