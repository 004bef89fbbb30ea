// internal/domain/order/repository_test.go
package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() ShippingAddress {
	return ShippingAddress{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.com",
		Phone:      "+442079460000",
		Address:    "12 Analytical Row",
		City:       "London",
		State:      "Greater London",
		PostalCode: "NW1 1AA",
		Country:    "GB",
	}
}

func TestValidateShipping(t *testing.T) {
	assert.NoError(t, validateShipping(validAddress()))

	missing := validAddress()
	missing.City = "  "
	err := validateShipping(missing)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "city", validationErr.Field)

	noPhone := validAddress()
	noPhone.Phone = ""
	err = validateShipping(noPhone)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "phone", validationErr.Field)

	badEmail := validAddress()
	badEmail.Email = "not-an-email"
	err = validateShipping(badEmail)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "email", validationErr.Field)
}

func TestLegalSources(t *testing.T) {
	assert.ElementsMatch(t, []Status{StatusPending}, legalSources(StatusProcessing))
	assert.ElementsMatch(t, []Status{StatusProcessing}, legalSources(StatusShipped))
	assert.ElementsMatch(t, []Status{StatusShipped}, legalSources(StatusDelivered))
	assert.ElementsMatch(t, []Status{StatusPending, StatusProcessing}, legalSources(StatusCancelled))
	assert.Empty(t, legalSources(StatusPending))
}
