// internal/pkg/auth/password_test.go
package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/config"
)

func testManager() *PasswordManager {
	return NewPasswordManager(&config.Config{
		Security: config.SecurityConfig{BcryptCost: 4},
	})
}

func TestHashAndCheckPassword(t *testing.T) {
	pm := testManager()

	hash, err := pm.HashPassword("correct horse battery")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery", hash)

	assert.True(t, pm.CheckPassword("correct horse battery", hash))
	assert.False(t, pm.CheckPassword("wrong password", hash))
}

func TestValidatePassword(t *testing.T) {
	pm := testManager()

	assert.Error(t, pm.ValidatePassword("short"))
	assert.Error(t, pm.ValidatePassword(strings.Repeat("a", 73)))
	assert.NoError(t, pm.ValidatePassword("longenough"))
}
