// internal/interfaces/http/handlers/session.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/storefront-backend/internal/config"
)

// getOrCreateSessionID reads the session cookie or mints a new session.
// Carts and pending checkouts are keyed by this ID, so the same cookie
// follows the customer across anonymous and signed-in requests.
func getOrCreateSessionID(c *gin.Context, cfg *config.Config) string {
	sessionID, err := c.Cookie("session_id")
	if err != nil || sessionID == "" {
		sessionID = uuid.New().String()
		c.SetCookie("session_id", sessionID,
			int(cfg.Session.CookieAge.Seconds()), "/", "", false, true)
	}
	return sessionID
}
